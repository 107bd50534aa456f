package voicestreamsystem

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/xpanvictor/parley/internal/domains/conversation"
	"github.com/xpanvictor/parley/internal/domains/sys_manager/pipeline"
	"github.com/xpanvictor/parley/internal/domains/sys_manager/runtime"
	"github.com/xpanvictor/parley/internal/metrics"
	"github.com/xpanvictor/parley/pkg/Logger"
	xio "github.com/xpanvictor/parley/pkg/io"
)

// Speaker voices an answer. *pipeline.Pipeline is the production one.
type Speaker interface {
	Speak(ctx context.Context, turnID, text string) pipeline.SpeakResult
}

// TurnResult summarises one processed turn.
type TurnResult struct {
	TurnID   string
	Question string
	Reply    conversation.Reply
	Spoken   pipeline.SpeakResult
	Outcome  string
}

// TurnProcessor runs a detected question through reasoning and speech.
// At most one turn is in flight; capture is paused for its whole span
// and the buffer is cleared on both sides of it.
type TurnProcessor struct {
	session  *SessionState
	convo    conversation.ConversationService
	speaker  Speaker
	detector *runtime.TurnDetector
	pub      *xio.Publisher
	metrics  *metrics.Metrics
	logger   *Logger.Logger

	wg sync.WaitGroup
	// observes finished turns, used by tests and the ask mode
	OnDone func(TurnResult)
}

func NewTurnProcessor(
	session *SessionState,
	convo conversation.ConversationService,
	speaker Speaker,
	detector *runtime.TurnDetector,
	pub *xio.Publisher,
	m *metrics.Metrics,
	logger *Logger.Logger,
) *TurnProcessor {
	return &TurnProcessor{
		session:  session,
		convo:    convo,
		speaker:  speaker,
		detector: detector,
		pub:      pub,
		metrics:  m,
		logger:   logger,
	}
}

// Dispatch starts the turn in the background. It returns false, doing
// nothing, if another turn is in flight. Capture is paused and the
// buffer cleared before it returns.
func (p *TurnProcessor) Dispatch(ctx context.Context, question string) bool {
	if !p.session.TryBeginTurn() {
		p.logger.Debugw("turn already in flight, dropping question", "question", question)
		return false
	}
	p.begin()

	// the turn outlives a poll; shutdown waits on it instead
	turnCtx := context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.run(turnCtx, question)
	}()
	return true
}

// Process runs the turn on the calling goroutine.
func (p *TurnProcessor) Process(ctx context.Context, question string) (TurnResult, bool) {
	if !p.session.TryBeginTurn() {
		return TurnResult{}, false
	}
	p.begin()
	return p.run(ctx, question), true
}

// Wait blocks until background turns finish.
func (p *TurnProcessor) Wait() {
	p.wg.Wait()
}

func (p *TurnProcessor) begin() {
	p.session.Buffer.Pause()
	p.session.Buffer.Clear()
}

func (p *TurnProcessor) run(ctx context.Context, question string) (res TurnResult) {
	res = TurnResult{TurnID: uuid.NewString(), Question: question}
	log := p.logger.With("turn_id", res.TurnID)

	defer func() {
		if r := recover(); r != nil {
			log.Errorw("turn processing panicked", "panic", r)
			res.Outcome = metrics.OutcomeError
		}
		p.session.Buffer.Clear()
		p.session.ResetSpeech()
		if p.detector != nil {
			p.detector.Reset(context.Background())
		}
		p.session.Buffer.Resume()
		p.session.EndTurn()
		p.pub.Publish(xio.EventResumed, res.TurnID, nil)
		if res.Outcome != "" {
			p.metrics.Turn(res.Outcome)
		}
		log.Infow("listening resumed", "outcome", res.Outcome)
		if p.OnDone != nil {
			p.OnDone(res)
		}
	}()

	log.Infow("processing question", "question", question)

	res.Reply = p.convo.Ask(ctx, question)
	p.metrics.Call(metrics.CollaboratorLLM, res.Reply.Latency, res.Reply.Err)
	answer := res.Reply.Exchange.Answer
	p.pub.Publish(xio.EventAnswer, res.TurnID, map[string]any{
		"question": question,
		"answer":   answer,
		"apology":  res.Reply.Apology,
	})
	log.Infow("answer ready", "apology", res.Reply.Apology, "latency", res.Reply.Latency)

	res.Spoken = p.speaker.Speak(ctx, res.TurnID, answer)

	switch {
	case res.Reply.Apology:
		res.Outcome = metrics.OutcomeApology
	case !res.Spoken.Played:
		res.Outcome = metrics.OutcomeSilent
	default:
		res.Outcome = metrics.OutcomeAnswered
	}
	return res
}
