package voicestreamsystem

import (
	"context"
	"errors"
	"time"

	"github.com/xpanvictor/parley/internal/domains/conversation"
	"github.com/xpanvictor/parley/internal/domains/sys_manager/runtime"
	"github.com/xpanvictor/parley/internal/metrics"
	"github.com/xpanvictor/parley/pkg/Logger"
	xio "github.com/xpanvictor/parley/pkg/io"
	"github.com/xpanvictor/parley/pkg/io/stt"
	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
	"github.com/xpanvictor/parley/pkg/utils"
)

var ErrTurnInFlight = errors.New("a turn is being processed")

// VSSConfig contains configuration for the VSS
type VSSConfig struct {
	PollInterval       time.Duration `json:"pollInterval"`
	PausedPollInterval time.Duration `json:"pausedPollInterval"`
	// trailing audio handed to the voice detector
	VADWindow time.Duration `json:"vadWindow"`
	// transcription keeps running this long after voice was last seen
	TranscriptGrace time.Duration `json:"transcriptGrace"`
	// chunks waiting between the capture callback and the buffer
	CaptureQueue int              `json:"captureQueue"`
	Clock        func() time.Time `json:"-"`
}

// DefaultVSSConfig returns default configuration
func DefaultVSSConfig() VSSConfig {
	return VSSConfig{
		PollInterval:       300 * time.Millisecond,
		PausedPollInterval: 100 * time.Millisecond,
		VADWindow:          time.Second,
		TranscriptGrace:    1500 * time.Millisecond,
		CaptureQueue:       64,
		Clock:              time.Now,
	}
}

// Deps are the collaborators a VSS drives.
type Deps struct {
	Buffer       *audioring.RollingBuffer
	Detector     stt.VoiceDetector
	Transcriber  stt.Transcriber
	Conversation conversation.ConversationService
	Speaker      Speaker
	Turns        *runtime.TurnDetector
	Publisher    *xio.Publisher
	Metrics      *metrics.Metrics
}

// VSS is the voice stream system: the single polling loop that turns
// buffered audio into detected questions.
type VSS struct {
	config VSSConfig
	logger *Logger.Logger

	session     *SessionState
	monitor     *VoiceActivityMonitor
	transcripts *TranscriptSource
	turns       *runtime.TurnDetector
	processor   *TurnProcessor
	memory      conversation.ConversationRepository
	pub         *xio.Publisher
	metrics     *metrics.Metrics

	captureCh chan audioring.AudioChunk
}

func NewVSS(cfg VSSConfig, deps Deps, logger *Logger.Logger) *VSS {
	def := DefaultVSSConfig()
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = def.PollInterval
	}
	if cfg.PausedPollInterval <= 0 {
		cfg.PausedPollInterval = def.PausedPollInterval
	}
	if cfg.VADWindow <= 0 {
		cfg.VADWindow = def.VADWindow
	}
	if cfg.CaptureQueue <= 0 {
		cfg.CaptureQueue = def.CaptureQueue
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	session := NewSessionState(deps.Buffer)
	v := &VSS{
		config:    cfg,
		logger:    logger,
		session:   session,
		turns:     deps.Turns,
		memory:    deps.Conversation.Repository(),
		pub:       deps.Publisher,
		metrics:   deps.Metrics,
		captureCh: make(chan audioring.AudioChunk, cfg.CaptureQueue),
	}
	v.monitor = NewVoiceActivityMonitor(deps.Detector, session, deps.Metrics, logger.Named("vad"), cfg.Clock)
	v.transcripts = NewTranscriptSource(deps.Transcriber, session, deps.Metrics, logger.Named("stt"), cfg.Clock)
	v.processor = NewTurnProcessor(session, deps.Conversation, deps.Speaker, deps.Turns, deps.Publisher, deps.Metrics, logger.Named("turn"))
	return v
}

func (v *VSS) Session() *SessionState {
	return v.session
}

func (v *VSS) Processor() *TurnProcessor {
	return v.processor
}

// Ingest hands a captured chunk to the pump. It never blocks; a full
// queue drops the chunk.
func (v *VSS) Ingest(chunk audioring.AudioChunk) bool {
	select {
	case v.captureCh <- chunk:
		return true
	default:
		v.metrics.CaptureDropped()
		return false
	}
}

// RunCapturePump moves queued chunks into the rolling buffer.
func (v *VSS) RunCapturePump(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case chunk := <-v.captureCh:
			if _, err := v.session.Buffer.Push(chunk); err != nil {
				v.logger.Warnw("dropping captured chunk", "error", err)
			}
		}
	}
}

// Run polls until ctx is done, then waits for an in-flight turn.
func (v *VSS) Run(ctx context.Context) error {
	v.logger.Infow("listening", "poll_interval", v.config.PollInterval)
	v.pub.Publish(xio.EventListening, "", nil)

	next := time.Now()
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			v.processor.Wait()
			return nil
		case <-timer.C:
		}

		wait := v.safePoll(ctx)

		// deadlines are scheduled from the previous one so slow polls don't drift
		next = next.Add(wait)
		if now := time.Now(); next.Before(now) {
			next = now
		}
		timer.Reset(time.Until(next))
	}
}

func (v *VSS) safePoll(ctx context.Context) (wait time.Duration) {
	defer func() {
		if r := recover(); r != nil {
			v.logger.Errorw("poll cycle panicked", "panic", r)
			wait = v.config.PollInterval
		}
	}()
	return v.Poll(ctx)
}

// Poll runs one orchestration cycle and returns how long to wait before
// the next one.
func (v *VSS) Poll(ctx context.Context) time.Duration {
	now := v.config.Clock()

	if !v.session.Processing() && v.session.Buffer.State() == audioring.CaptureActive {
		if n, cleared := v.memory.CheckTimeout(now); cleared {
			v.logger.Infow("conversation history expired", "exchanges", n)
			v.metrics.HistoryCleared()
			v.pub.Publish(xio.EventHistoryCleared, "", map[string]any{"exchanges": n, "reason": "timeout"})
		}
	}

	if v.session.Buffer.State() == audioring.CapturePaused {
		return v.config.PausedPollInterval
	}

	hasVoice := v.monitor.Poll(ctx, v.session.Buffer.SnapshotRecent(v.config.VADWindow))
	speech := v.session.Speech()
	now = v.config.Clock()

	transcript := ""
	if v.shouldTranscribe(hasVoice, speech, now) {
		transcript = v.transcripts.Transcribe(ctx, v.session.Buffer.Snapshot())
		now = v.config.Clock()
	}

	decision := v.turns.Step(ctx, runtime.Evidence{
		HasVoice:          hasVoice,
		Now:               now,
		LastVoiceActivity: speech.LastVoiceActivity,
		Transcript:        transcript,
		Busy:              v.session.Processing(),
	})

	if decision.Started {
		v.logger.Infow("speech started")
		v.pub.Publish(xio.EventSpeechStarted, "", nil)
	}
	if decision.EndOfTurn {
		v.logger.Infow("question detected", "question", decision.Question)
		v.pub.Publish(xio.EventQuestionDetected, "", map[string]any{"question": decision.Question})
		v.processor.Dispatch(ctx, decision.Question)
	}
	return v.config.PollInterval
}

func (v *VSS) shouldTranscribe(hasVoice bool, speech SpeechState, now time.Time) bool {
	if hasVoice || v.turns.Speaking() {
		return true
	}
	if speech.LastVoiceActivity.IsZero() {
		return false
	}
	return now.Sub(speech.LastVoiceActivity) <= v.config.TranscriptGrace
}

// Stats is a point-in-time view of the loop.
type Stats struct {
	State          string      `json:"state"`
	Capture        string      `json:"capture"`
	Processing     bool        `json:"processing"`
	BufferChunks   int         `json:"buffer_chunks"`
	BufferCapacity int         `json:"buffer_capacity"`
	BufferDropped  uint64      `json:"buffer_dropped"`
	HistoryLength  int         `json:"history_length"`
	LastActivity   time.Time   `json:"last_activity"`
	Speech         SpeechState `json:"speech"`
	Subscribers    int         `json:"subscribers"`
}

// GetStats returns current VSS statistics
func (v *VSS) GetStats() Stats {
	return Stats{
		State:          string(v.turns.State()),
		Capture:        v.session.Buffer.State().String(),
		Processing:     v.session.Processing(),
		BufferChunks:   v.session.Buffer.Len(),
		BufferCapacity: v.session.Buffer.Capacity(),
		BufferDropped:  v.session.Buffer.Dropped(),
		HistoryLength:  v.memory.Len(),
		LastActivity:   v.memory.LastActivity(),
		Speech:         v.session.Speech(),
		Subscribers:    v.pub.Subscribers(),
	}
}

func (v *VSS) History() []conversation.Exchange {
	return v.memory.History()
}

// ClearHistory refuses while a turn is in flight, since that turn is
// about to append.
func (v *VSS) ClearHistory() (int, error) {
	if v.session.Processing() {
		return 0, ErrTurnInFlight
	}
	n := v.memory.Clear()
	v.metrics.HistoryCleared()
	v.pub.Publish(xio.EventHistoryCleared, "", map[string]any{"exchanges": n, "reason": "manual"})
	return n, nil
}

// Close waits for an in-flight turn and closes the detector if it holds
// resources.
func (v *VSS) Close(detector stt.VoiceDetector) error {
	v.processor.Wait()
	if c, ok := detector.(interface{ Close() error }); ok {
		if err := c.Close(); err != nil && !errors.Is(err, utils.ErrClosed) {
			v.logger.Errorw("failed to close voice detector", "error", err)
			return err
		}
	}
	v.logger.Infow("VSS closed")
	return nil
}

// StatsFields flattens GetStats for structured logging.
func (v *VSS) StatsFields() []any {
	s := v.GetStats()
	return []any{
		"state", s.State,
		"capture", s.Capture,
		"processing", s.Processing,
		"buffer_chunks", s.BufferChunks,
		"buffer_dropped", s.BufferDropped,
		"history_length", s.HistoryLength,
		"subscribers", s.Subscribers,
	}
}
