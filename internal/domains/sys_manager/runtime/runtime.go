package runtime

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/looplab/fsm"
)

// Evidence is what one orchestrator poll observed.
type Evidence struct {
	HasVoice          bool
	Now               time.Time
	LastVoiceActivity time.Time
	// empty means no new transcript this poll
	Transcript string
	// a turn is already being processed
	Busy bool
}

// Decision is the detector's verdict for one poll.
type Decision struct {
	Started   bool
	EndOfTurn bool
	Question  string
}

type DetectorConfig struct {
	SilenceThreshold    time.Duration
	MinTranscriptLength int
}

// TurnDetector is the idle/speaking machine deciding when a spoken
// question has ended.
//
//	idle -voice-> speaking -end_of_turn-> idle
//
// End of turn needs silence past the threshold, no turn in flight and a
// transcript longer than the minimum. A short transcript keeps waiting.
type TurnDetector struct {
	mu             sync.Mutex
	cfg            DetectorConfig
	StateMachine   *fsm.FSM
	lastTranscript string
}

func NewTurnDetector(cfg DetectorConfig) *TurnDetector {
	return &TurnDetector{
		cfg: cfg,
		StateMachine: fsm.NewFSM(
			string(IDLE),
			fsm.Events{
				{Name: string(VOICE), Src: []string{string(IDLE)}, Dst: string(SPEAKING)},
				{Name: string(END_OF_TURN), Src: []string{string(SPEAKING)}, Dst: string(IDLE)},
				{Name: string(RESET), Src: []string{string(IDLE), string(SPEAKING)}, Dst: string(IDLE)},
			},
			fsm.Callbacks{},
		),
	}
}

func (d *TurnDetector) State() RuntimePhase {
	return RuntimePhase(d.StateMachine.Current())
}

// Speaking is safe to call from any goroutine.
func (d *TurnDetector) Speaking() bool {
	return d.State() == SPEAKING
}

// LastTranscript is the latest non-empty transcript of the current
// speaking period.
func (d *TurnDetector) LastTranscript() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastTranscript
}

func (d *TurnDetector) Step(ctx context.Context, ev Evidence) Decision {
	d.mu.Lock()
	defer d.mu.Unlock()

	var out Decision
	if d.State() == IDLE {
		if !ev.HasVoice {
			return out
		}
		if err := d.StateMachine.Event(ctx, string(VOICE)); err != nil {
			return out
		}
		out.Started = true
	}

	if t := strings.TrimSpace(ev.Transcript); t != "" {
		d.lastTranscript = t
	}

	if ev.HasVoice || d.lastVoiceTooRecent(ev) || ev.Busy {
		return out
	}
	if utf8.RuneCountInString(d.lastTranscript) <= d.cfg.MinTranscriptLength {
		return out
	}
	if err := d.StateMachine.Event(ctx, string(END_OF_TURN)); err == nil {
		out.EndOfTurn = true
		out.Question = d.lastTranscript
		d.lastTranscript = ""
	}
	return out
}

func (d *TurnDetector) lastVoiceTooRecent(ev Evidence) bool {
	if ev.LastVoiceActivity.IsZero() {
		return true
	}
	return ev.Now.Sub(ev.LastVoiceActivity) <= d.cfg.SilenceThreshold
}

// Reset returns to idle and forgets the pending transcript.
func (d *TurnDetector) Reset(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastTranscript = ""
	if d.State() != IDLE {
		d.StateMachine.Event(ctx, string(RESET))
	}
}
