package voicestreamsystem

import (
	"context"
	"time"

	"github.com/xpanvictor/parley/internal/metrics"
	"github.com/xpanvictor/parley/pkg/Logger"
	"github.com/xpanvictor/parley/pkg/io/stt"
	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
)

// VoiceActivityMonitor asks the detector about the recent window and
// timestamps evidence of voice. Failures read as silence.
type VoiceActivityMonitor struct {
	detector stt.VoiceDetector
	session  *SessionState
	metrics  *metrics.Metrics
	logger   *Logger.Logger
	now      func() time.Time
}

func NewVoiceActivityMonitor(d stt.VoiceDetector, session *SessionState, m *metrics.Metrics, logger *Logger.Logger, now func() time.Time) *VoiceActivityMonitor {
	return &VoiceActivityMonitor{detector: d, session: session, metrics: m, logger: logger, now: now}
}

// Poll never reports voice it did not hear; it leaves is_speaking alone
// on silence.
func (m *VoiceActivityMonitor) Poll(ctx context.Context, window audioring.Window) bool {
	if window.Empty() {
		return false
	}

	start := m.now()
	hasVoice, err := m.detector.HasVoice(ctx, window)
	m.metrics.Call(metrics.CollaboratorVAD, m.now().Sub(start), err)
	if err != nil {
		m.logger.Warnw("voice activity check failed, assuming silence", "error", err)
		return false
	}

	if hasVoice {
		m.session.MarkVoice(m.now())
	}
	m.logger.Debugw("vad poll", "has_voice", hasVoice, "window", window.Duration())
	return hasVoice
}
