package voicestreamsystem

import (
	"context"
	"strings"
	"time"

	"github.com/xpanvictor/parley/internal/metrics"
	"github.com/xpanvictor/parley/pkg/Logger"
	"github.com/xpanvictor/parley/pkg/io/stt"
	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
)

// TranscriptSource transcribes the buffered window. Any failure is "no
// new evidence" and yields an empty string.
type TranscriptSource struct {
	transcriber stt.Transcriber
	session     *SessionState
	metrics     *metrics.Metrics
	logger      *Logger.Logger
	now         func() time.Time
}

func NewTranscriptSource(t stt.Transcriber, session *SessionState, m *metrics.Metrics, logger *Logger.Logger, now func() time.Time) *TranscriptSource {
	return &TranscriptSource{transcriber: t, session: session, metrics: m, logger: logger, now: now}
}

func (t *TranscriptSource) Transcribe(ctx context.Context, window audioring.Window) string {
	if window.Empty() {
		return ""
	}

	start := t.now()
	out, err := t.transcriber.Transcribe(ctx, window)
	t.metrics.Call(metrics.CollaboratorSTT, t.now().Sub(start), err)
	if err != nil {
		t.logger.Warnw("transcription failed", "error", err)
		return ""
	}

	text := strings.TrimSpace(out.Content)
	if t.session != nil {
		t.session.RecordTranscript(text, t.now())
	}
	return text
}
