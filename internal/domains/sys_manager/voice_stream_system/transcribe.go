package voicestreamsystem

import (
	"context"
	"time"

	"github.com/xpanvictor/parley/pkg/Logger"
	xio "github.com/xpanvictor/parley/pkg/io"
	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
)

// TranscribeMonitor prints what it hears without ever answering. It
// transcribes the trailing window each interval and reports changes.
type TranscribeMonitor struct {
	buffer      *audioring.RollingBuffer
	transcripts *TranscriptSource
	pub         *xio.Publisher
	logger      *Logger.Logger
	interval    time.Duration
	window      time.Duration
	last        string

	OnTranscript func(text string)
}

func NewTranscribeMonitor(buffer *audioring.RollingBuffer, src *TranscriptSource, pub *xio.Publisher, interval, window time.Duration, logger *Logger.Logger) *TranscribeMonitor {
	return &TranscribeMonitor{
		buffer:      buffer,
		transcripts: src,
		pub:         pub,
		logger:      logger,
		interval:    interval,
		window:      window,
	}
}

func (m *TranscribeMonitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Tick(ctx)
		}
	}
}

// Tick transcribes once; it reports whether the text changed.
func (m *TranscribeMonitor) Tick(ctx context.Context) bool {
	var window audioring.Window
	if m.window > 0 {
		window = m.buffer.SnapshotRecent(m.window)
	} else {
		window = m.buffer.Snapshot()
	}
	text := m.transcripts.Transcribe(ctx, window)
	if text == "" || text == m.last {
		return false
	}
	m.last = text
	m.logger.Infow("transcript", "text", text)
	m.pub.Publish(xio.EventTranscript, "", map[string]any{"text": text})
	if m.OnTranscript != nil {
		m.OnTranscript(text)
	}
	return true
}
