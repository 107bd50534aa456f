package stt

import (
	"context"
	"time"

	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
)

type STTOutput struct {
	Content        string
	Language       string
	STTGeneratedAt time.Time
	AudioDuration  time.Duration
}

// Transcriber turns a window of buffered audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, window audioring.Window) (STTOutput, error)
}

// VoiceDetector reports whether a window contains speech.
type VoiceDetector interface {
	HasVoice(ctx context.Context, window audioring.Window) (bool, error)
}
