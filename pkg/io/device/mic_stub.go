//go:build !portaudio

package device

import (
	"context"
	"errors"

	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
)

var ErrNoPortAudio = errors.New("built without portaudio support (use -tags portaudio)")

// MicSource is unavailable without the portaudio build tag.
type MicSource struct{}

func NewMicSource(format CaptureFormat, deviceName string) *MicSource {
	return &MicSource{}
}

func (m *MicSource) Start(ctx context.Context, sink func(audioring.AudioChunk)) error {
	return ErrNoPortAudio
}

func (m *MicSource) Stop() error {
	return nil
}
