package tts

import "context"

// Audio is a synthesized utterance ready to be written to disk.
type Audio struct {
	Data        []byte
	ContentType string
}

// Synthesizer turns answer text into audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (Audio, error)
}
