package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xpanvictor/parley/internal/metrics"
	"github.com/xpanvictor/parley/pkg/Logger"
	xio "github.com/xpanvictor/parley/pkg/io"
	"github.com/xpanvictor/parley/pkg/io/playback"
	"github.com/xpanvictor/parley/pkg/io/tts"
)

// SpeakResult reports how far the answer got. Errors are informational;
// Speak never fails the turn.
type SpeakResult struct {
	Synthesized bool
	Played      bool
	SynthErr    error
	PlayErr     error
}

type Pipeline struct {
	synth   tts.Synthesizer
	player  playback.Player
	pub     *xio.Publisher
	metrics *metrics.Metrics
	logger  *Logger.Logger
	// parent for per-turn temp dirs; "" means os.TempDir
	TempRoot string
	now      func() time.Time
}

func New(synth tts.Synthesizer, player playback.Player, pub *xio.Publisher, m *metrics.Metrics, logger *Logger.Logger) *Pipeline {
	return &Pipeline{
		synth:   synth,
		player:  player,
		pub:     pub,
		metrics: m,
		logger:  logger,
		now:     time.Now,
	}
}

// Speak synthesizes text and plays it from a temp dir that is removed on
// every exit path. A synthesis failure skips playback.
func (p *Pipeline) Speak(ctx context.Context, turnID, text string) (res SpeakResult) {
	start := p.now()
	audio, err := p.synth.Synthesize(ctx, text)
	p.metrics.Call(metrics.CollaboratorTTS, p.now().Sub(start), err)
	if err != nil {
		p.logger.Warnw("synthesis failed, skipping playback", "turn_id", turnID, "error", err)
		res.SynthErr = err
		return res
	}
	res.Synthesized = true

	dir, err := os.MkdirTemp(p.TempRoot, "parley-")
	if err != nil {
		p.logger.Errorw("cannot create temp dir for playback", "turn_id", turnID, "error", err)
		res.PlayErr = err
		return res
	}
	defer func() {
		if rerr := os.RemoveAll(dir); rerr != nil {
			p.logger.Warnw("temp dir not removed", "dir", dir, "error", rerr)
		}
	}()

	path := filepath.Join(dir, fmt.Sprintf("response_%s.wav", p.now().Format("20060102_150405")))
	if err := os.WriteFile(path, audio.Data, 0o600); err != nil {
		p.logger.Errorw("cannot write synthesized audio", "turn_id", turnID, "error", err)
		res.PlayErr = err
		return res
	}

	p.pub.Publish(xio.EventSpeaking, turnID, map[string]any{"bytes": len(audio.Data)})

	start = p.now()
	err = p.player.Play(ctx, path)
	p.metrics.Call(metrics.CollaboratorPlayback, p.now().Sub(start), err)
	if err != nil {
		p.logger.Warnw("playback failed", "turn_id", turnID, "error", err)
		res.PlayErr = err
		return res
	}
	res.Played = true
	return res
}
