package piper

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/xpanvictor/parley/pkg/io/tts"
	"github.com/xpanvictor/parley/pkg/io/wav"
	"github.com/xpanvictor/parley/pkg/utils"
)

type Piper struct {
	BaseURL string        // full synthesis endpoint, e.g. "http://127.0.0.1:6000/predict"
	Client  *http.Client  // inject; default if nil
	Timeout time.Duration // per request
}

func New(bu string, timeout time.Duration) *Piper {
	return &Piper{BaseURL: bu, Timeout: timeout}
}

type synthRequest struct {
	Text string `json:"text"`
}

// jsonAudio is the alternative response shape carrying base64 audio.
type jsonAudio struct {
	AudioContent string `json:"audio_content"`
	ContentType  string `json:"content_type"`
}

// Synthesize implements tts.Synthesizer. The service answers either with
// raw WAV bytes or a JSON envelope; both are accepted.
func (p *Piper) Synthesize(ctx context.Context, text string) (tts.Audio, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return tts.Audio{}, utils.ErrEmptyText
	}

	payload, err := json.Marshal(synthRequest{Text: text})
	if err != nil {
		return tts.Audio{}, err
	}

	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx2, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx2, http.MethodPost, p.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return tts.Audio{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	hc := p.Client
	if hc == nil {
		hc = http.DefaultClient
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		return tts.Audio{}, fmt.Errorf("tts http request failed: %w (url=%s)", err, p.BaseURL)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return tts.Audio{}, fmt.Errorf("failed to read tts body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return tts.Audio{}, fmt.Errorf("tts http %d: %s (url=%s, dur=%s)", resp.StatusCode, string(body), p.BaseURL, time.Since(start))
	}

	return decodeAudio(body, resp.Header.Get("Content-Type"))
}

func decodeAudio(body []byte, ct string) (tts.Audio, error) {
	if wav.IsWAV(body) {
		return tts.Audio{Data: body, ContentType: ifEmpty(ct, "audio/wav")}, nil
	}

	var env jsonAudio
	if err := json.Unmarshal(body, &env); err != nil || env.AudioContent == "" {
		return tts.Audio{}, utils.XError{Reason: "tts response is neither wav nor json audio", Meta: ct}.ToError()
	}
	data, err := base64.StdEncoding.DecodeString(env.AudioContent)
	if err != nil {
		return tts.Audio{}, fmt.Errorf("failed to decode audio_content: %w", err)
	}
	if len(data) == 0 {
		return tts.Audio{}, utils.ErrEmptyAudio
	}
	return tts.Audio{Data: data, ContentType: ifEmpty(env.ContentType, "audio/wav")}, nil
}

func ifEmpty(s, d string) string {
	if s == "" {
		return d
	}
	return s
}
