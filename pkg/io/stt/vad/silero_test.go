package vad

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/parley/pkg/Logger"
	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
	"github.com/xpanvictor/parley/pkg/io/wav"
	"github.com/xpanvictor/parley/pkg/utils"
)

func window(d time.Duration) audioring.Window {
	frames := int(d.Seconds() * 16000)
	return audioring.Window{
		PCM:        make([]byte, frames*2),
		SampleRate: 16000,
		Channels:   1,
		Frames:     frames,
	}
}

func newVAD(url string) *SileroVAD {
	cfg := DefaultVADConfig()
	cfg.ServiceURL = url
	return NewSileroVAD(cfg, Logger.NewNop())
}

func TestDetectVoiceUploadsWAV(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		file, header, err := r.FormFile("content")
		require.NoError(t, err)
		assert.Equal(t, "buffer.wav", header.Filename)
		data, _ := io.ReadAll(file)
		assert.True(t, wav.IsWAV(data))

		json.NewEncoder(w).Encode(map[string]any{"has_voice": true})
	}))
	defer srv.Close()

	got, err := newVAD(srv.URL).HasVoice(context.Background(), window(time.Second))
	require.NoError(t, err)
	assert.True(t, got)
}

func TestDetectVoiceStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	got, err := newVAD(srv.URL).HasVoice(context.Background(), window(time.Second))
	assert.Error(t, err)
	assert.False(t, got)
}

func TestDetectVoiceShortAndEmptyWindows(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	v := newVAD(srv.URL)
	got, err := v.HasVoice(context.Background(), window(20*time.Millisecond))
	require.NoError(t, err)
	assert.False(t, got)

	_, err = v.HasVoice(context.Background(), audioring.Window{})
	assert.ErrorIs(t, err, utils.ErrEmptyAudio)
	assert.Zero(t, calls)
}

func TestDetectVoiceAfterClose(t *testing.T) {
	v := newVAD("http://127.0.0.1:1")
	require.NoError(t, v.Close())
	_, err := v.HasVoice(context.Background(), window(time.Second))
	assert.ErrorIs(t, err, utils.ErrClosed)
}
