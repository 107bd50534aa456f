package whisper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/parley/pkg/Logger"
	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
	"github.com/xpanvictor/parley/pkg/utils"
)

var oneSecond = audioring.Window{
	PCM:        make([]byte, 32000),
	SampleRate: 16000,
	Channels:   1,
	Frames:     16000,
}

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _, err := r.FormFile("content")
		require.NoError(t, err)
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTranscribeResponseShapes(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"transcription key", `{"transcription": "  what is the meaning of life "}`, "what is the meaning of life"},
		{"text key", `{"text": "hello there", "language": "en"}`, "hello there"},
		{"plain text", "just words\n", "just words"},
		{"empty", `{"transcription": ""}`, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			srv := serve(t, http.StatusOK, c.body)
			out, err := NewWhisperClient(srv.URL, time.Second, Logger.NewNop()).Transcribe(context.Background(), oneSecond)
			require.NoError(t, err)
			assert.Equal(t, c.want, out.Content)
			assert.Equal(t, time.Second, out.AudioDuration)
		})
	}
}

func TestTranscribeServerError(t *testing.T) {
	srv := serve(t, http.StatusInternalServerError, "boom")
	_, err := NewWhisperClient(srv.URL, time.Second, Logger.NewNop()).Transcribe(context.Background(), oneSecond)
	assert.Error(t, err)
}

func TestTranscribeRejectsOversizedBody(t *testing.T) {
	srv := serve(t, http.StatusOK, strings.Repeat("a", maxResponseBytes+10))
	_, err := NewWhisperClient(srv.URL, time.Second, Logger.NewNop()).Transcribe(context.Background(), oneSecond)
	assert.ErrorIs(t, err, ErrResponseTooLarge)
}

func TestTranscribeEmptyWindow(t *testing.T) {
	_, err := NewWhisperClient("http://127.0.0.1:1", time.Second, Logger.NewNop()).Transcribe(context.Background(), audioring.Window{})
	assert.ErrorIs(t, err, utils.ErrEmptyAudio)
}
