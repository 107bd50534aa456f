package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/parley/internal/config"
	"github.com/xpanvictor/parley/pkg/Logger"
	"github.com/xpanvictor/parley/pkg/io/wav"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.buf.String()
}

func settings(t *testing.T, values map[string]any) *config.Settings {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { os.Chdir(wd) })

	v := viper.New()
	for k, val := range values {
		v.Set(k, val)
	}
	cfg, err := config.LoadWith(v)
	require.NoError(t, err)
	return cfg
}

func llmServer(t *testing.T, answer string) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   "local-model",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": answer},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAskModeAnswersAndSpeaks(t *testing.T) {
	llm := llmServer(t, "A tall stranger brings good news.")
	var synthesized string
	tts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		synthesized = req.Text
		w.Header().Set("Content-Type", "audio/wav")
		w.Write(wav.Encode(make([]byte, 3200), wav.Format{SampleRate: 16000, Channels: 1}))
	}))
	defer tts.Close()

	cfg := settings(t, map[string]any{
		"mode":             config.ModeAsk,
		"question":         "what does my future hold",
		"endpoints.llm":    llm.URL + "/",
		"endpoints.tts":    tts.URL,
		"playback.command": "true",
		"playback.args":    []string{},
	})

	var out syncBuffer
	a, err := NewApp(context.Background(), cfg, Logger.NewNop(), strings.NewReader(""), &out)
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))
	require.NoError(t, a.Close())

	assert.Equal(t, "A tall stranger brings good news.\n", out.String())
	assert.Equal(t, "A tall stranger brings good news.", synthesized)
	history := a.VSS.History()
	require.Len(t, history, 1)
	assert.Equal(t, "what does my future hold", history[0].Question)
}

func TestTranscribeModePrintsTranscript(t *testing.T) {
	stt := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"transcription":" hello world "}`))
	}))
	defer stt.Close()

	cfg := settings(t, map[string]any{
		"mode":               config.ModeTranscribe,
		"endpoints.stt":      stt.URL,
		"audio.chunk_frames": 160,
		"turn.poll_interval": 20 * time.Millisecond,
	})

	var out syncBuffer
	pcm := bytes.NewReader(make([]byte, 3*320))
	a, err := NewApp(context.Background(), cfg, Logger.NewNop(), pcm, &out)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return strings.Contains(out.String(), "hello world") }, 2*time.Second, 10*time.Millisecond)
	cancel()
	assert.NoError(t, <-done)
	assert.NoError(t, a.Close())
	assert.Equal(t, "hello world\n", out.String())
}

func TestFallbackProvidersBuildRouter(t *testing.T) {
	cfg := settings(t, map[string]any{
		"llm.provider":    config.ProviderOpenAI,
		"llm.fallback":    []string{config.ProviderOllama},
		"llm.ollama_urls": []string{"http://127.0.0.1:1"},
	})
	f := NewLLMRouterFactory(cfg, Logger.NewNop())
	a, err := f.CreateAssistant(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, a)
}

func TestGeminiWithoutKeyFails(t *testing.T) {
	cfg := settings(t, map[string]any{"llm.provider": config.ProviderGemini})
	_, err := NewLLMRouterFactory(cfg, Logger.NewNop()).CreateAssistant(context.Background())
	assert.Error(t, err)
}
