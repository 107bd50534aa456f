package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/parley/internal/constants/prompts"
)

func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	inTempDir(t)

	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 16000, s.Audio.SampleRate)
	assert.Equal(t, 1, s.Audio.Channels)
	assert.Equal(t, 1024, s.Audio.ChunkFrames)
	assert.Equal(t, 20.0, s.Audio.BufferSeconds)
	assert.Equal(t, time.Second, s.Audio.VADWindow())
	assert.Equal(t, 1500*time.Millisecond, s.Turn.VADSilenceThreshold)
	assert.Equal(t, 10, s.Turn.MinTranscriptLength)
	assert.Equal(t, 10, s.Conversation.MaxHistory)
	assert.Equal(t, time.Minute, s.Conversation.HistoryTimeout)
	assert.Equal(t, prompts.DEFAULT_PROMPT.GetCurrentPrompt().Content, s.Conversation.SystemPrompt)
	assert.Equal(t, prompts.APOLOGY, s.Conversation.Apology)
	assert.Equal(t, 5*time.Second, s.Timeouts.VAD)
	assert.Equal(t, ModeListen, s.Mode)
	assert.Equal(t, "dev", s.Env)
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := inTempDir(t)
	yaml := []byte(`
audio:
  sample_rate: 8000
turn:
  vad_silence_threshold: 1s
conversation:
  max_history: 3
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config_dev.yaml"), yaml, 0o644))
	t.Setenv("PARLEY_CONVERSATION_MAX_HISTORY", "5")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8000, s.Audio.SampleRate)
	assert.Equal(t, time.Second, s.Turn.VADSilenceThreshold)
	assert.Equal(t, 5, s.Conversation.MaxHistory)
}

func TestLoadWithExplicitValues(t *testing.T) {
	inTempDir(t)
	v := viper.New()
	v.Set("mode", ModeAsk)
	v.Set("question", "will I find my bike?")

	s, err := LoadWith(v)
	require.NoError(t, err)
	assert.Equal(t, ModeAsk, s.Mode)
}

func TestValidate(t *testing.T) {
	inTempDir(t)
	base, err := Load()
	require.NoError(t, err)

	cases := map[string]func(s *Settings){
		"sample rate":   func(s *Settings) { s.Audio.SampleRate = 0 },
		"chunk frames":  func(s *Settings) { s.Audio.ChunkFrames = -1 },
		"buffer":        func(s *Settings) { s.Audio.BufferSeconds = 0 },
		"history":       func(s *Settings) { s.Conversation.MaxHistory = 0 },
		"provider":      func(s *Settings) { s.LLM.Provider = "claude-on-a-toaster" },
		"fallback":      func(s *Settings) { s.LLM.Fallback = []string{"nope"} },
		"mode":          func(s *Settings) { s.Mode = "dance" },
		"ask question":  func(s *Settings) { s.Mode = ModeAsk; s.Question = " " },
		"capture":       func(s *Settings) { s.Capture.Source = "telepathy" },
		"poll interval": func(s *Settings) { s.Turn.PollInterval = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			s := *base
			mutate(&s)
			assert.Error(t, s.Validate())
		})
	}
	assert.NoError(t, base.Validate())
}
