package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/xpanvictor/parley/internal/constants/prompts"
)

type AudioConfig struct {
	SampleRate       int     `mapstructure:"sample_rate"`
	Channels         int     `mapstructure:"channels"`
	ChunkFrames      int     `mapstructure:"chunk_frames"`
	BufferSeconds    float64 `mapstructure:"buffer_seconds"`
	VADWindowSeconds float64 `mapstructure:"vad_window_seconds"`
	CaptureQueue     int     `mapstructure:"capture_queue"`
}

// VADWindow is the trailing slice of the buffer sent for voice detection.
func (a AudioConfig) VADWindow() time.Duration {
	return time.Duration(a.VADWindowSeconds * float64(time.Second))
}

type TurnConfig struct {
	PollInterval        time.Duration `mapstructure:"poll_interval"`
	VADSilenceThreshold time.Duration `mapstructure:"vad_silence_threshold"`
	MinTranscriptLength int           `mapstructure:"min_transcript_length"`
	TranscriptGrace     time.Duration `mapstructure:"transcript_grace"`
	PausedPollInterval  time.Duration `mapstructure:"paused_poll_interval"`
}

type ConversationConfig struct {
	MaxHistory     int           `mapstructure:"max_history"`
	HistoryTimeout time.Duration `mapstructure:"history_timeout"`
	SystemPrompt   string        `mapstructure:"system_prompt"`
	Apology        string        `mapstructure:"apology"`
}

type EndpointsConfig struct {
	VAD string `mapstructure:"vad"`
	STT string `mapstructure:"stt"`
	LLM string `mapstructure:"llm"`
	TTS string `mapstructure:"tts"`
}

type TimeoutsConfig struct {
	VAD time.Duration `mapstructure:"vad"`
	STT time.Duration `mapstructure:"stt"`
	LLM time.Duration `mapstructure:"llm"`
	TTS time.Duration `mapstructure:"tts"`
}

type LLMConfig struct {
	Provider   string   `mapstructure:"provider"`
	Model      string   `mapstructure:"model"`
	APIKey     string   `mapstructure:"api_key"`
	OllamaURLs []string `mapstructure:"ollama_urls"`
	// providers tried in order after Provider fails
	Fallback []string `mapstructure:"fallback"`
}

type PlaybackConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

type CaptureConfig struct {
	Source string `mapstructure:"source"`
	Device string `mapstructure:"device"`
}

type ServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

type Settings struct {
	Audio        AudioConfig        `mapstructure:"audio"`
	Turn         TurnConfig         `mapstructure:"turn"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Endpoints    EndpointsConfig    `mapstructure:"endpoints"`
	Timeouts     TimeoutsConfig     `mapstructure:"timeouts"`
	LLM          LLMConfig          `mapstructure:"llm"`
	Playback     PlaybackConfig     `mapstructure:"playback"`
	Capture      CaptureConfig      `mapstructure:"capture"`
	Server       ServerConfig       `mapstructure:"server"`
	Mode         string             `mapstructure:"mode"`
	Question     string             `mapstructure:"question"`
	Env          string             `mapstructure:"env"`
	Debug        bool               `mapstructure:"debug"`
}

const (
	ModeListen     = "listen"
	ModeTranscribe = "transcribe"
	ModeAsk        = "ask"

	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"

	SourceStdin     = "stdin"
	SourcePortAudio = "portaudio"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.channels", 1)
	v.SetDefault("audio.chunk_frames", 1024)
	v.SetDefault("audio.buffer_seconds", 20.0)
	v.SetDefault("audio.vad_window_seconds", 1.0)
	v.SetDefault("audio.capture_queue", 64)

	v.SetDefault("turn.poll_interval", 500*time.Millisecond)
	v.SetDefault("turn.vad_silence_threshold", 1500*time.Millisecond)
	v.SetDefault("turn.min_transcript_length", 10)
	v.SetDefault("turn.transcript_grace", 2*time.Second)
	v.SetDefault("turn.paused_poll_interval", 100*time.Millisecond)

	v.SetDefault("conversation.max_history", 10)
	v.SetDefault("conversation.history_timeout", 60*time.Second)
	v.SetDefault("conversation.system_prompt", prompts.DEFAULT_PROMPT.GetCurrentPrompt().Content)
	v.SetDefault("conversation.apology", prompts.APOLOGY)

	v.SetDefault("endpoints.vad", "http://localhost:6004/predict")
	v.SetDefault("endpoints.stt", "http://localhost:6001/predict")
	v.SetDefault("endpoints.llm", "http://localhost:8000/v1/")
	v.SetDefault("endpoints.tts", "http://127.0.0.1:6000/predict")

	v.SetDefault("timeouts.vad", 5*time.Second)
	v.SetDefault("timeouts.stt", 10*time.Second)
	v.SetDefault("timeouts.llm", 30*time.Second)
	v.SetDefault("timeouts.tts", 30*time.Second)

	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.model", "local-model")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.ollama_urls", []string{"http://localhost:11434"})
	v.SetDefault("llm.fallback", []string{})

	v.SetDefault("playback.command", "aplay")
	v.SetDefault("playback.args", []string{"-q"})

	v.SetDefault("capture.source", SourceStdin)
	v.SetDefault("capture.device", "")

	v.SetDefault("server.enabled", false)
	v.SetDefault("server.addr", "127.0.0.1:8090")

	v.SetDefault("mode", ModeListen)
	v.SetDefault("question", "")
	v.SetDefault("debug", false)
}

// Load reads config_<ENV>.yaml from . or ./config when present, then
// applies PARLEY_* environment overrides. Every key has a default so the
// file is optional.
func Load() (*Settings, error) {
	return LoadWith(viper.New())
}

// LoadWith is Load on a caller-supplied viper instance, so flags or
// explicit values can be layered on first.
func LoadWith(v *viper.Viper) (*Settings, error) {
	setDefaults(v)

	v.SetEnvPrefix("PARLEY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	env := genEnv(v)
	v.SetConfigName("config_" + env)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	settings.Env = env

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

func genEnv(v *viper.Viper) string {
	env := v.GetString("ENV")
	if env == "" {
		return "dev"
	}
	return env
}

// Validate rejects settings the orchestrator cannot run with.
func (s *Settings) Validate() error {
	var errs []error
	if s.Audio.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("audio.sample_rate must be positive, got %d", s.Audio.SampleRate))
	}
	if s.Audio.Channels <= 0 {
		errs = append(errs, fmt.Errorf("audio.channels must be positive, got %d", s.Audio.Channels))
	}
	if s.Audio.ChunkFrames <= 0 {
		errs = append(errs, fmt.Errorf("audio.chunk_frames must be positive, got %d", s.Audio.ChunkFrames))
	}
	if s.Audio.BufferSeconds <= 0 {
		errs = append(errs, fmt.Errorf("audio.buffer_seconds must be positive, got %v", s.Audio.BufferSeconds))
	}
	if s.Turn.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("turn.poll_interval must be positive, got %v", s.Turn.PollInterval))
	}
	if s.Conversation.MaxHistory <= 0 {
		errs = append(errs, fmt.Errorf("conversation.max_history must be positive, got %d", s.Conversation.MaxHistory))
	}

	for _, p := range append([]string{s.LLM.Provider}, s.LLM.Fallback...) {
		switch p {
		case ProviderOpenAI, ProviderOllama, ProviderGemini:
		default:
			errs = append(errs, fmt.Errorf("unknown llm provider %q", p))
		}
	}

	switch s.Mode {
	case ModeListen, ModeTranscribe:
	case ModeAsk:
		if strings.TrimSpace(s.Question) == "" {
			errs = append(errs, errors.New("mode ask requires a question"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown mode %q", s.Mode))
	}

	switch s.Capture.Source {
	case SourceStdin, SourcePortAudio:
	default:
		errs = append(errs, fmt.Errorf("unknown capture source %q", s.Capture.Source))
	}

	return errors.Join(errs...)
}
