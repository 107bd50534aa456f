package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xpanvictor/parley/internal/config"
	"github.com/xpanvictor/parley/internal/domains/conversation"
	"github.com/xpanvictor/parley/internal/domains/sys_manager"
	"github.com/xpanvictor/parley/internal/domains/sys_manager/pipeline"
	"github.com/xpanvictor/parley/internal/domains/sys_manager/runtime"
	vss "github.com/xpanvictor/parley/internal/domains/sys_manager/voice_stream_system"
	"github.com/xpanvictor/parley/internal/metrics"
	"github.com/xpanvictor/parley/internal/server"
	"github.com/xpanvictor/parley/pkg/Logger"
	xio "github.com/xpanvictor/parley/pkg/io"
	"github.com/xpanvictor/parley/pkg/io/device"
	"github.com/xpanvictor/parley/pkg/io/playback"
	"github.com/xpanvictor/parley/pkg/io/registry"
	memoryregistry "github.com/xpanvictor/parley/pkg/io/registry/memoryRegistry"
	audioring "github.com/xpanvictor/parley/pkg/io/stt/audioRing"
	"github.com/xpanvictor/parley/pkg/io/stt/vad"
	"github.com/xpanvictor/parley/pkg/io/stt/whisper"
	"github.com/xpanvictor/parley/pkg/io/tts/piper"
)

const (
	maxSubscribers  = 16
	eventQueueSize  = 32
	statsLogEvery   = time.Minute
	minVADWindowLen = 100 * time.Millisecond
)

// App represents the application with all its dependencies
type App struct {
	Config    *config.Settings
	Logger    *Logger.Logger
	Metrics   *metrics.Metrics
	Registry  registry.Registry
	Publisher *xio.Publisher
	Buffer    *audioring.RollingBuffer
	VSS       *vss.VSS
	Manager   *sys_manager.SystemManager

	vad         *vad.SileroVAD
	transcriber *whisper.WhisperClient
	llm         *LLMRouterFactory
	stdin       io.Reader
	stdout      io.Writer
}

// NewApp creates a new application instance with all dependencies properly wired
func NewApp(ctx context.Context, cfg *config.Settings, logger *Logger.Logger, stdin io.Reader, stdout io.Writer) (*App, error) {
	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics.New(),
		stdin:   stdin,
		stdout:  stdout,
		Manager: sys_manager.NewSystemManager(logger.Named("system")),
	}
	if err := a.setupDependencies(ctx); err != nil {
		return nil, err
	}
	return a, nil
}

// setupDependencies initializes all application dependencies
func (a *App) setupDependencies(ctx context.Context) error {
	cfg := a.Config

	// 1. event fan-out shared by the loop and the status server
	a.Registry = memoryregistry.New(maxSubscribers)
	a.Publisher = xio.New(a.Registry)

	// 2. rolling buffer sized to hold buffer_seconds of chunks
	format := a.captureFormat()
	maxChunks := audioring.ChunkCapacity(cfg.Audio.BufferSeconds, cfg.Audio.SampleRate, cfg.Audio.ChunkFrames)
	a.Buffer = audioring.NewRollingBuffer(maxChunks, format.ChunkBytes())

	// 3. collaborators
	a.vad = vad.NewSileroVAD(vad.VADConfig{
		ServiceURL: cfg.Endpoints.VAD,
		Timeout:    cfg.Timeouts.VAD,
		MinWindow:  minVADWindowLen,
	}, a.Logger.Named("silero"))
	a.transcriber = whisper.NewWhisperClient(cfg.Endpoints.STT, cfg.Timeouts.STT, a.Logger.Named("whisper"))

	a.llm = NewLLMRouterFactory(cfg, a.Logger.Named("llm"))
	reasoner, err := a.llm.CreateAssistant(ctx)
	if err != nil {
		return err
	}

	speaker := pipeline.New(
		piper.New(cfg.Endpoints.TTS, cfg.Timeouts.TTS),
		playback.NewCommandPlayer(cfg.Playback.Command, cfg.Playback.Args...),
		a.Publisher,
		a.Metrics,
		a.Logger.Named("speech"),
	)

	// 4. conversation memory and the loop
	memory := conversation.NewMemory(cfg.Conversation.MaxHistory, cfg.Conversation.HistoryTimeout)
	convo := conversation.New(reasoner, memory, conversation.Options{
		SystemPrompt: cfg.Conversation.SystemPrompt,
		Apology:      cfg.Conversation.Apology,
		Timeout:      cfg.Timeouts.LLM,
	}, a.Logger.Named("conversation"))

	a.VSS = vss.NewVSS(vss.VSSConfig{
		PollInterval:       cfg.Turn.PollInterval,
		PausedPollInterval: cfg.Turn.PausedPollInterval,
		VADWindow:          cfg.Audio.VADWindow(),
		TranscriptGrace:    cfg.Turn.TranscriptGrace,
		CaptureQueue:       cfg.Audio.CaptureQueue,
	}, vss.Deps{
		Buffer:       a.Buffer,
		Detector:     a.vad,
		Transcriber:  a.transcriber,
		Conversation: convo,
		Speaker:      speaker,
		Turns: runtime.NewTurnDetector(runtime.DetectorConfig{
			SilenceThreshold:    cfg.Turn.VADSilenceThreshold,
			MinTranscriptLength: cfg.Turn.MinTranscriptLength,
		}),
		Publisher: a.Publisher,
		Metrics:   a.Metrics,
	}, a.Logger.Named("vss"))

	a.Metrics.RegisterGauge("buffer_chunks", "Chunks currently held in the rolling buffer.", func() float64 {
		return float64(a.Buffer.Len())
	})
	a.Metrics.RegisterGauge("event_subscribers", "Attached turn event subscribers.", func() float64 {
		return float64(a.Registry.Len())
	})
	return nil
}

func (a *App) captureFormat() device.CaptureFormat {
	return device.CaptureFormat{
		SampleRate:  a.Config.Audio.SampleRate,
		Channels:    a.Config.Audio.Channels,
		ChunkFrames: a.Config.Audio.ChunkFrames,
	}
}

func (a *App) captureSource() device.Source {
	if a.Config.Capture.Source == config.SourcePortAudio {
		return device.NewMicSource(a.captureFormat(), a.Config.Capture.Device)
	}
	return device.NewStreamSource(a.stdin, a.captureFormat())
}

// Run executes the configured mode until ctx ends or the mode finishes.
func (a *App) Run(ctx context.Context) error {
	switch a.Config.Mode {
	case config.ModeAsk:
		return a.runAsk(ctx)
	case config.ModeTranscribe:
		return a.runTranscribe(ctx)
	default:
		return a.runListen(ctx)
	}
}

// runListen is the full orchestrator.
func (a *App) runListen(ctx context.Context) error {
	a.registerCapture()
	a.Manager.Register(sys_manager.ComponentFunc{ComponentName: "vss", Fn: a.VSS.Run})
	a.Manager.RegisterTask(sys_manager.NewStatsLoggerTask(a.VSS, a.Logger.Named("stats"), statsLogEvery))
	a.registerServer()
	return a.supervise(ctx)
}

// runTranscribe prints what is heard without answering.
func (a *App) runTranscribe(ctx context.Context) error {
	a.registerCapture()
	src := vss.NewTranscriptSource(a.transcriber, nil, a.Metrics, a.Logger.Named("stt"), time.Now)
	mon := vss.NewTranscribeMonitor(a.Buffer, src, a.Publisher, a.Config.Turn.PollInterval, 0, a.Logger.Named("transcribe"))
	mon.OnTranscript = func(text string) {
		fmt.Fprintln(a.stdout, text)
	}
	a.Manager.Register(sys_manager.ComponentFunc{ComponentName: "transcribe", Fn: mon.Run})
	a.registerServer()
	return a.supervise(ctx)
}

// runAsk voices a single answer and returns.
func (a *App) runAsk(ctx context.Context) error {
	res, ok := a.VSS.Processor().Process(ctx, a.Config.Question)
	if !ok {
		return vss.ErrTurnInFlight
	}
	fmt.Fprintln(a.stdout, res.Reply.Exchange.Answer)
	if res.Reply.Err != nil {
		a.Logger.Warnw("answered with apology", "error", res.Reply.Err)
	}
	return nil
}

func (a *App) registerCapture() {
	source := a.captureSource()
	a.Manager.Register(sys_manager.ComponentFunc{ComponentName: "capture", Fn: func(ctx context.Context) error {
		go func() {
			<-ctx.Done()
			source.Stop()
		}()
		if err := source.Start(ctx, func(c audioring.AudioChunk) { a.VSS.Ingest(c) }); err != nil {
			return err
		}
		a.Logger.Infow("capture ended")
		return nil
	}})
	a.Manager.Register(sys_manager.ComponentFunc{ComponentName: "capture-pump", Fn: a.VSS.RunCapturePump})
}

func (a *App) registerServer() {
	if !a.Config.Server.Enabled {
		return
	}
	router := server.NewRouter(a.Config.Debug, server.Dependencies{
		Loop:       a.VSS,
		Registry:   a.Registry,
		Metrics:    a.Metrics,
		Logger:     a.Logger.Named("http"),
		EventQueue: eventQueueSize,
	})
	a.Manager.Register(server.New(a.Config.Server.Addr, router, a.Logger.Named("http")))
}

func (a *App) supervise(ctx context.Context) error {
	if err := a.Manager.Start(ctx); err != nil {
		return err
	}
	return a.Manager.Wait()
}

// Close releases collaborator clients after Run returns.
func (a *App) Close() error {
	a.llm.Close()
	return a.VSS.Close(a.vad)
}
