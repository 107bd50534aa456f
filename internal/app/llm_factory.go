package app

import (
	"context"
	"fmt"

	"github.com/xpanvictor/parley/internal/config"
	"github.com/xpanvictor/parley/pkg/Logger"
	"github.com/xpanvictor/parley/pkg/assistant"
	geminiAdapter "github.com/xpanvictor/parley/pkg/assistant/adapters/gemini"
	ollamaAdapter "github.com/xpanvictor/parley/pkg/assistant/adapters/ollama"
	gmp "github.com/xpanvictor/parley/pkg/assistant/providers/gemini"
	olp "github.com/xpanvictor/parley/pkg/assistant/providers/ollama"
	"github.com/xpanvictor/parley/pkg/assistant/router"
)

// LLMRouterFactory builds the reasoning collaborator from settings: the
// configured provider, followed by any fallbacks behind a router.
type LLMRouterFactory struct {
	config *config.Settings
	logger *Logger.Logger
	// released on shutdown
	closers []func() error
}

// NewLLMRouterFactory creates a new LLM router factory
func NewLLMRouterFactory(cfg *config.Settings, logger *Logger.Logger) *LLMRouterFactory {
	return &LLMRouterFactory{config: cfg, logger: logger}
}

// CreateAssistant returns the single provider, or a router when
// fallbacks are configured.
func (f *LLMRouterFactory) CreateAssistant(ctx context.Context) (assistant.Assistant, error) {
	names := append([]string{f.config.LLM.Provider}, f.config.LLM.Fallback...)
	packs := make([]router.AdapterPack, 0, len(names))
	for _, name := range names {
		a, err := f.createAdapter(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s adapter: %w", name, err)
		}
		packs = append(packs, router.AdapterPack{Adapter: a, Name: name})
	}

	if len(packs) == 1 {
		f.logger.Infow("reasoning provider ready", "provider", packs[0].Name, "model", f.config.LLM.Model)
		return packs[0].Adapter, nil
	}
	f.logger.Infow("LLM router created", "providers", names)
	return router.New(packs...), nil
}

func (f *LLMRouterFactory) createAdapter(ctx context.Context, provider string) (assistant.Assistant, error) {
	llm := f.config.LLM
	switch provider {
	case config.ProviderOpenAI:
		return assistant.NewAssistant(assistant.OpenAIConfig{
			BaseURL: f.config.Endpoints.LLM,
			APIKey:  llm.APIKey,
			Model:   llm.Model,
			Timeout: f.config.Timeouts.LLM,
		}), nil
	case config.ProviderOllama:
		if len(llm.OllamaURLs) == 0 {
			return nil, fmt.Errorf("llm.ollama_urls is empty")
		}
		p := olp.New(llm.OllamaURLs, f.logger.Named("ollama"))
		f.logger.Infof("Ollama adapter created for URLs: %v, Model: %s", llm.OllamaURLs, llm.Model)
		return ollamaAdapter.New(p, llm.Model), nil
	case config.ProviderGemini:
		p, err := gmp.New(ctx, llm.APIKey)
		if err != nil {
			return nil, err
		}
		f.closers = append(f.closers, p.Close)
		return geminiAdapter.New(p, llm.Model), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

// Close releases provider clients.
func (f *LLMRouterFactory) Close() {
	for _, c := range f.closers {
		if err := c(); err != nil {
			f.logger.Warnw("failed to close provider", "error", err)
		}
	}
}
