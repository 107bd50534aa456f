package ollama

import (
	"context"
	"fmt"

	"github.com/ollama/ollama/api"
	"github.com/presbrey/ollamafarm"
	"github.com/xpanvictor/parley/pkg/Logger"
)

// OllamaProvider spreads chat requests over a farm of ollama servers,
// picking the first one that is online.
type OllamaProvider struct {
	ollamafarm *ollamafarm.Farm
}

func New(urls []string, logger *Logger.Logger) *OllamaProvider {
	farm := ollamafarm.New()

	for _, u := range urls {
		if err := farm.RegisterURL(u, nil); err != nil {
			logger.Warnf("ollama server %s not registered: %v", u, err)
		}
	}

	return &OllamaProvider{
		ollamafarm: farm,
	}
}

func (o *OllamaProvider) Chat(
	ctx context.Context,
	req api.ChatRequest,
	fn api.ChatResponseFunc,
) error {
	ollama := o.ollamafarm.First(&ollamafarm.Where{Offline: false})
	if ollama != nil {
		return ollama.Client().Chat(ctx, &req, fn)
	}
	return fmt.Errorf("no online ollama server for model %v", req.Model)
}
