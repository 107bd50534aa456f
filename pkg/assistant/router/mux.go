package router

import (
	"context"
	"errors"
	"fmt"

	"github.com/xpanvictor/parley/pkg/assistant"
	"github.com/xpanvictor/parley/pkg/utils"
)

func New(packs ...AdapterPack) *Mux {
	return &Mux{Packs: packs}
}

// ProcessPrompt implements assistant.Assistant. Each adapter gets the
// remaining context budget; the first success wins.
func (m *Mux) ProcessPrompt(ctx context.Context, input assistant.AssistantInput) (*assistant.AssistantOutput, error) {
	if len(m.Packs) == 0 {
		return nil, utils.ErrNoBackend
	}
	var errs []error
	for _, p := range m.Packs {
		out, err := p.Adapter.ProcessPrompt(ctx, input)
		if err == nil {
			return out, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name, err))
		if ctx.Err() != nil {
			break
		}
	}
	return nil, errors.Join(errs...)
}
