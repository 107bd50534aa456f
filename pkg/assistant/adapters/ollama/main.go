package ollama

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ollama/ollama/api"
	"github.com/xpanvictor/parley/pkg/assistant"
	"github.com/xpanvictor/parley/pkg/assistant/providers/ollama"
)

type chatter interface {
	Chat(ctx context.Context, req api.ChatRequest, fn api.ChatResponseFunc) error
}

type ollamaAdapter struct {
	op    chatter
	model string
}

func ConvertMsgs(msgs []assistant.AssistantMessage) []api.Message {
	converted := make([]api.Message, 0, len(msgs))
	for _, msg := range msgs {
		converted = append(converted, api.Message{
			Role:    string(msg.MsgRole),
			Content: msg.Content,
		})
	}
	return converted
}

// ProcessPrompt implements assistant.Assistant. Streaming is disabled but
// the answer is still accumulated across callbacks in case the server
// splits it.
func (o *ollamaAdapter) ProcessPrompt(ctx context.Context, input assistant.AssistantInput) (*assistant.AssistantOutput, error) {
	stream := false
	req := api.ChatRequest{
		Model:    o.model,
		Messages: ConvertMsgs(input.Msgs),
		Stream:   &stream,
	}

	var answer strings.Builder
	err := o.op.Chat(ctx, req, func(cr api.ChatResponse) error {
		answer.WriteString(cr.Message.Content)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assistant.NewOutput(uuid.NewString(), "ollama", answer.String())
}

func New(provider *ollama.OllamaProvider, model string) assistant.Assistant {
	return &ollamaAdapter{op: provider, model: model}
}
