package ollama

import (
	"context"
	"errors"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/parley/pkg/assistant"
)

type fakeChatter struct {
	req    api.ChatRequest
	chunks []string
	err    error
}

func (f *fakeChatter) Chat(ctx context.Context, req api.ChatRequest, fn api.ChatResponseFunc) error {
	f.req = req
	if f.err != nil {
		return f.err
	}
	for i, c := range f.chunks {
		fn(api.ChatResponse{Message: api.Message{Role: "assistant", Content: c}, Done: i == len(f.chunks)-1})
	}
	return nil
}

func TestProcessPromptAccumulatesAnswer(t *testing.T) {
	fc := &fakeChatter{chunks: []string{"Your future ", "is dusty."}}
	a := &ollamaAdapter{op: fc, model: "llama3:8b"}

	out, err := a.ProcessPrompt(context.Background(), assistant.NewAssistantInput([]assistant.AssistantMessage{
		assistant.NewMessage(assistant.SYSTEM, "sys"),
		assistant.NewMessage(assistant.USER, "will it rain?"),
	}, nil))

	require.NoError(t, err)
	assert.Equal(t, "Your future is dusty.", out.Response.Content)
	assert.Equal(t, "llama3:8b", fc.req.Model)
	require.NotNil(t, fc.req.Stream)
	assert.False(t, *fc.req.Stream)
	require.Len(t, fc.req.Messages, 2)
	assert.Equal(t, "system", fc.req.Messages[0].Role)
}

func TestProcessPromptPropagatesError(t *testing.T) {
	a := &ollamaAdapter{op: &fakeChatter{err: errors.New("no server")}, model: "m"}
	_, err := a.ProcessPrompt(context.Background(), assistant.AssistantInput{})
	assert.Error(t, err)
}
