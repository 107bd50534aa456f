package gemini

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/parley/pkg/assistant"
)

func TestConvertHistoryRoles(t *testing.T) {
	h := ConvertHistory([]assistant.AssistantMessage{
		assistant.NewMessage(assistant.USER, "q1"),
		assistant.NewMessage(assistant.ASSISTANT, "a1"),
	})
	require.Len(t, h, 2)
	assert.Equal(t, "user", h[0].Role)
	assert.Equal(t, "model", h[1].Role)
	assert.Equal(t, genai.Text("a1"), h[1].Parts[0])
}

func TestResponseText(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []genai.Part{genai.Text("Beware "), genai.Text("of playa dust.")}},
		}},
	}
	assert.Equal(t, "Beware of playa dust.", ResponseText(resp))
	assert.Empty(t, ResponseText(nil))
	assert.Empty(t, ResponseText(&genai.GenerateContentResponse{}))
}
