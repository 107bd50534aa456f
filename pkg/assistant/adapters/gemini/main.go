package gemini

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/xpanvictor/parley/pkg/assistant"
	"github.com/xpanvictor/parley/pkg/assistant/providers/gemini"
)

type geminiAdapter struct {
	gp    *gemini.GeminiProvider
	model string
}

func New(provider *gemini.GeminiProvider, model string) assistant.Assistant {
	if model == "" {
		model = "gemini-2.5-flash-lite"
	}
	return &geminiAdapter{gp: provider, model: model}
}

// ProcessPrompt implements assistant.Assistant. The system prompt becomes
// the model's system instruction and prior turns become chat history.
func (g *geminiAdapter) ProcessPrompt(ctx context.Context, input assistant.AssistantInput) (*assistant.AssistantOutput, error) {
	system, turns := assistant.Split(input.Msgs)
	if len(turns) == 0 {
		return nil, fmt.Errorf("gemini: no user message")
	}

	model := g.gp.GetModel(g.model)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := model.StartChat()
	cs.History = ConvertHistory(turns[:len(turns)-1])

	resp, err := cs.SendMessage(ctx, genai.Text(turns[len(turns)-1].Content))
	if err != nil {
		return nil, fmt.Errorf("Gemini chat failed: %w", err)
	}
	return assistant.NewOutput(uuid.NewString(), "gemini", ResponseText(resp))
}

// ConvertHistory maps prior turns onto gemini's user/model roles.
func ConvertHistory(msgs []assistant.AssistantMessage) []*genai.Content {
	history := make([]*genai.Content, 0, len(msgs))
	for _, msg := range msgs {
		role := "user"
		if msg.MsgRole == assistant.ASSISTANT {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}
	return history
}

// ResponseText concatenates the text parts of the first candidate.
func ResponseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var text string
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text += string(txt)
		}
	}
	return text
}
