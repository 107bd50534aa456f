package assistant

import (
	"strings"
	"time"

	"github.com/xpanvictor/parley/pkg/utils"
)

func NewAssistantInput(
	msgs []AssistantMessage,
	meta interface{},
) AssistantInput {
	return AssistantInput{
		Msgs: msgs,
		Meta: meta,
	}
}

func NewMessage(role Role, content string) AssistantMessage {
	return AssistantMessage{Content: content, MsgRole: role, CreatedAt: time.Now()}
}

// NewOutput trims the answer and rejects empty completions so callers
// can treat them like any other failure.
func NewOutput(id, provider, content string) (*AssistantOutput, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, utils.XError{Reason: "empty completion", Meta: provider}.ToError()
	}
	return &AssistantOutput{
		Id:       id,
		Provider: provider,
		Response: AssistantMessage{
			Content:   content,
			CreatedAt: time.Now(),
			MsgRole:   ASSISTANT,
		},
	}, nil
}

// Split separates the system prompt from the dialogue turns.
func Split(msgs []AssistantMessage) (system string, turns []AssistantMessage) {
	var sys []string
	for _, m := range msgs {
		if m.MsgRole == SYSTEM {
			sys = append(sys, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return strings.Join(sys, "\n"), turns
}
