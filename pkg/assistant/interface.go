package assistant

import (
	"context"
	"time"
)

type Role string

const (
	USER      Role = "user"
	ASSISTANT Role = "assistant"
	SYSTEM    Role = "system"
)

type AssistantMessage struct {
	Content   string
	CreatedAt time.Time
	MsgRole   Role
}

type AssistantInput struct {
	Msgs []AssistantMessage
	Meta interface{}
}

type AssistantOutput struct {
	Id       string
	Provider string
	Response AssistantMessage
}

// Assistant is the reasoning collaborator: role-tagged messages in,
// answer text out.
type Assistant interface {
	ProcessPrompt(ctx context.Context, input AssistantInput) (*AssistantOutput, error)
}
