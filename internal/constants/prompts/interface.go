package prompts

import (
	"strings"
	"time"

	"github.com/xpanvictor/parley/pkg/assistant"
)

type PromptDefinition struct {
	Content string
	Version float32
}

type SYS_PROMPT struct {
	Intent         string
	CurrentVersion float32
	Items          map[float32]PromptDefinition // version-content
}

func (sp *SYS_PROMPT) GetVersion(version float32) (PromptDefinition, bool) {
	i, ok := sp.Items[version]
	return i, ok
}

func (sp *SYS_PROMPT) GetCurrentPrompt() PromptDefinition {
	return sp.Items[sp.CurrentVersion]
}

func (pd PromptDefinition) ToMessage() assistant.AssistantMessage {
	return assistant.AssistantMessage{
		MsgRole:   assistant.SYSTEM,
		Content:   pd.Content,
		CreatedAt: time.Now(),
	}
}

// Resolve prefers an operator-supplied prompt over the built-in one.
func Resolve(configured string) PromptDefinition {
	if strings.TrimSpace(configured) != "" {
		return PromptDefinition{Content: configured}
	}
	return DEFAULT_PROMPT.GetCurrentPrompt()
}
