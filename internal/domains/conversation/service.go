package conversation

import (
	"context"
	"strings"
	"time"

	"github.com/xpanvictor/parley/internal/constants/prompts"
	"github.com/xpanvictor/parley/pkg/Logger"
	"github.com/xpanvictor/parley/pkg/assistant"
)

// Reply is the outcome of one reasoning call. Err is set when the
// apology was substituted for a real answer.
type Reply struct {
	Exchange Exchange
	Apology  bool
	Err      error
	Latency  time.Duration
}

type ConversationService interface {
	Ask(ctx context.Context, question string) Reply
	Repository() ConversationRepository
}

type conversationService struct {
	assistant  assistant.Assistant
	repository ConversationRepository
	system     prompts.PromptDefinition
	apology    string
	timeout    time.Duration
	now        func() time.Time
	logger     *Logger.Logger
}

type Options struct {
	SystemPrompt string
	Apology      string
	// bounds the reasoning call; zero leaves it to the caller's context
	Timeout time.Duration
	Now     func() time.Time
}

func New(a assistant.Assistant, repo ConversationRepository, opts Options, logger *Logger.Logger) ConversationService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Apology == "" {
		opts.Apology = prompts.APOLOGY
	}
	return &conversationService{
		assistant:  a,
		repository: repo,
		system:     prompts.Resolve(opts.SystemPrompt),
		apology:    opts.Apology,
		timeout:    opts.Timeout,
		now:        opts.Now,
		logger:     logger,
	}
}

func (c *conversationService) Repository() ConversationRepository {
	return c.repository
}

// BuildMessages orders the request: system prompt, prior exchanges
// oldest first, then the new question.
func BuildMessages(system prompts.PromptDefinition, history []Exchange, question string) []assistant.AssistantMessage {
	msgs := make([]assistant.AssistantMessage, 0, 2+2*len(history))
	msgs = append(msgs, system.ToMessage())
	for _, ex := range history {
		msgs = append(msgs,
			assistant.AssistantMessage{MsgRole: assistant.USER, Content: ex.Question, CreatedAt: ex.Timestamp},
			assistant.AssistantMessage{MsgRole: assistant.ASSISTANT, Content: ex.Answer, CreatedAt: ex.Timestamp},
		)
	}
	msgs = append(msgs, assistant.NewMessage(assistant.USER, question))
	return msgs
}

// Ask queries the assistant with the current history. Failures and empty
// answers become the apology; the exchange is recorded either way.
func (c *conversationService) Ask(ctx context.Context, question string) Reply {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	msgs := BuildMessages(c.system, c.repository.History(), question)

	start := c.now()
	out, err := c.assistant.ProcessPrompt(ctx, assistant.NewAssistantInput(msgs, nil))
	reply := Reply{Latency: c.now().Sub(start)}

	answer := ""
	if err == nil && out != nil {
		answer = strings.TrimSpace(out.Response.Content)
	}
	if answer == "" {
		if err == nil {
			err = errEmptyAnswer
		}
		c.logger.Warnw("reasoning failed, answering with apology", "error", err)
		answer = c.apology
		reply.Apology = true
		reply.Err = err
	}

	reply.Exchange = Exchange{Question: question, Answer: answer, Timestamp: c.now()}
	c.repository.Append(reply.Exchange)
	return reply
}
