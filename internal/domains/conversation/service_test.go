package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xpanvictor/parley/internal/constants/prompts"
	"github.com/xpanvictor/parley/pkg/Logger"
	"github.com/xpanvictor/parley/pkg/assistant"
)

type scriptedAssistant struct {
	answer string
	err    error
	block  bool
	seen   []assistant.AssistantMessage
}

func (s *scriptedAssistant) ProcessPrompt(ctx context.Context, in assistant.AssistantInput) (*assistant.AssistantOutput, error) {
	s.seen = in.Msgs
	if s.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &assistant.AssistantOutput{Response: assistant.AssistantMessage{Content: s.answer, MsgRole: assistant.ASSISTANT}}, nil
}

func newService(a assistant.Assistant, mem *Memory, timeout time.Duration) ConversationService {
	return New(a, mem, Options{SystemPrompt: "sys", Timeout: timeout, Now: func() time.Time { return epoch }}, Logger.NewNop())
}

func TestAskBuildsOrderedRequest(t *testing.T) {
	mem := NewMemory(10, time.Minute)
	mem.Append(Exchange{Question: "old q", Answer: "old a", Timestamp: epoch})
	a := &scriptedAssistant{answer: " You will lose your sunglasses. "}

	reply := newService(a, mem, 0).Ask(context.Background(), "what does tomorrow hold")

	assert.False(t, reply.Apology)
	assert.NoError(t, reply.Err)
	assert.Equal(t, "You will lose your sunglasses.", reply.Exchange.Answer)

	require.Len(t, a.seen, 4)
	assert.Equal(t, assistant.SYSTEM, a.seen[0].MsgRole)
	assert.Equal(t, "sys", a.seen[0].Content)
	assert.Equal(t, "old q", a.seen[1].Content)
	assert.Equal(t, assistant.ASSISTANT, a.seen[2].MsgRole)
	assert.Equal(t, "what does tomorrow hold", a.seen[3].Content)

	h := mem.History()
	require.Len(t, h, 2)
	assert.Equal(t, "what does tomorrow hold", h[1].Question)
	assert.Equal(t, epoch, mem.LastActivity())
}

func TestAskTimeoutAppendsApology(t *testing.T) {
	mem := NewMemory(10, time.Minute)
	a := &scriptedAssistant{block: true}

	reply := newService(a, mem, 20*time.Millisecond).Ask(context.Background(), "is anyone out there")

	assert.True(t, reply.Apology)
	assert.ErrorIs(t, reply.Err, context.DeadlineExceeded)
	assert.Equal(t, prompts.APOLOGY, reply.Exchange.Answer)
	require.Len(t, mem.History(), 1)
	assert.Equal(t, prompts.APOLOGY, mem.History()[0].Answer)
}

func TestAskEmptyAnswerIsApology(t *testing.T) {
	mem := NewMemory(10, time.Minute)
	reply := newService(&scriptedAssistant{answer: "  "}, mem, 0).Ask(context.Background(), "hello hello")
	assert.True(t, reply.Apology)
	assert.Error(t, reply.Err)
}

func TestAskErrorIsApology(t *testing.T) {
	mem := NewMemory(10, time.Minute)
	reply := newService(&scriptedAssistant{err: errors.New("connection refused")}, mem, 0).Ask(context.Background(), "hello hello")
	assert.True(t, reply.Apology)
	assert.Equal(t, 1, mem.Len())
}
