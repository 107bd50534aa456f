package conversation

import (
	"sync"
	"time"
)

// Exchange is one completed question/answer pair.
type Exchange struct {
	Question  string    `json:"question"`
	Answer    string    `json:"answer"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationRepository holds the short-lived dialogue context.
type ConversationRepository interface {
	Append(ex Exchange)
	History() []Exchange
	CheckTimeout(now time.Time) (int, bool)
	Clear() int
	Len() int
	LastActivity() time.Time
}

// Memory is a bounded, time-evicted list of exchanges, oldest first.
// It is process-local and lost on restart.
type Memory struct {
	mu           sync.Mutex
	exchanges    []Exchange
	maxLen       int
	timeout      time.Duration
	lastActivity time.Time
}

func NewMemory(maxLen int, timeout time.Duration) *Memory {
	if maxLen < 1 {
		maxLen = 1
	}
	return &Memory{
		exchanges: make([]Exchange, 0, maxLen),
		maxLen:    maxLen,
		timeout:   timeout,
	}
}

// Append adds an exchange and evicts the oldest ones beyond the bound.
// It is the only operation that advances the activity clock.
func (m *Memory) Append(ex Exchange) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.exchanges = append(m.exchanges, ex)
	if over := len(m.exchanges) - m.maxLen; over > 0 {
		m.exchanges = append(m.exchanges[:0], m.exchanges[over:]...)
	}
	m.lastActivity = ex.Timestamp
}

// History returns a copy, oldest first.
func (m *Memory) History() []Exchange {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Exchange, len(m.exchanges))
	copy(out, m.exchanges)
	return out
}

// CheckTimeout clears everything when nothing was appended for longer
// than the timeout, reporting how many exchanges were dropped.
func (m *Memory) CheckTimeout(now time.Time) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.exchanges) == 0 || m.timeout <= 0 {
		return 0, false
	}
	if now.Sub(m.lastActivity) <= m.timeout {
		return 0, false
	}
	n := len(m.exchanges)
	m.exchanges = m.exchanges[:0]
	return n, true
}

func (m *Memory) Clear() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.exchanges)
	m.exchanges = m.exchanges[:0]
	return n
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.exchanges)
}

func (m *Memory) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActivity
}
