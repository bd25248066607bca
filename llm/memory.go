package llm

import (
	"sync"

	"github.com/aicanalytics/gptmenu/providers"
	"github.com/aicanalytics/gptmenu/utils"
)

type MemoryMessage struct {
	Role    string
	Content string
	Tokens  int
}

// Memory keeps the most recent messages of a conversation within a token
// budget and a message count. Either limit is ignored when zero.
type Memory struct {
	mutex       sync.Mutex
	messages    []MemoryMessage
	totalTokens int
	maxTokens   int
	maxMessages int
	counter     utils.TokenCounter
	logger      utils.Logger
}

func NewMemory(maxTokens, maxMessages int, counter utils.TokenCounter, logger utils.Logger) *Memory {
	if counter == nil {
		counter = utils.EstimatingCounter{}
	}
	return &Memory{
		maxTokens:   maxTokens,
		maxMessages: maxMessages,
		counter:     counter,
		logger:      logger,
	}
}

func (m *Memory) Add(role, content string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	tokens := m.counter.Count(content)
	m.messages = append(m.messages, MemoryMessage{Role: role, Content: content, Tokens: tokens})
	m.totalTokens += tokens

	m.truncate()
	m.logger.Debug("Added message to memory", "role", role, "tokens", tokens, "total_tokens", m.totalTokens)
}

// truncate drops the oldest messages while a limit is exceeded. The newest
// message always survives, even when it alone is over the token budget.
func (m *Memory) truncate() {
	for len(m.messages) > 1 && m.overLimit() {
		removed := m.messages[0]
		m.messages = m.messages[1:]
		m.totalTokens -= removed.Tokens
		m.logger.Debug("Removed message from memory", "role", removed.Role, "tokens", removed.Tokens, "total_tokens", m.totalTokens)
	}
}

func (m *Memory) overLimit() bool {
	if m.maxMessages > 0 && len(m.messages) > m.maxMessages {
		return true
	}
	return m.maxTokens > 0 && m.totalTokens > m.maxTokens
}

// Messages returns the retained messages in the provider shape.
func (m *Memory) Messages() []providers.Message {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	out := make([]providers.Message, len(m.messages))
	for i, msg := range m.messages {
		out[i] = providers.Message{Role: msg.Role, Content: msg.Content}
	}
	return out
}

func (m *Memory) TotalTokens() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.totalTokens
}

func (m *Memory) Len() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.messages)
}

func (m *Memory) Clear() {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.messages = nil
	m.totalTokens = 0
	m.logger.Debug("Cleared memory")
}
