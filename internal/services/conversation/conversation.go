package conversation

import (
	"sync"

	"chatgate/internal/domain"
)

// Conversation is the continuity state of one session. It is safe for
// concurrent use, but callers are expected to run one turn at a time.
type Conversation struct {
	mu      sync.Mutex
	history []domain.Message
	handle  domain.ContinuationHandle
	pending *domain.Message
}

// New returns an empty conversation with no continuation handle.
func New() *Conversation { return &Conversation{} }

// RecordUserTurn stages content as the user message of the next turn.
func (c *Conversation) RecordUserTurn(content string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending != nil {
		return domain.ErrTurnInProgress
	}
	c.pending = &domain.Message{Role: domain.RoleUser, Content: content}
	return nil
}

// PrepareRequest returns the backend request for the staged turn: its
// prompt, the last stored continuation handle (empty on the first turn)
// and tools.
func (c *Conversation) PrepareRequest(tools *domain.ToolConfig) (domain.TurnRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return domain.TurnRequest{}, domain.ErrNoPendingTurn
	}
	return domain.TurnRequest{
		Prompt:      c.pending.Content,
		PriorHandle: c.handle,
		Tools:       tools,
	}, nil
}

// RecordAssistantTurn appends the staged user message and the reply to the
// history and replaces the continuation handle, as one step.
func (c *Conversation) RecordAssistantTurn(content string, handle domain.ContinuationHandle) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return domain.ErrNoPendingTurn
	}
	c.history = append(c.history,
		*c.pending,
		domain.Message{Role: domain.RoleAssistant, Content: content},
	)
	c.handle = handle
	c.pending = nil
	return nil
}

// DiscardPendingTurn drops the staged user message, if any.
func (c *Conversation) DiscardPendingTurn() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending = nil
}

// Clear forgets everything, including any staged turn.
func (c *Conversation) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
	c.handle = ""
	c.pending = nil
}

// History returns a copy of the completed turns, oldest first.
func (c *Conversation) History() []domain.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Message, len(c.history))
	copy(out, c.history)
	return out
}

// Handle returns the current continuation handle.
func (c *Conversation) Handle() domain.ContinuationHandle {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handle
}
