package usecase

import (
	"sync"
	"time"

	"github.com/adiwardana/lyra/domain/entities"
)

// DefaultHistoryLimit bounds the conversation context replayed to the
// response generator.
const DefaultHistoryLimit = 10

// ConversationHistory is a bounded, ordered log of turns. When a new turn
// would exceed the limit the oldest turn is evicted. It is safe for
// concurrent use.
type ConversationHistory struct {
	mu    sync.Mutex
	limit int
	turns []entities.Turn
}

// NewConversationHistory creates a history bounded to limit turns.
// A non-positive limit falls back to DefaultHistoryLimit.
func NewConversationHistory(limit int) *ConversationHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &ConversationHistory{
		limit: limit,
		turns: make([]entities.Turn, 0, limit),
	}
}

// Add appends a turn, evicting from the front when over the limit
func (h *ConversationHistory) Add(role entities.Role, content string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.turns = append(h.turns, entities.Turn{
		Role:      role,
		Content:   content,
		Timestamp: time.Now(),
	})
	if len(h.turns) > h.limit {
		h.turns = h.turns[len(h.turns)-h.limit:]
	}
}

// History returns the turns oldest-to-newest. The returned slice is a copy,
// so an in-flight request context cannot be mutated by a concurrent Add.
func (h *ConversationHistory) History() []entities.Turn {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]entities.Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Clear removes all turns
func (h *ConversationHistory) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = h.turns[:0]
}

// Len returns the current number of turns
func (h *ConversationHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.turns)
}
