package usecase

import (
	"fmt"
	"testing"

	"github.com/adiwardana/lyra/domain/entities"
)

func TestHistoryBound(t *testing.T) {
	h := NewConversationHistory(4)

	for i := 0; i < 20; i++ {
		h.Add(entities.RoleUser, fmt.Sprintf("message %d", i))
	}

	turns := h.History()
	if len(turns) != 4 {
		t.Fatalf("expected history bounded to 4 turns, got %d", len(turns))
	}

	// Oldest-to-newest, with the oldest entries evicted
	for i, turn := range turns {
		want := fmt.Sprintf("message %d", 16+i)
		if turn.Content != want {
			t.Errorf("turn %d: expected %q, got %q", i, want, turn.Content)
		}
	}
}

func TestHistoryDefaultLimit(t *testing.T) {
	h := NewConversationHistory(0)
	for i := 0; i < DefaultHistoryLimit+5; i++ {
		h.Add(entities.RoleAssistant, "reply")
	}
	if h.Len() != DefaultHistoryLimit {
		t.Errorf("expected default limit %d, got %d", DefaultHistoryLimit, h.Len())
	}
}

func TestHistoryReturnsCopy(t *testing.T) {
	h := NewConversationHistory(10)
	h.Add(entities.RoleUser, "original")

	turns := h.History()
	turns[0].Content = "mutated"

	if got := h.History()[0].Content; got != "original" {
		t.Errorf("mutating the returned slice leaked into history: %q", got)
	}
}

func TestHistoryClear(t *testing.T) {
	h := NewConversationHistory(10)
	h.Add(entities.RoleUser, "hello")
	h.Add(entities.RoleAssistant, "hi")

	h.Clear()

	if h.Len() != 0 {
		t.Errorf("expected empty history after Clear, got %d turns", h.Len())
	}
}

func TestHistoryOrderAlternatingRoles(t *testing.T) {
	h := NewConversationHistory(10)
	h.Add(entities.RoleUser, "question")
	h.Add(entities.RoleAssistant, "answer")

	turns := h.History()
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != entities.RoleUser || turns[1].Role != entities.RoleAssistant {
		t.Errorf("unexpected role order: %s, %s", turns[0].Role, turns[1].Role)
	}
	if turns[0].Timestamp.After(turns[1].Timestamp) {
		t.Error("timestamps should be non-decreasing")
	}
}
