package memory

import (
	"context"
	"testing"

	"github.com/adiwardana/lyra/domain/entities"
)

func TestExchangeStoreSaveAssignsID(t *testing.T) {
	store := NewExchangeStore()

	ex := &entities.Exchange{ClientID: "client-1", SessionID: "s1"}
	if err := store.Save(context.Background(), ex); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if ex.ID == "" {
		t.Error("expected an assigned ID")
	}
	if ex.CreatedAt.IsZero() {
		t.Error("expected an assigned timestamp")
	}
}

func TestExchangeStoreListRecent(t *testing.T) {
	store := NewExchangeStore()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		ex := &entities.Exchange{
			ClientID: "client-1",
			Response: entities.PipelineResponse{UserTranscript: string(rune('a' + i))},
		}
		if err := store.Save(ctx, ex); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	if err := store.Save(ctx, &entities.Exchange{ClientID: "client-2"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	recent, err := store.ListRecent(ctx, "client-1", 3)
	if err != nil {
		t.Fatalf("ListRecent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 exchanges, got %d", len(recent))
	}
	// Newest first
	if recent[0].Response.UserTranscript != "e" {
		t.Errorf("expected newest exchange first, got %q", recent[0].Response.UserTranscript)
	}
	for _, ex := range recent {
		if ex.ClientID != "client-1" {
			t.Errorf("unexpected client in results: %s", ex.ClientID)
		}
	}
}

func TestExchangeStoreEmptyClientID(t *testing.T) {
	store := NewExchangeStore()
	if _, err := store.ListRecent(context.Background(), "", 10); err == nil {
		t.Error("expected error for empty client ID")
	}
}
