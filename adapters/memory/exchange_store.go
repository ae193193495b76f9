package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adiwardana/lyra/domain/entities"
	"github.com/adiwardana/lyra/domain/repositories"
)

// ExchangeStore keeps archived round trips in memory. It backs local
// development and tests where no MongoDB is available.
type ExchangeStore struct {
	mu        sync.RWMutex
	exchanges []entities.Exchange
}

var _ repositories.ExchangeStore = (*ExchangeStore)(nil)

// NewExchangeStore creates an empty in-memory store
func NewExchangeStore() *ExchangeStore {
	return &ExchangeStore{}
}

// Save implements repositories.ExchangeStore
func (s *ExchangeStore) Save(_ context.Context, exchange *entities.Exchange) error {
	if exchange == nil {
		return errors.New("exchange cannot be nil")
	}
	if exchange.ID == "" {
		exchange.ID = uuid.New().String()
	}
	if exchange.CreatedAt.IsZero() {
		exchange.CreatedAt = time.Now()
	}

	s.mu.Lock()
	s.exchanges = append(s.exchanges, *exchange)
	s.mu.Unlock()
	return nil
}

// ListRecent implements repositories.ExchangeStore
func (s *ExchangeStore) ListRecent(_ context.Context, clientID string, limit int) ([]entities.Exchange, error) {
	if clientID == "" {
		return nil, errors.New("client ID cannot be empty")
	}
	if limit <= 0 {
		limit = 20
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	// Newest first
	var result []entities.Exchange
	for i := len(s.exchanges) - 1; i >= 0 && len(result) < limit; i-- {
		if s.exchanges[i].ClientID == clientID {
			result = append(result, s.exchanges[i])
		}
	}
	return result, nil
}
