package repositories

import (
	"context"

	"github.com/adiwardana/lyra/domain/entities"
)

// ExchangeStore archives completed round trips. Persistence is an external
// collaborator: the pipeline itself never writes here, the gateway does.
type ExchangeStore interface {
	Save(ctx context.Context, exchange *entities.Exchange) error
	ListRecent(ctx context.Context, clientID string, limit int) ([]entities.Exchange, error)
}
