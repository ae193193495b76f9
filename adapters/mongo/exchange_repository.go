package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adiwardana/lyra/domain/entities"
	"github.com/adiwardana/lyra/domain/repositories"
)

// ExchangeRepository persists completed round trips to the exchanges collection
type ExchangeRepository struct {
	collection *mongo.Collection
}

var _ repositories.ExchangeStore = (*ExchangeRepository)(nil)

// NewExchangeRepository creates a new MongoDB exchange repository
func NewExchangeRepository(db *mongo.Database) *ExchangeRepository {
	return &ExchangeRepository{
		collection: db.Collection("exchanges"),
	}
}

// Save implements repositories.ExchangeStore
func (r *ExchangeRepository) Save(ctx context.Context, exchange *entities.Exchange) error {
	if exchange == nil {
		return errors.New("exchange cannot be nil")
	}
	if exchange.CreatedAt.IsZero() {
		exchange.CreatedAt = time.Now()
	}

	doc := bson.M{
		"client_id":  exchange.ClientID,
		"session_id": exchange.SessionID,
		"response":   exchange.Response,
		"created_at": exchange.CreatedAt,
	}

	result, err := r.collection.InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("failed to save exchange: %w", err)
	}

	if oid, ok := result.InsertedID.(primitive.ObjectID); ok {
		exchange.ID = oid.Hex()
	}
	return nil
}

// ListRecent implements repositories.ExchangeStore
func (r *ExchangeRepository) ListRecent(ctx context.Context, clientID string, limit int) ([]entities.Exchange, error) {
	if clientID == "" {
		return nil, errors.New("client ID cannot be empty")
	}
	if limit <= 0 {
		limit = 20
	}

	filter := bson.M{"client_id": clientID}
	opts := options.Find().
		SetSort(bson.M{"created_at": -1}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list exchanges for client %s: %w", clientID, err)
	}
	defer cursor.Close(ctx)

	// Internal shape so the ObjectID decodes before conversion to hex
	var docs []struct {
		ID        primitive.ObjectID        `bson:"_id"`
		ClientID  string                    `bson:"client_id"`
		SessionID string                    `bson:"session_id"`
		Response  entities.PipelineResponse `bson:"response"`
		CreatedAt time.Time                 `bson:"created_at"`
	}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode exchanges: %w", err)
	}

	exchanges := make([]entities.Exchange, 0, len(docs))
	for _, d := range docs {
		exchanges = append(exchanges, entities.Exchange{
			ID:        d.ID.Hex(),
			ClientID:  d.ClientID,
			SessionID: d.SessionID,
			Response:  d.Response,
			CreatedAt: d.CreatedAt,
		})
	}
	return exchanges, nil
}
