package repositories

import (
	"context"

	"github.com/adiwardana/lyra/domain/entities"
)

// ChunkFunc receives response fragments in generation order.
// The concatenation of all fragments equals the final returned text.
type ChunkFunc func(fragment string)

// ResponseGenerator abstracts any chat/LLM provider
type ResponseGenerator interface {
	// Generate produces an assistant reply for prompt given the prior turns
	Generate(ctx context.Context, prompt string, history []entities.Turn) (string, error)

	// GenerateStream behaves like Generate but pushes fragments to onChunk
	// as they arrive. The final text is still returned after the stream
	// closes. onChunk may be nil.
	GenerateStream(ctx context.Context, prompt string, history []entities.Turn, onChunk ChunkFunc) (string, error)
}
