package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/adiwardana/lyra/domain/entities"
	"github.com/adiwardana/lyra/domain/repositories"
)

// MockGenerator is a canned ResponseGenerator for local development
// when no API key is configured
type MockGenerator struct{}

var _ repositories.ResponseGenerator = (*MockGenerator)(nil)

// NewMockGenerator creates a new mock generator
func NewMockGenerator() *MockGenerator {
	return &MockGenerator{}
}

// Generate implements repositories.ResponseGenerator
func (m *MockGenerator) Generate(_ context.Context, prompt string, history []entities.Turn) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "I didn't catch that. Could you say it again?", nil
	}
	if len(history) == 0 {
		return fmt.Sprintf("Hi, I'm Lyra. You said: %s", prompt), nil
	}
	return fmt.Sprintf("You said: %s", prompt), nil
}

// GenerateStream implements repositories.ResponseGenerator
func (m *MockGenerator) GenerateStream(ctx context.Context, prompt string, history []entities.Turn, onChunk repositories.ChunkFunc) (string, error) {
	full, err := m.Generate(ctx, prompt, history)
	if err != nil {
		return "", err
	}

	// Emit word by word so streaming consumers have something to render
	words := strings.SplitAfter(full, " ")
	for _, w := range words {
		if onChunk != nil {
			onChunk(w)
		}
	}
	return full, nil
}
