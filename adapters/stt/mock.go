package stt

import (
	"context"

	"github.com/adiwardana/lyra/domain/entities"
	"github.com/adiwardana/lyra/domain/repositories"
)

// MockTranscriber returns a fixed transcript for local development
type MockTranscriber struct {
	Text string
}

var _ repositories.Transcriber = (*MockTranscriber)(nil)

// NewMockTranscriber creates a new mock transcriber
func NewMockTranscriber() *MockTranscriber {
	return &MockTranscriber{Text: "Hello, can you hear me?"}
}

// Transcribe implements repositories.Transcriber
func (m *MockTranscriber) Transcribe(context.Context, entities.Recording) (entities.Transcription, error) {
	return entities.Transcription{Text: m.Text, Confidence: 1.0}, nil
}
