package repositories

import (
	"context"

	"github.com/adiwardana/lyra/domain/entities"
)

// Transcriber abstracts speech recognition services.
// Implementations are stateless per call.
type Transcriber interface {
	// Transcribe converts a finished recording to text. A provider that
	// understood no speech returns an empty Transcription, not an error.
	Transcribe(ctx context.Context, rec entities.Recording) (entities.Transcription, error)
}

// AudioConfig describes the audio a Transcriber should expect
type AudioConfig struct {
	SampleRate int    `json:"sample_rate"`
	Encoding   string `json:"encoding"`
	Language   string `json:"language"`
}
