package stt

import (
	"context"

	"go.uber.org/zap"

	"github.com/adiwardana/lyra/domain/entities"
	"github.com/adiwardana/lyra/domain/repositories"
)

// FallbackTranscriber tries a primary transcriber and falls back to a
// secondary when the primary fails. An empty transcript from the primary is
// trusted as-is; only errors trigger the fallback.
type FallbackTranscriber struct {
	primary   repositories.Transcriber
	secondary repositories.Transcriber
	logger    *zap.Logger
}

var _ repositories.Transcriber = (*FallbackTranscriber)(nil)

// NewFallbackTranscriber creates a transcriber with a backup provider
func NewFallbackTranscriber(primary, secondary repositories.Transcriber, logger *zap.Logger) *FallbackTranscriber {
	return &FallbackTranscriber{
		primary:   primary,
		secondary: secondary,
		logger:    logger,
	}
}

// Transcribe implements repositories.Transcriber
func (f *FallbackTranscriber) Transcribe(ctx context.Context, rec entities.Recording) (entities.Transcription, error) {
	result, err := f.primary.Transcribe(ctx, rec)
	if err == nil {
		return result, nil
	}
	if ctx.Err() != nil {
		return entities.Transcription{}, err
	}

	f.logger.Warn("Primary transcriber failed, trying fallback", zap.Error(err))
	return f.secondary.Transcribe(ctx, rec)
}
