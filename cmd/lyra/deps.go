package main

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/adiwardana/lyra/adapters/llm"
	"github.com/adiwardana/lyra/adapters/stt"
	"github.com/adiwardana/lyra/adapters/tts"
	"github.com/adiwardana/lyra/config"
	"github.com/adiwardana/lyra/domain/repositories"
	"github.com/adiwardana/lyra/usecase"
)

// buildTranscriber picks a speech recognizer from the configured credentials.
// Deepgram is preferred; Google Cloud becomes the fallback when both are
// available. Without credentials a mock keeps local development working.
func buildTranscriber(ctx context.Context, cfg *config.Config, logger *zap.Logger) repositories.Transcriber {
	audio := repositories.AudioConfig{
		SampleRate: cfg.Audio.SampleRate,
		Language:   cfg.Audio.Language,
		Encoding:   cfg.Audio.Encoding,
	}

	var google repositories.Transcriber
	if os.Getenv("GOOGLE_APPLICATION_CREDENTIALS") != "" {
		g, err := stt.NewGoogleTranscriber(ctx, audio, logger)
		if err != nil {
			logger.Warn("Google transcriber unavailable", zap.Error(err))
		} else {
			google = g
		}
	}

	if os.Getenv("DEEPGRAM_API_KEY") != "" {
		dg, err := stt.NewDeepgramTranscriber(stt.NewDeepgramConfigFromEnv(), logger)
		if err != nil {
			logger.Warn("Deepgram transcriber unavailable", zap.Error(err))
		} else if google != nil {
			logger.Info("Using Deepgram with Google Cloud fallback")
			return stt.NewFallbackTranscriber(dg, google, logger)
		} else {
			logger.Info("Using Deepgram transcription")
			return dg
		}
	}

	if google != nil {
		logger.Info("Using Google Cloud transcription")
		return google
	}

	logger.Warn("No transcription credentials configured, using mock")
	return stt.NewMockTranscriber()
}

// buildGenerator picks the response generator
func buildGenerator(ctx context.Context, logger *zap.Logger) repositories.ResponseGenerator {
	if os.Getenv("GEMINI_API_KEY") != "" {
		g, err := llm.NewGemini(ctx, llm.NewGeminiConfigFromEnv(), logger)
		if err != nil {
			logger.Warn("Gemini unavailable, using mock", zap.Error(err))
			return llm.NewMockGenerator()
		}
		logger.Info("Using Gemini generation")
		return g
	}

	logger.Warn("GEMINI_API_KEY not configured, using mock generator")
	return llm.NewMockGenerator()
}

// buildVoice picks the speech synthesis backend
func buildVoice(logger *zap.Logger) tts.Voice {
	if os.Getenv("ELEVEN_LABS_API_KEY") != "" {
		v, err := tts.NewElevenLabs(tts.NewElevenLabsConfigFromEnv(), logger)
		if err != nil {
			logger.Warn("Eleven Labs unavailable, using mock voice", zap.Error(err))
			return tts.NewMockVoice()
		}
		logger.Info("Using Eleven Labs synthesis")
		return v
	}

	logger.Warn("ELEVEN_LABS_API_KEY not configured, using mock voice")
	return tts.NewMockVoice()
}

// pipelineConfig maps the loaded configuration to pipeline settings
func pipelineConfig(cfg *config.Config) usecase.Config {
	return usecase.Config{
		MinRecording:  cfg.Pipeline.MinRecording(),
		MaxRecording:  cfg.Pipeline.MaxRecording(),
		ErrorRecovery: cfg.Pipeline.ErrorRecovery(),
		HistoryLimit:  cfg.Pipeline.HistoryLimit,
	}
}
