package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/adiwardana/lyra/domain/entities"
	"github.com/adiwardana/lyra/domain/repositories"
)

const (
	defaultDeepgramBaseURL = "https://api.deepgram.com/v1"
	defaultDeepgramModel   = "nova-2"
	defaultDeepgramTimeout = 30 * time.Second
)

// DeepgramConfig holds configuration for the Deepgram transcriber
// Required fields:
// - APIKey: Your Deepgram API key
// Optional fields with defaults:
// - APIBaseURL: The base URL for the Deepgram API (default: "https://api.deepgram.com/v1")
// - Model: The recognition model (default: "nova-2")
// - Language: BCP-47 language tag (default: "en")
type DeepgramConfig struct {
	APIKey     string
	APIBaseURL string
	Model      string
	Language   string
}

// ValidateDeepgramConfig validates the DeepgramConfig
func ValidateDeepgramConfig(config DeepgramConfig) error {
	if config.APIKey == "" {
		return fmt.Errorf("deepgram API key is required")
	}
	return nil
}

// NewDeepgramConfigFromEnv creates a new DeepgramConfig from environment variables
func NewDeepgramConfigFromEnv() DeepgramConfig {
	return DeepgramConfig{
		APIKey:     os.Getenv("DEEPGRAM_API_KEY"),
		APIBaseURL: os.Getenv("DEEPGRAM_API_BASE_URL"),
		Model:      os.Getenv("DEEPGRAM_MODEL"),
		Language:   os.Getenv("DEEPGRAM_LANGUAGE"),
	}
}

// DeepgramTranscriber implements Transcriber using Deepgram's prerecorded API
type DeepgramTranscriber struct {
	apiKey     string
	apiBaseURL string
	model      string
	language   string
	httpClient *http.Client
	logger     *zap.Logger
}

var _ repositories.Transcriber = (*DeepgramTranscriber)(nil)

// NewDeepgramTranscriber creates a new Deepgram transcriber instance
func NewDeepgramTranscriber(config DeepgramConfig, logger *zap.Logger) (*DeepgramTranscriber, error) {
	if err := ValidateDeepgramConfig(config); err != nil {
		return nil, err
	}

	apiBaseURL := config.APIBaseURL
	if apiBaseURL == "" {
		apiBaseURL = defaultDeepgramBaseURL
	}

	model := config.Model
	if model == "" {
		model = defaultDeepgramModel
		logger.Info("Using default model", zap.String("model", model))
	}

	language := config.Language
	if language == "" {
		language = "en"
	}

	return &DeepgramTranscriber{
		apiKey:     config.APIKey,
		apiBaseURL: apiBaseURL,
		model:      model,
		language:   language,
		httpClient: &http.Client{Timeout: defaultDeepgramTimeout},
		logger:     logger,
	}, nil
}

// deepgramResponse mirrors the subset of the prerecorded response we consume
type deepgramResponse struct {
	Results struct {
		Channels []struct {
			Alternatives []struct {
				Transcript string  `json:"transcript"`
				Confidence float64 `json:"confidence"`
				Words      []struct {
					Word       string  `json:"word"`
					Start      float64 `json:"start"`
					End        float64 `json:"end"`
					Confidence float64 `json:"confidence"`
				} `json:"words"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe converts a finished recording to text
func (d *DeepgramTranscriber) Transcribe(ctx context.Context, rec entities.Recording) (entities.Transcription, error) {
	audio, err := os.ReadFile(rec.Path)
	if err != nil {
		return entities.Transcription{}, fmt.Errorf("failed to read recording: %w", err)
	}

	query := url.Values{}
	query.Set("model", d.model)
	query.Set("language", d.language)
	query.Set("smart_format", "true")
	endpoint := fmt.Sprintf("%s/listen?%s", d.apiBaseURL, query.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(audio))
	if err != nil {
		return entities.Transcription{}, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Token "+d.apiKey)
	httpReq.Header.Set("Content-Type", "audio/wav")

	resp, err := d.httpClient.Do(httpReq)
	if err != nil {
		return entities.Transcription{}, fmt.Errorf("failed to execute HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errorBody, _ := io.ReadAll(resp.Body)
		return entities.Transcription{}, fmt.Errorf("deepgram API returned %d: %s", resp.StatusCode, string(errorBody))
	}

	var decoded deepgramResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return entities.Transcription{}, fmt.Errorf("failed to decode response: %w", err)
	}

	if len(decoded.Results.Channels) == 0 || len(decoded.Results.Channels[0].Alternatives) == 0 {
		// No speech detected; an empty transcription is a valid outcome
		return entities.Transcription{}, nil
	}

	best := decoded.Results.Channels[0].Alternatives[0]
	result := entities.Transcription{
		Text:       best.Transcript,
		Confidence: best.Confidence,
	}
	for _, w := range best.Words {
		result.Words = append(result.Words, entities.Word{
			Text:       w.Word,
			Start:      time.Duration(w.Start * float64(time.Second)),
			End:        time.Duration(w.End * float64(time.Second)),
			Confidence: w.Confidence,
		})
	}

	d.logger.Debug("Transcribed audio",
		zap.Int("audio_bytes", len(audio)),
		zap.Int("words", len(result.Words)),
		zap.Float64("confidence", result.Confidence))

	return result, nil
}
