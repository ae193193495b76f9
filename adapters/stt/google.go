package stt

import (
	"context"
	"fmt"
	"os"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"go.uber.org/zap"

	"github.com/adiwardana/lyra/domain/entities"
	"github.com/adiwardana/lyra/domain/repositories"
)

// GoogleTranscriber implements Transcriber using Google Cloud Speech-to-Text
type GoogleTranscriber struct {
	client *speech.Client
	config repositories.AudioConfig
	logger *zap.Logger
}

var _ repositories.Transcriber = (*GoogleTranscriber)(nil)

// NewGoogleTranscriber creates a transcriber backed by a shared speech client.
// Credentials come from the usual Google Cloud environment.
func NewGoogleTranscriber(ctx context.Context, config repositories.AudioConfig, logger *zap.Logger) (*GoogleTranscriber, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}

	if config.SampleRate == 0 {
		config.SampleRate = 16000
	}
	if config.Encoding == "" {
		config.Encoding = "LINEAR16"
	}
	if config.Language == "" {
		config.Language = "en-US"
	}

	return &GoogleTranscriber{
		client: client,
		config: config,
		logger: logger,
	}, nil
}

// Close releases the underlying gRPC client
func (g *GoogleTranscriber) Close() error {
	return g.client.Close()
}

// Transcribe converts a finished recording to text
func (g *GoogleTranscriber) Transcribe(ctx context.Context, rec entities.Recording) (entities.Transcription, error) {
	audio, err := os.ReadFile(rec.Path)
	if err != nil {
		return entities.Transcription{}, fmt.Errorf("failed to read recording: %w", err)
	}

	encoding, err := audioEncoding(g.config.Encoding)
	if err != nil {
		return entities.Transcription{}, err
	}

	resp, err := g.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:              encoding,
			SampleRateHertz:       int32(g.config.SampleRate),
			LanguageCode:          g.config.Language,
			EnableWordTimeOffsets: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	})
	if err != nil {
		return entities.Transcription{}, fmt.Errorf("failed to recognize audio: %w", err)
	}

	var result entities.Transcription
	for _, r := range resp.Results {
		if len(r.Alternatives) == 0 {
			continue
		}
		best := r.Alternatives[0]
		if result.Text != "" {
			result.Text += " "
		}
		result.Text += best.Transcript
		if float64(best.Confidence) > result.Confidence {
			result.Confidence = float64(best.Confidence)
		}
		for _, w := range best.Words {
			result.Words = append(result.Words, entities.Word{
				Text:  w.Word,
				Start: w.StartTime.AsDuration(),
				End:   w.EndTime.AsDuration(),
			})
		}
	}

	g.logger.Debug("Recognized audio",
		zap.Int("audio_bytes", len(audio)),
		zap.Int("words", len(result.Words)),
		zap.Float64("confidence", result.Confidence))

	return result, nil
}

// audioEncoding converts string encoding to the Speech API enum
func audioEncoding(encoding string) (speechpb.RecognitionConfig_AudioEncoding, error) {
	switch encoding {
	case "WAV", "LINEAR16":
		return speechpb.RecognitionConfig_LINEAR16, nil
	case "FLAC":
		return speechpb.RecognitionConfig_FLAC, nil
	case "MULAW":
		return speechpb.RecognitionConfig_MULAW, nil
	case "OGG_OPUS":
		return speechpb.RecognitionConfig_OGG_OPUS, nil
	case "WEBM_OPUS":
		return speechpb.RecognitionConfig_WEBM_OPUS, nil
	default:
		return speechpb.RecognitionConfig_ENCODING_UNSPECIFIED, fmt.Errorf("unsupported encoding: %s", encoding)
	}
}
