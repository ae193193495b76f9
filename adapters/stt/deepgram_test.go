package stt

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/adiwardana/lyra/domain/entities"
)

func writeTempRecording(t *testing.T, data []byte) entities.Recording {
	t.Helper()
	path := filepath.Join(t.TempDir(), "utterance.wav")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write recording: %v", err)
	}
	return entities.Recording{Path: path, Duration: time.Second, Size: int64(len(data))}
}

func TestNewDeepgramTranscriber(t *testing.T) {
	logger := zaptest.NewLogger(t)

	// Test without API key
	os.Unsetenv("DEEPGRAM_API_KEY")
	config := NewDeepgramConfigFromEnv()
	_, err := NewDeepgramTranscriber(config, logger)
	if err == nil {
		t.Error("Expected error when API key is not set")
	}

	// Test with API key
	os.Setenv("DEEPGRAM_API_KEY", "test-api-key")
	defer os.Unsetenv("DEEPGRAM_API_KEY")

	config = NewDeepgramConfigFromEnv()
	dg, err := NewDeepgramTranscriber(config, logger)
	if err != nil {
		t.Fatalf("Failed to create DeepgramTranscriber: %v", err)
	}

	if dg.apiKey != "test-api-key" {
		t.Errorf("Expected API key 'test-api-key', got '%s'", dg.apiKey)
	}
	if dg.model != defaultDeepgramModel {
		t.Errorf("Expected default model '%s', got '%s'", defaultDeepgramModel, dg.model)
	}
}

func TestDeepgramTranscriber_Transcribe(t *testing.T) {
	logger := zaptest.NewLogger(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token test-api-key" {
			t.Errorf("Unexpected Authorization header: %s", got)
		}
		if got := r.URL.Query().Get("model"); got != "nova-2" {
			t.Errorf("Unexpected model: %s", got)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"results": {
				"channels": [{
					"alternatives": [{
						"transcript": "what's the weather",
						"confidence": 0.97,
						"words": [
							{"word": "what's", "start": 0.1, "end": 0.4, "confidence": 0.98},
							{"word": "the", "start": 0.4, "end": 0.5, "confidence": 0.99},
							{"word": "weather", "start": 0.5, "end": 0.9, "confidence": 0.95}
						]
					}]
				}]
			}
		}`))
	}))
	defer server.Close()

	dg, err := NewDeepgramTranscriber(DeepgramConfig{
		APIKey:     "test-api-key",
		APIBaseURL: server.URL,
	}, logger)
	if err != nil {
		t.Fatalf("Failed to create DeepgramTranscriber: %v", err)
	}

	rec := writeTempRecording(t, []byte("RIFFfakewav"))
	result, err := dg.Transcribe(context.Background(), rec)
	if err != nil {
		t.Fatalf("Transcribe failed: %v", err)
	}

	if result.Text != "what's the weather" {
		t.Errorf("Unexpected transcript: %q", result.Text)
	}
	if result.Confidence != 0.97 {
		t.Errorf("Unexpected confidence: %f", result.Confidence)
	}
	if len(result.Words) != 3 {
		t.Fatalf("Expected 3 words, got %d", len(result.Words))
	}
	if result.Words[0].Start != 100*time.Millisecond {
		t.Errorf("Unexpected first word start: %v", result.Words[0].Start)
	}
}

func TestDeepgramTranscriber_NoSpeech(t *testing.T) {
	logger := zaptest.NewLogger(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results": {"channels": []}}`))
	}))
	defer server.Close()

	dg, err := NewDeepgramTranscriber(DeepgramConfig{
		APIKey:     "test-api-key",
		APIBaseURL: server.URL,
	}, logger)
	if err != nil {
		t.Fatalf("Failed to create DeepgramTranscriber: %v", err)
	}

	rec := writeTempRecording(t, []byte("RIFFsilence"))
	result, err := dg.Transcribe(context.Background(), rec)
	if err != nil {
		t.Fatalf("Silence must not be an error: %v", err)
	}
	if result.Text != "" {
		t.Errorf("Expected empty transcript, got %q", result.Text)
	}
}

func TestDeepgramTranscriber_APIError(t *testing.T) {
	logger := zaptest.NewLogger(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"err_msg": "invalid credentials"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	dg, err := NewDeepgramTranscriber(DeepgramConfig{
		APIKey:     "bad-key",
		APIBaseURL: server.URL,
	}, logger)
	if err != nil {
		t.Fatalf("Failed to create DeepgramTranscriber: %v", err)
	}

	rec := writeTempRecording(t, []byte("RIFFfakewav"))
	if _, err := dg.Transcribe(context.Background(), rec); err == nil {
		t.Error("Expected error for non-200 response")
	}
}

func TestFallbackTranscriber(t *testing.T) {
	logger := zaptest.NewLogger(t)

	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer failing.Close()

	primary, err := NewDeepgramTranscriber(DeepgramConfig{
		APIKey:     "test-api-key",
		APIBaseURL: failing.URL,
	}, logger)
	if err != nil {
		t.Fatalf("Failed to create primary: %v", err)
	}

	secondary := NewMockTranscriber()
	secondary.Text = "fallback transcript"

	fb := NewFallbackTranscriber(primary, secondary, logger)
	rec := writeTempRecording(t, []byte("RIFFfakewav"))

	result, err := fb.Transcribe(context.Background(), rec)
	if err != nil {
		t.Fatalf("Fallback should absorb the primary failure: %v", err)
	}
	if result.Text != "fallback transcript" {
		t.Errorf("Expected fallback transcript, got %q", result.Text)
	}
}
