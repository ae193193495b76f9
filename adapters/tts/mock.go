package tts

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/adiwardana/lyra/domain/repositories"
)

// MockVoice returns fake audio bytes for local development without API keys
type MockVoice struct{}

var _ Voice = (*MockVoice)(nil)

// NewMockVoice creates a new mock voice
func NewMockVoice() *MockVoice {
	return &MockVoice{}
}

// Synthesize implements Voice
func (m *MockVoice) Synthesize(_ context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}
	return []byte("mock-audio:" + text), nil
}

// SynthesizeStream implements Voice
func (m *MockVoice) SynthesizeStream(ctx context.Context, text string) (<-chan []byte, error) {
	audio, err := m.Synthesize(ctx, text)
	if err != nil {
		return nil, err
	}
	ch := make(chan []byte, 1)
	ch <- audio
	close(ch)
	return ch, nil
}

// MockSynthesizer resolves every Speak immediately without touching any
// audio device
type MockSynthesizer struct {
	mu    sync.Mutex
	Spoke []string
}

var _ repositories.SpeechSynthesizer = (*MockSynthesizer)(nil)

// NewMockSynthesizer creates a new mock synthesizer
func NewMockSynthesizer() *MockSynthesizer {
	return &MockSynthesizer{}
}

// Speak implements repositories.SpeechSynthesizer
func (m *MockSynthesizer) Speak(_ context.Context, text string, cb repositories.PlaybackCallbacks) {
	m.mu.Lock()
	m.Spoke = append(m.Spoke, text)
	m.mu.Unlock()

	go func() {
		if cb.OnStart != nil {
			cb.OnStart()
		}
		if cb.OnComplete != nil {
			cb.OnComplete()
		}
	}()
}

// Stop implements repositories.SpeechSynthesizer
func (m *MockSynthesizer) Stop() {}
