package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/adiwardana/lyra/domain/entities"
	"github.com/adiwardana/lyra/domain/repositories"
)

// Mock produces a short silent recording without touching any audio device
type Mock struct {
	mu      sync.Mutex
	active  bool
	started time.Time
}

var _ repositories.CaptureSession = (*Mock)(nil)

// NewMock creates a new mock capture session
func NewMock() *Mock {
	return &Mock{}
}

// Start implements repositories.CaptureSession
func (m *Mock) Start(_ context.Context, onLevel repositories.LevelFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active {
		return fmt.Errorf("capture already in progress")
	}
	m.active = true
	m.started = time.Now()
	if onLevel != nil {
		onLevel(0.5)
	}
	return nil
}

// Stop implements repositories.CaptureSession
func (m *Mock) Stop(context.Context) (*entities.Recording, error) {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return nil, nil
	}
	m.active = false
	elapsed := time.Since(m.started)
	m.mu.Unlock()

	// One second of 16 kHz mono silence
	pcm := make([]byte, captureSampleRate*2)
	path := filepath.Join(os.TempDir(), fmt.Sprintf("lyra-mock-%s.wav", uuid.New().String()))
	size, err := writeWAV(path, pcm, captureSampleRate, captureChannels)
	if err != nil {
		return nil, err
	}

	return &entities.Recording{Path: path, Duration: elapsed, Size: size}, nil
}

// Cancel implements repositories.CaptureSession
func (m *Mock) Cancel() {
	m.mu.Lock()
	m.active = false
	m.mu.Unlock()
}
