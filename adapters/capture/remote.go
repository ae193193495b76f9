package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adiwardana/lyra/domain/entities"
	"github.com/adiwardana/lyra/domain/repositories"
)

// Remote buffers PCM audio pushed by a network client, typically over a
// WebSocket, and finalizes it into a recording just like a local microphone.
// The client is expected to send 16 kHz mono 16-bit little-endian samples.
type Remote struct {
	logger *zap.Logger

	mu        sync.Mutex
	pcm       []byte
	active    bool
	started   time.Time
	lastLevel time.Time
	onLevel   repositories.LevelFunc
}

var _ repositories.CaptureSession = (*Remote)(nil)

// NewRemote creates a capture session fed by Push
func NewRemote(logger *zap.Logger) *Remote {
	return &Remote{logger: logger}
}

// Start begins accepting pushed audio. onLevel may be nil.
func (r *Remote) Start(_ context.Context, onLevel repositories.LevelFunc) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return fmt.Errorf("capture already in progress")
	}

	r.pcm = r.pcm[:0]
	r.active = true
	r.started = time.Now()
	r.lastLevel = time.Time{}
	r.onLevel = onLevel
	return nil
}

// Push appends a chunk of client audio to the in-progress capture.
// Chunks arriving outside a session are dropped.
func (r *Remote) Push(chunk []byte) {
	if len(chunk) == 0 {
		return
	}

	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return
	}
	r.pcm = append(r.pcm, chunk...)
	onLevel := r.onLevel
	emit := onLevel != nil && time.Since(r.lastLevel) >= levelInterval
	if emit {
		r.lastLevel = time.Now()
	}
	r.mu.Unlock()

	if emit {
		onLevel(rmsLevel(chunk))
	}
}

// Stop finalizes the capture and returns the recording
func (r *Remote) Stop(_ context.Context) (*entities.Recording, error) {
	r.mu.Lock()
	if !r.active {
		r.mu.Unlock()
		return nil, nil
	}
	r.active = false
	pcm := r.pcm
	r.pcm = nil
	elapsed := time.Since(r.started)
	r.onLevel = nil
	r.mu.Unlock()

	path := filepath.Join(os.TempDir(), fmt.Sprintf("lyra-%s.wav", uuid.New().String()))
	size, err := writeWAV(path, pcm, captureSampleRate, captureChannels)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("Remote capture finished",
		zap.String("path", path),
		zap.Duration("duration", elapsed),
		zap.Int64("size", size))

	return &entities.Recording{
		Path:     path,
		Duration: elapsed,
		Size:     size,
	}, nil
}

// Cancel discards any in-progress capture
func (r *Remote) Cancel() {
	r.mu.Lock()
	r.active = false
	r.pcm = nil
	r.onLevel = nil
	r.mu.Unlock()
}
