package capture

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adiwardana/lyra/domain/entities"
	"github.com/adiwardana/lyra/domain/repositories"
)

const (
	captureSampleRate = 16000
	captureChannels   = 1
	levelInterval     = 100 * time.Millisecond
)

// Microphone records utterances from the default capture device.
// One session records at a time; Start while active is an error.
type Microphone struct {
	logger *zap.Logger

	mu      sync.Mutex
	ctx     *malgo.AllocatedContext
	device  *malgo.Device
	pcm     []byte
	level   float64
	active  bool
	started time.Time
	stopLvl chan struct{}
}

var _ repositories.CaptureSession = (*Microphone)(nil)

// NewMicrophone creates a microphone capture session
func NewMicrophone(logger *zap.Logger) *Microphone {
	return &Microphone{logger: logger}
}

// Start begins capturing. onLevel may be nil.
func (m *Microphone) Start(_ context.Context, onLevel repositories.LevelFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.active {
		return fmt.Errorf("capture already in progress")
	}

	allocCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return fmt.Errorf("failed to initialize audio context: %w", err)
	}

	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatS16
	deviceConfig.Capture.Channels = captureChannels
	deviceConfig.SampleRate = captureSampleRate
	deviceConfig.Alsa.NoMMap = 1

	callbacks := malgo.DeviceCallbacks{
		Data: func(_, input []byte, _ uint32) {
			m.mu.Lock()
			if m.active {
				m.pcm = append(m.pcm, input...)
				m.level = rmsLevel(input)
			}
			m.mu.Unlock()
		},
	}

	device, err := malgo.InitDevice(allocCtx.Context, deviceConfig, callbacks)
	if err != nil {
		_ = allocCtx.Uninit()
		allocCtx.Free()
		if strings.Contains(strings.ToLower(err.Error()), "access denied") {
			return repositories.ErrPermissionDenied
		}
		return fmt.Errorf("failed to open capture device: %w", err)
	}

	if err := device.Start(); err != nil {
		device.Uninit()
		_ = allocCtx.Uninit()
		allocCtx.Free()
		return fmt.Errorf("failed to start capture device: %w", err)
	}

	m.ctx = allocCtx
	m.device = device
	m.pcm = m.pcm[:0]
	m.level = 0
	m.active = true
	m.started = time.Now()
	m.stopLvl = make(chan struct{})

	if onLevel != nil {
		go m.emitLevels(onLevel, m.stopLvl)
	}

	m.logger.Debug("Capture started",
		zap.Int("sample_rate", captureSampleRate),
		zap.Int("channels", captureChannels))
	return nil
}

// emitLevels delivers level samples until the session ends
func (m *Microphone) emitLevels(onLevel repositories.LevelFunc, stop chan struct{}) {
	ticker := time.NewTicker(levelInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			level := m.level
			m.mu.Unlock()
			onLevel(level)
		}
	}
}

// Stop finalizes the capture and returns the recording
func (m *Microphone) Stop(_ context.Context) (*entities.Recording, error) {
	pcm, elapsed, ok := m.teardown()
	if !ok {
		return nil, nil
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("lyra-%s.wav", uuid.New().String()))
	size, err := writeWAV(path, pcm, captureSampleRate, captureChannels)
	if err != nil {
		return nil, err
	}

	m.logger.Debug("Capture finished",
		zap.String("path", path),
		zap.Duration("duration", elapsed),
		zap.Int64("size", size))

	return &entities.Recording{
		Path:     path,
		Duration: elapsed,
		Size:     size,
	}, nil
}

// Cancel discards any in-progress capture without producing a recording
func (m *Microphone) Cancel() {
	m.teardown()
}

// teardown stops the device and returns the buffered audio.
// ok is false when no capture was active.
func (m *Microphone) teardown() (pcm []byte, elapsed time.Duration, ok bool) {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return nil, 0, false
	}
	m.active = false
	pcm = m.pcm
	m.pcm = nil
	elapsed = time.Since(m.started)
	device := m.device
	allocCtx := m.ctx
	stop := m.stopLvl
	m.device = nil
	m.ctx = nil
	m.stopLvl = nil
	m.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	if device != nil {
		device.Uninit()
	}
	if allocCtx != nil {
		_ = allocCtx.Uninit()
		allocCtx.Free()
	}
	return pcm, elapsed, true
}
