package repositories

import (
	"context"
	"errors"

	"github.com/adiwardana/lyra/domain/entities"
)

// ErrPermissionDenied is returned by CaptureSession.Start when microphone
// access was refused. It is an expected result, not a fault; callers can
// prompt the user to re-request access.
var ErrPermissionDenied = errors.New("microphone permission denied")

// LevelFunc receives microphone level samples normalized to [0,1].
// Delivery is best-effort at roughly 10 Hz; implementations may drop late
// samples but must never block the capture path.
type LevelFunc func(level float64)

// CaptureSession records one utterance from a microphone or remote audio feed
type CaptureSession interface {
	// Start begins capturing. onLevel may be nil.
	Start(ctx context.Context, onLevel LevelFunc) error

	// Stop finalizes the capture and returns the recording.
	// It returns (nil, nil) when no capture was active.
	Stop(ctx context.Context) (*entities.Recording, error)

	// Cancel discards any in-progress capture without producing a recording
	Cancel()
}
