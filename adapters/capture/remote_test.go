package capture

import (
	"context"
	"encoding/binary"
	"os"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"
)

func TestRemoteCaptureRoundTrip(t *testing.T) {
	r := NewRemote(zaptest.NewLogger(t))
	ctx := context.Background()

	if err := r.Start(ctx, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}

	chunk := make([]byte, 640)
	for i := range chunk {
		chunk[i] = byte(i)
	}
	r.Push(chunk)
	r.Push(chunk)

	rec, err := r.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a recording")
	}
	defer os.Remove(rec.Path)

	data, err := os.ReadFile(rec.Path)
	if err != nil {
		t.Fatalf("failed to read recording: %v", err)
	}
	if len(data) != 44+len(chunk)*2 {
		t.Errorf("unexpected file size %d", len(data))
	}
	if string(data[:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Error("missing RIFF/WAVE header")
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != captureSampleRate {
		t.Errorf("unexpected sample rate %d", rate)
	}
	if rec.Size != int64(len(data)) {
		t.Errorf("Size %d does not match file length %d", rec.Size, len(data))
	}
}

func TestRemoteStartWhileActive(t *testing.T) {
	r := NewRemote(zaptest.NewLogger(t))
	ctx := context.Background()

	if err := r.Start(ctx, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := r.Start(ctx, nil); err == nil {
		t.Error("expected error starting an active session")
	}
	r.Cancel()
}

func TestRemoteStopWhileInactive(t *testing.T) {
	r := NewRemote(zaptest.NewLogger(t))

	rec, err := r.Stop(context.Background())
	if rec != nil || err != nil {
		t.Errorf("expected (nil, nil), got (%v, %v)", rec, err)
	}
}

func TestRemotePushOutsideSessionDropped(t *testing.T) {
	r := NewRemote(zaptest.NewLogger(t))
	ctx := context.Background()

	r.Push([]byte{1, 2, 3, 4})

	if err := r.Start(ctx, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rec, err := r.Stop(ctx)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	defer os.Remove(rec.Path)

	// Header only; the stray chunk must not appear
	if rec.Size != 44 {
		t.Errorf("expected an empty recording, got %d bytes", rec.Size)
	}
}

func TestRemoteCancelDiscards(t *testing.T) {
	r := NewRemote(zaptest.NewLogger(t))
	ctx := context.Background()

	if err := r.Start(ctx, nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	r.Push(make([]byte, 320))
	r.Cancel()

	rec, err := r.Stop(ctx)
	if rec != nil || err != nil {
		t.Errorf("cancelled session should report inactive, got (%v, %v)", rec, err)
	}
}

func TestRemoteLevelCallback(t *testing.T) {
	r := NewRemote(zaptest.NewLogger(t))
	ctx := context.Background()

	var mu sync.Mutex
	var levels []float64
	err := r.Start(ctx, func(level float64) {
		mu.Lock()
		levels = append(levels, level)
		mu.Unlock()
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Loud square-ish signal; the first push always emits a level
	chunk := make([]byte, 320)
	for i := 0; i < len(chunk); i += 2 {
		binary.LittleEndian.PutUint16(chunk[i:], 0x4000)
	}
	r.Push(chunk)

	mu.Lock()
	defer mu.Unlock()
	if len(levels) == 0 {
		t.Fatal("expected at least one level sample")
	}
	if levels[0] <= 0 || levels[0] > 1 {
		t.Errorf("level out of range: %f", levels[0])
	}
}
