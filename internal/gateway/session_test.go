package gateway

import (
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/adiwardana/lyra/adapters/llm"
	"github.com/adiwardana/lyra/adapters/stt"
	"github.com/adiwardana/lyra/usecase"
)

func newTestGateway(t *testing.T) *Gateway {
	t.Helper()
	return NewGateway(
		stt.NewMockTranscriber(),
		llm.NewMockGenerator(),
		nil,
		nil,
		nil,
		usecase.Config{},
		zaptest.NewLogger(t),
	)
}

func waitSessionCount(t *testing.T, g *Gateway, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for g.SessionCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("session count = %d, want %d", g.SessionCount(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestSendAfterDisconnectIsDropped(t *testing.T) {
	g := newTestGateway(t)
	go g.Run()

	s := newSession(g, nil, "client-1")
	g.register <- s
	waitSessionCount(t, g, 1)

	g.unregister <- s
	waitSessionCount(t, g, 0)

	// A turn goroutine or a late pipeline callback may still try to write
	// after the client has gone away. Both must be silent no-ops.
	s.sendFrame(ReadyFrame(s.connID))
	s.sendBinary([]byte{0x01, 0x02})

	if n := len(s.send); n != 0 {
		t.Fatalf("got %d buffered messages after disconnect, want 0", n)
	}
}

func TestUnregisterTwiceIsSafe(t *testing.T) {
	g := newTestGateway(t)
	go g.Run()

	s := newSession(g, nil, "client-1")
	g.register <- s
	waitSessionCount(t, g, 1)

	g.unregister <- s
	waitSessionCount(t, g, 0)
	g.unregister <- s

	s.shutdown()
	s.sendFrame(StateFrame(s.pipeline.State()))
}
