package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/adiwardana/lyra/adapters/capture"
	"github.com/adiwardana/lyra/adapters/tts"
	"github.com/adiwardana/lyra/domain/entities"
	"github.com/adiwardana/lyra/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks
)

type writeData struct {
	// Type is websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Session is a middleman between one websocket connection and its pipeline.
// Each connection gets its own pipeline and remote capture; nothing is shared
// between clients.
type Session struct {
	gateway *Gateway

	conn *websocket.Conn

	// Buffered channel of outbound messages. Never closed; shutdown is
	// signalled through done so late pipeline callbacks and turn goroutines
	// cannot hit a closed channel.
	send chan writeData

	// Closed exactly once when the session is unregistered.
	done      chan struct{}
	closeOnce sync.Once

	clientID string
	connID   string
	pipeline *usecase.Pipeline
	capture  *capture.Remote

	logger *zap.Logger
}

func newSession(g *Gateway, conn *websocket.Conn, clientID string) *Session {
	remote := capture.NewRemote(g.logger)
	pipeline := usecase.NewPipeline(remote, g.transcriber, g.generator, tts.NewMockSynthesizer(), g.config, g.logger)

	s := &Session{
		gateway:  g,
		conn:     conn,
		send:     make(chan writeData, 256),
		done:     make(chan struct{}),
		clientID: clientID,
		connID:   uuid.NewString(),
		pipeline: pipeline,
		capture:  remote,
		logger:   g.logger.With(zap.String("clientID", clientID)),
	}

	// Synthesis streams to the client instead of a local device, so the
	// pipeline runs text-only and the session speaks afterwards.
	pipeline.SetCallbacks(usecase.Callbacks{
		OnStateChange: func(state entities.PipelineState) {
			s.sendFrame(StateFrame(state))
		},
		OnAudioLevel: func(level float64) {
			s.sendFrame(LevelFrame(level))
		},
		OnTranscript: func(text string) {
			s.sendFrame(TextFrame(FrameTypeSTTDone, text))
		},
		OnStreamChunk: func(fragment string) {
			s.sendFrame(TextFrame(FrameTypeLLMChunk, fragment))
		},
		OnResponse: func(text string) {
			s.sendFrame(TextFrame(FrameTypeLLMDone, text))
		},
		OnError: func(err error) {
			var stageErr *usecase.StageError
			stage := ""
			if errors.As(err, &stageErr) {
				stage = string(stageErr.Stage)
			}
			s.sendFrame(ErrorFrame(stage, err.Error()))
		},
	})

	return s
}

// shutdown signals the write pump and any in-flight turn goroutines that the
// connection is gone. Safe to call more than once.
func (s *Session) shutdown() {
	s.closeOnce.Do(func() { close(s.done) })
}

func (s *Session) sendFrame(frame Frame) {
	payload, err := json.Marshal(frame)
	if err != nil {
		s.logger.Error("Failed to marshal frame", zap.Error(err))
		return
	}
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.send <- writeData{Type: websocket.TextMessage, Payload: payload}:
	default:
		s.logger.Warn("Dropping frame, send buffer full",
			zap.String("type", string(frame.Type)))
	}
}

func (s *Session) sendBinary(data []byte) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.send <- writeData{Type: websocket.BinaryMessage, Payload: data}:
	default:
		s.logger.Warn("Dropping audio chunk, send buffer full")
	}
}

// readPump pumps messages from the websocket connection to the pipeline.
func (s *Session) readPump() {
	defer func() {
		s.gateway.unregister <- s
		s.pipeline.Cancel()
		s.conn.Close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			s.processFrame(message)
		case websocket.BinaryMessage:
			s.capture.Push(message)
		default:
			s.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the session to the websocket connection.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case message := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(message.Type, message.Payload); err != nil {
				s.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processFrame dispatches a parsed client frame
func (s *Session) processFrame(message []byte) {
	frame, err := ParseFrame(message)
	if err != nil {
		s.logger.Error("Failed to parse frame", zap.Error(err))
		s.sendFrame(ErrorFrame("", err.Error()))
		return
	}

	switch frame.Type {
	case FrameTypeStartListening:
		if err := s.pipeline.StartListening(context.Background()); err != nil {
			s.sendFrame(ErrorFrame("", err.Error()))
		}
	case FrameTypeStopListening:
		go s.runTurn(func(ctx context.Context) (*entities.PipelineResponse, error) {
			return s.pipeline.StopListening(ctx, s.turnOptions())
		})
	case FrameTypeText:
		content := frame.Content
		go s.runTurn(func(ctx context.Context) (*entities.PipelineResponse, error) {
			return s.pipeline.ProcessText(ctx, content, s.turnOptions())
		})
	case FrameTypeCancel:
		s.pipeline.Cancel()
	case FrameTypePing:
		s.sendFrame(newFrame(FrameTypePong))
	}
}

func (s *Session) turnOptions() usecase.Options {
	return usecase.Options{StreamLLM: true, PlayAudio: false}
}

// runTurn drives one round trip to completion: pipeline, then speech
// streaming, then archival. Pipeline errors were already reported through
// OnError; a nil response means a discarded or cancelled turn.
func (s *Session) runTurn(run func(ctx context.Context) (*entities.PipelineResponse, error)) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	resp, err := run(ctx)
	if err != nil || resp == nil {
		return
	}

	ttsStart := time.Now()
	if s.streamSpeech(ctx, resp.AssistantResponse) {
		resp.TTSTimeMs = time.Since(ttsStart).Milliseconds()
		resp.TotalTimeMs += resp.TTSTimeMs
	}

	s.sendFrame(CompleteFrame(*resp))
	s.archive(*resp)
}

// streamSpeech synthesizes the reply and forwards audio chunks to the client
func (s *Session) streamSpeech(ctx context.Context, text string) bool {
	if s.gateway.voice == nil || text == "" {
		return false
	}

	audioChan, err := s.gateway.voice.SynthesizeStream(ctx, text)
	if err != nil {
		s.logger.Error("Failed to synthesize speech", zap.Error(err))
		s.sendFrame(ErrorFrame(string(usecase.StageSynthesis), err.Error()))
		return false
	}

	s.sendFrame(newFrame(FrameTypeTTSAudioStart))
	for chunk := range audioChan {
		s.sendBinary(chunk)
	}
	s.sendFrame(newFrame(FrameTypeTTSAudioDone))
	return true
}

// archive persists the finished round trip, best effort
func (s *Session) archive(resp entities.PipelineResponse) {
	if s.gateway.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	exchange := &entities.Exchange{
		ClientID:  s.clientID,
		SessionID: s.pipeline.SessionID(),
		Response:  resp,
		CreatedAt: time.Now(),
	}
	if err := s.gateway.store.Save(ctx, exchange); err != nil {
		s.logger.Error("Failed to archive exchange", zap.Error(err))
	}
}
