package gateway

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adiwardana/lyra/domain/entities"
)

// FrameType defines the type of WebSocket frame
type FrameType string

// Frames sent by clients
const (
	FrameTypeStartListening FrameType = "start_listening"
	FrameTypeStopListening  FrameType = "stop_listening"
	FrameTypeCancel         FrameType = "cancel"
	FrameTypeText           FrameType = "text"
	FrameTypePing           FrameType = "ping"
)

// Frames sent by the server
const (
	FrameTypeReady         FrameType = "ready"
	FrameTypeState         FrameType = "state"
	FrameTypeAudioLevel    FrameType = "audio_level"
	FrameTypeSTTDone       FrameType = "stt_done"
	FrameTypeLLMChunk      FrameType = "llm_chunk"
	FrameTypeLLMDone       FrameType = "llm_done"
	FrameTypeTTSAudioStart FrameType = "tts_audio_start"
	FrameTypeTTSAudioDone  FrameType = "tts_audio_done"
	FrameTypeComplete      FrameType = "complete"
	FrameTypeError         FrameType = "error"
	FrameTypePong          FrameType = "pong"
)

// Frame is the JSON envelope for every text frame on the wire. Binary frames
// carry raw audio: client to server during listening, server to client while
// the reply plays.
type Frame struct {
	Type      FrameType                  `json:"type"`
	Timestamp string                     `json:"timestamp,omitempty"`
	SessionID string                     `json:"session_id,omitempty"`
	Content   string                     `json:"content,omitempty"`
	State     entities.PipelineState     `json:"state,omitempty"`
	Level     float64                    `json:"level,omitempty"`
	Text      string                     `json:"text,omitempty"`
	Stage     string                     `json:"stage,omitempty"`
	Message   string                     `json:"message,omitempty"`
	Response  *entities.PipelineResponse `json:"response,omitempty"`
}

// ParseFrame decodes and validates an incoming client frame
func ParseFrame(data []byte) (*Frame, error) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("invalid JSON format: %w", err)
	}
	if frame.Type == "" {
		return nil, fmt.Errorf("frame missing type field")
	}

	switch frame.Type {
	case FrameTypeStartListening, FrameTypeStopListening, FrameTypeCancel, FrameTypePing:
		return &frame, nil
	case FrameTypeText:
		if frame.Content == "" {
			return nil, fmt.Errorf("text frame requires content")
		}
		return &frame, nil
	default:
		return nil, fmt.Errorf("unsupported frame type: %s", frame.Type)
	}
}

func newFrame(t FrameType) Frame {
	return Frame{
		Type:      t,
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// ReadyFrame announces a newly established session
func ReadyFrame(sessionID string) Frame {
	f := newFrame(FrameTypeReady)
	f.SessionID = sessionID
	return f
}

// StateFrame reports a pipeline state change
func StateFrame(state entities.PipelineState) Frame {
	f := newFrame(FrameTypeState)
	f.State = state
	return f
}

// LevelFrame reports a microphone level sample
func LevelFrame(level float64) Frame {
	f := newFrame(FrameTypeAudioLevel)
	f.Level = level
	return f
}

// TextFrame carries transcripts and response text
func TextFrame(t FrameType, text string) Frame {
	f := newFrame(t)
	f.Text = text
	return f
}

// CompleteFrame carries the final timing summary of a round trip
func CompleteFrame(resp entities.PipelineResponse) Frame {
	f := newFrame(FrameTypeComplete)
	f.Response = &resp
	return f
}

// ErrorFrame reports a pipeline failure to the client
func ErrorFrame(stage, message string) Frame {
	f := newFrame(FrameTypeError)
	f.Stage = stage
	f.Message = message
	return f
}
