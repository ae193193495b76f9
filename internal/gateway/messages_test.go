package gateway

import (
	"encoding/json"
	"testing"

	"github.com/adiwardana/lyra/domain/entities"
)

func TestParseFrameControls(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  FrameType
	}{
		{"start", `{"type":"start_listening"}`, FrameTypeStartListening},
		{"stop", `{"type":"stop_listening"}`, FrameTypeStopListening},
		{"cancel", `{"type":"cancel"}`, FrameTypeCancel},
		{"ping", `{"type":"ping"}`, FrameTypePing},
		{"text", `{"type":"text","content":"hello"}`, FrameTypeText},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := ParseFrame([]byte(tc.input))
			if err != nil {
				t.Fatalf("ParseFrame: %v", err)
			}
			if frame.Type != tc.want {
				t.Errorf("got type %s, want %s", frame.Type, tc.want)
			}
		})
	}
}

func TestParseFrameRejections(t *testing.T) {
	cases := []struct {
		name  string
		input string
	}{
		{"invalid json", `{not json`},
		{"missing type", `{"content":"hello"}`},
		{"unknown type", `{"type":"reboot"}`},
		{"text without content", `{"type":"text"}`},
		{"server frame", `{"type":"stt_done","text":"hi"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseFrame([]byte(tc.input)); err == nil {
				t.Errorf("expected error for %q", tc.input)
			}
		})
	}
}

func TestStateFrame(t *testing.T) {
	frame := StateFrame(entities.StateThinking)

	payload, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["type"] != "state" {
		t.Errorf("unexpected type: %v", decoded["type"])
	}
	if decoded["state"] != "thinking" {
		t.Errorf("unexpected state: %v", decoded["state"])
	}
	if decoded["timestamp"] == "" {
		t.Error("expected a timestamp")
	}
}

func TestCompleteFrameCarriesTimings(t *testing.T) {
	frame := CompleteFrame(entities.PipelineResponse{
		UserTranscript:      "hi",
		AssistantResponse:   "hello",
		TranscriptionTimeMs: 120,
		LLMTimeMs:           340,
		TTSTimeMs:           200,
		TotalTimeMs:         700,
	})

	payload, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded struct {
		Type     string                    `json:"type"`
		Response entities.PipelineResponse `json:"response"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Type != "complete" {
		t.Errorf("unexpected type: %s", decoded.Type)
	}
	if decoded.Response.TotalTimeMs != 700 {
		t.Errorf("unexpected total: %d", decoded.Response.TotalTimeMs)
	}
	if decoded.Response.AssistantResponse != "hello" {
		t.Errorf("unexpected response text: %s", decoded.Response.AssistantResponse)
	}
}

func TestErrorFrame(t *testing.T) {
	frame := ErrorFrame("generation", "model unavailable")
	if frame.Stage != "generation" || frame.Message != "model unavailable" {
		t.Errorf("unexpected frame: %+v", frame)
	}
}
