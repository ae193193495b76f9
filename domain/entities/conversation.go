package entities

import "time"

// Role identifies the speaker of a conversation turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single message in the conversation history.
// Turns are immutable once appended.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Recording is a finished microphone capture handed to transcription.
// Duration is measured by the orchestrator's own clock so it is comparable
// across capture backends.
type Recording struct {
	Path     string        `json:"path"`
	Duration time.Duration `json:"duration"`
	Size     int64         `json:"size"`
}

// Word is a single recognized word with provider timing, when available
type Word struct {
	Text       string        `json:"text"`
	Start      time.Duration `json:"start"`
	End        time.Duration `json:"end"`
	Confidence float64       `json:"confidence"`
}

// Transcription is the result of converting a recording to text.
// Empty Text means the provider understood no speech; that is not an error.
type Transcription struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Words      []Word  `json:"words,omitempty"`
}

// PipelineResponse is the terminal result of one full round trip.
// A skipped stage reports 0, not an absent field.
type PipelineResponse struct {
	UserTranscript      string `json:"user_transcript"`
	AssistantResponse   string `json:"assistant_response"`
	TranscriptionTimeMs int64  `json:"transcription_time_ms"`
	LLMTimeMs           int64  `json:"llm_time_ms"`
	TTSTimeMs           int64  `json:"tts_time_ms"`
	TotalTimeMs         int64  `json:"total_time_ms"`
}

// Exchange is an archived round trip, persisted by an ExchangeStore
type Exchange struct {
	ID        string           `json:"id" bson:"_id,omitempty"`
	ClientID  string           `json:"client_id" bson:"client_id"`
	SessionID string           `json:"session_id" bson:"session_id"`
	Response  PipelineResponse `json:"response" bson:"response"`
	CreatedAt time.Time        `json:"created_at" bson:"created_at"`
}
