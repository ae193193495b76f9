package entities

// PipelineState represents the current phase of a voice session
type PipelineState string

const (
	StateIdle         PipelineState = "idle"
	StateListening    PipelineState = "listening"
	StateTranscribing PipelineState = "transcribing"
	StateThinking     PipelineState = "thinking"
	StateSpeaking     PipelineState = "speaking"
	StateError        PipelineState = "error"
)

// PipelineEvent is a trigger that may move the pipeline to a new state
type PipelineEvent string

const (
	// EventStartListening begins microphone capture
	EventStartListening PipelineEvent = "start_listening"
	// EventRecordingReady fires when capture stopped with a usable recording
	EventRecordingReady PipelineEvent = "recording_ready"
	// EventSoftStop returns to idle without error (too short, silent)
	EventSoftStop PipelineEvent = "soft_stop"
	// EventTranscriptReady fires when transcription produced non-empty text
	EventTranscriptReady PipelineEvent = "transcript_ready"
	// EventProcessText enters the generation stage directly, bypassing capture
	EventProcessText PipelineEvent = "process_text"
	// EventResponseReady fires when generation succeeded and playback is requested
	EventResponseReady PipelineEvent = "response_ready"
	// EventResponseDone fires when generation succeeded and playback is suppressed
	EventResponseDone PipelineEvent = "response_done"
	// EventPlaybackDone fires when playback completed or failed terminally
	EventPlaybackDone PipelineEvent = "playback_done"
	// EventFail moves an in-flight stage to the error state
	EventFail PipelineEvent = "fail"
	// EventCancel aborts the session from any state
	EventCancel PipelineEvent = "cancel"
	// EventRecover returns from error to idle after the recovery delay
	EventRecover PipelineEvent = "recover"
)

// Valid reports whether s is one of the six legal pipeline states
func (s PipelineState) Valid() bool {
	switch s {
	case StateIdle, StateListening, StateTranscribing, StateThinking, StateSpeaking, StateError:
		return true
	}
	return false
}

// Transition returns the state that follows from applying ev in state from.
// It returns false when the event is not legal in that state; callers treat
// a rejected transition as a no-op rather than an error.
func Transition(from PipelineState, ev PipelineEvent) (PipelineState, bool) {
	if ev == EventCancel {
		return StateIdle, true
	}

	switch from {
	case StateIdle:
		switch ev {
		case EventStartListening:
			return StateListening, true
		case EventProcessText:
			return StateThinking, true
		}
	case StateListening:
		switch ev {
		case EventRecordingReady:
			return StateTranscribing, true
		case EventSoftStop:
			return StateIdle, true
		}
	case StateTranscribing:
		switch ev {
		case EventTranscriptReady:
			return StateThinking, true
		case EventSoftStop:
			return StateIdle, true
		case EventFail:
			return StateError, true
		}
	case StateThinking:
		switch ev {
		case EventResponseReady:
			return StateSpeaking, true
		case EventResponseDone:
			return StateIdle, true
		case EventFail:
			return StateError, true
		}
	case StateSpeaking:
		switch ev {
		case EventPlaybackDone:
			return StateIdle, true
		case EventFail:
			return StateError, true
		}
	case StateError:
		switch ev {
		case EventRecover:
			return StateIdle, true
		case EventStartListening:
			// A new session clears the error state immediately
			return StateListening, true
		case EventProcessText:
			return StateThinking, true
		}
	}

	return from, false
}
