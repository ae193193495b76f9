package entities

import "testing"

func TestTransitionHappyPath(t *testing.T) {
	steps := []struct {
		event PipelineEvent
		want  PipelineState
	}{
		{EventStartListening, StateListening},
		{EventRecordingReady, StateTranscribing},
		{EventTranscriptReady, StateThinking},
		{EventResponseReady, StateSpeaking},
		{EventPlaybackDone, StateIdle},
	}

	state := StateIdle
	for _, step := range steps {
		next, ok := Transition(state, step.event)
		if !ok {
			t.Fatalf("Transition(%s, %s) rejected, expected %s", state, step.event, step.want)
		}
		if next != step.want {
			t.Fatalf("Transition(%s, %s) = %s, expected %s", state, step.event, next, step.want)
		}
		state = next
	}
}

func TestTransitionRejectsIllegalEvents(t *testing.T) {
	cases := []struct {
		from  PipelineState
		event PipelineEvent
	}{
		{StateListening, EventStartListening},
		{StateIdle, EventRecordingReady},
		{StateIdle, EventSoftStop},
		{StateThinking, EventStartListening},
		{StateSpeaking, EventProcessText},
		{StateTranscribing, EventResponseReady},
		{StateIdle, EventRecover},
	}

	for _, c := range cases {
		next, ok := Transition(c.from, c.event)
		if ok {
			t.Errorf("Transition(%s, %s) accepted, expected rejection", c.from, c.event)
		}
		if next != c.from {
			t.Errorf("Transition(%s, %s) changed state to %s on rejection", c.from, c.event, next)
		}
	}
}

func TestTransitionCancelAlwaysReturnsToIdle(t *testing.T) {
	for _, from := range []PipelineState{StateIdle, StateListening, StateTranscribing, StateThinking, StateSpeaking, StateError} {
		next, ok := Transition(from, EventCancel)
		if !ok || next != StateIdle {
			t.Errorf("Transition(%s, cancel) = (%s, %v), expected (idle, true)", from, next, ok)
		}
	}
}

func TestTransitionErrorRecovery(t *testing.T) {
	if next, ok := Transition(StateError, EventRecover); !ok || next != StateIdle {
		t.Errorf("expected error state to recover to idle, got (%s, %v)", next, ok)
	}

	// A new session clears the error state without waiting for recovery
	if next, ok := Transition(StateError, EventStartListening); !ok || next != StateListening {
		t.Errorf("expected startListening to clear error state, got (%s, %v)", next, ok)
	}
}

func TestSoftStopPaths(t *testing.T) {
	if next, ok := Transition(StateListening, EventSoftStop); !ok || next != StateIdle {
		t.Errorf("short recording should soft-stop to idle, got (%s, %v)", next, ok)
	}
	if next, ok := Transition(StateTranscribing, EventSoftStop); !ok || next != StateIdle {
		t.Errorf("empty transcript should soft-stop to idle, got (%s, %v)", next, ok)
	}
}

func TestStateValid(t *testing.T) {
	for _, s := range []PipelineState{StateIdle, StateListening, StateTranscribing, StateThinking, StateSpeaking, StateError} {
		if !s.Valid() {
			t.Errorf("state %s should be valid", s)
		}
	}
	if PipelineState("chatting").Valid() {
		t.Error("unknown state should not be valid")
	}
}
