package usecase

import (
	"errors"
	"fmt"
)

// Stage names the pipeline stage that produced an error
type Stage string

const (
	StageTranscription Stage = "transcription"
	StageGeneration    Stage = "generation"
	StageSynthesis     Stage = "synthesis"
)

// ErrEmptyResponse is reported when the generator returned no text.
// A user utterance must always produce a spoken or reported reply, so an
// empty generation is an error rather than a soft stop.
var ErrEmptyResponse = errors.New("generator returned an empty response")

// StageError wraps a collaborator failure with the stage it occurred in.
// It is what OnError callbacks receive.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
