package repositories

import "context"

// PlaybackCallbacks report the lifecycle of one Speak call.
// OnStart fires once when audio is ready to be heard. Exactly one of
// OnComplete or OnError fires afterwards, including when playback is
// interrupted by Stop. Any callback may be nil.
type PlaybackCallbacks struct {
	OnStart    func()
	OnComplete func()
	OnError    func(err error)
}

// SpeechSynthesizer converts text to audio and plays it
type SpeechSynthesizer interface {
	// Speak synthesizes text and plays it without blocking the caller
	Speak(ctx context.Context, text string, cb PlaybackCallbacks)

	// Stop interrupts any in-flight synthesis or playback. The pending
	// Speak still resolves through its callbacks.
	Stop()
}
