package tts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"go.uber.org/zap"

	"github.com/adiwardana/lyra/domain/repositories"
)

// ErrPlaybackInterrupted resolves a Speak whose playback was cut off by Stop
var ErrPlaybackInterrupted = errors.New("playback interrupted")

// Speaker implements SpeechSynthesizer by synthesizing through a Voice and
// playing the clip on the local audio device. One clip plays at a time.
type Speaker struct {
	voice  Voice
	logger *zap.Logger

	initOnce   sync.Once
	initErr    error
	sampleRate beep.SampleRate

	mu     sync.Mutex
	stop   chan struct{}
	cancel context.CancelFunc
}

var _ repositories.SpeechSynthesizer = (*Speaker)(nil)

// NewSpeaker creates a speaker backed by the given voice
func NewSpeaker(voice Voice, logger *zap.Logger) *Speaker {
	return &Speaker{
		voice:  voice,
		logger: logger,
	}
}

// Speak synthesizes text and plays it without blocking the caller
func (s *Speaker) Speak(ctx context.Context, text string, cb repositories.PlaybackCallbacks) {
	ctx, cancel := context.WithCancel(ctx)
	stop := make(chan struct{})

	s.mu.Lock()
	s.stop = stop
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer cancel()

		audio, err := s.voice.Synthesize(ctx, text)
		if err != nil {
			s.clearActive(stop)
			s.fail(cb, err)
			return
		}

		streamer, format, err := mp3.Decode(io.NopCloser(bytes.NewReader(audio)))
		if err != nil {
			s.clearActive(stop)
			s.fail(cb, err)
			return
		}
		defer streamer.Close()

		if err := s.ensureInit(format.SampleRate); err != nil {
			s.clearActive(stop)
			s.fail(cb, err)
			return
		}

		var stream beep.Streamer = streamer
		if format.SampleRate != s.sampleRate {
			stream = beep.Resample(4, format.SampleRate, s.sampleRate, streamer)
		}

		if cb.OnStart != nil {
			cb.OnStart()
		}

		done := make(chan struct{})
		speaker.Play(beep.Seq(stream, beep.Callback(func() {
			close(done)
		})))

		select {
		case <-done:
			s.clearActive(stop)
			if cb.OnComplete != nil {
				cb.OnComplete()
			}
		case <-stop:
			speaker.Clear()
			s.fail(cb, ErrPlaybackInterrupted)
		}
	}()
}

// Stop interrupts any in-flight synthesis or playback
func (s *Speaker) Stop() {
	s.mu.Lock()
	stop := s.stop
	cancel := s.cancel
	s.stop = nil
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if stop != nil {
		close(stop)
	}
}

// ensureInit opens the audio device once, sized at the first clip's rate.
// Later clips at other rates get resampled.
func (s *Speaker) ensureInit(rate beep.SampleRate) error {
	s.initOnce.Do(func() {
		s.sampleRate = rate
		s.initErr = speaker.Init(rate, rate.N(time.Second/10))
	})
	return s.initErr
}

func (s *Speaker) clearActive(stop chan struct{}) {
	s.mu.Lock()
	if s.stop == stop {
		s.stop = nil
		s.cancel = nil
	}
	s.mu.Unlock()
}

func (s *Speaker) fail(cb repositories.PlaybackCallbacks, err error) {
	s.logger.Debug("Playback did not complete", zap.Error(err))
	if cb.OnError != nil {
		cb.OnError(err)
	}
}
