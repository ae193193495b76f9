package usecase

import (
	"context"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adiwardana/lyra/domain/entities"
	"github.com/adiwardana/lyra/domain/repositories"
)

// Defaults for the orchestrator-owned guards
const (
	DefaultMinRecording  = 500 * time.Millisecond
	DefaultMaxRecording  = 60 * time.Second
	DefaultErrorRecovery = 2 * time.Second
)

// Config holds the orchestrator-owned tunables
type Config struct {
	// MinRecording discards recordings shorter than this as accidental taps
	MinRecording time.Duration
	// MaxRecording force-stops capture as if the user had released input
	MaxRecording time.Duration
	// ErrorRecovery is how long the pipeline stays in the error state
	// before returning to idle on its own
	ErrorRecovery time.Duration
	// HistoryLimit bounds the conversation context
	HistoryLimit int
}

// DefaultConfig returns the stock guard durations
func DefaultConfig() Config {
	return Config{
		MinRecording:  DefaultMinRecording,
		MaxRecording:  DefaultMaxRecording,
		ErrorRecovery: DefaultErrorRecovery,
		HistoryLimit:  DefaultHistoryLimit,
	}
}

// Options control one StopListening or ProcessText round trip
type Options struct {
	// StreamLLM uses chunked generation, delivering fragments via OnStreamChunk
	StreamLLM bool
	// PlayAudio synthesizes and plays the reply; when false the round trip
	// ends at thinking and the response is returned text-only
	PlayAudio bool
	// MinRecording overrides the configured minimum when positive
	MinRecording time.Duration
}

// DefaultOptions plays audio without streaming
func DefaultOptions() Options {
	return Options{PlayAudio: true}
}

// Callbacks are dispatched at well-defined points of a session. The state
// field is always updated before OnStateChange fires, so a callback that
// inspects State() sees a consistent value. Any callback may be nil.
type Callbacks struct {
	OnStateChange func(state entities.PipelineState)
	OnAudioLevel  func(level float64)
	OnTranscript  func(text string)
	OnStreamChunk func(fragment string)
	OnResponse    func(text string)
	OnError       func(err error)
	OnComplete    func(resp entities.PipelineResponse)
}

// Pipeline sequences capture, transcription, generation and synthesis as a
// single-session state machine. Exactly one session is in flight at a time;
// calls that are illegal for the current state are warn-logged no-ops.
type Pipeline struct {
	capture     repositories.CaptureSession
	transcriber repositories.Transcriber
	generator   repositories.ResponseGenerator
	synthesizer repositories.SpeechSynthesizer
	history     *ConversationHistory
	logger      *zap.Logger
	cfg         Config

	mu             sync.Mutex
	state          entities.PipelineState
	session        uint64 // monotonic token; bumped per session and on cancel
	sessionID      string
	callbacks      Callbacks
	captureStarted time.Time
	maxTimer       *time.Timer
	recoverTimer   *time.Timer
}

// NewPipeline creates a pipeline owning the four injected collaborators
func NewPipeline(
	capture repositories.CaptureSession,
	transcriber repositories.Transcriber,
	generator repositories.ResponseGenerator,
	synthesizer repositories.SpeechSynthesizer,
	cfg Config,
	logger *zap.Logger,
) *Pipeline {
	if cfg.MinRecording <= 0 {
		cfg.MinRecording = DefaultMinRecording
	}
	if cfg.MaxRecording <= 0 {
		cfg.MaxRecording = DefaultMaxRecording
	}
	if cfg.ErrorRecovery <= 0 {
		cfg.ErrorRecovery = DefaultErrorRecovery
	}

	return &Pipeline{
		capture:     capture,
		transcriber: transcriber,
		generator:   generator,
		synthesizer: synthesizer,
		history:     NewConversationHistory(cfg.HistoryLimit),
		logger:      logger,
		cfg:         cfg,
		state:       entities.StateIdle,
	}
}

// SetCallbacks replaces the callback set. Safe to call between sessions.
func (p *Pipeline) SetCallbacks(cb Callbacks) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = cb
}

// State returns the current pipeline state
func (p *Pipeline) State() entities.PipelineState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// SessionID returns the identifier of the current or most recent session
func (p *Pipeline) SessionID() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sessionID
}

// History returns a copy of the conversation history, oldest first
func (p *Pipeline) History() []entities.Turn {
	return p.history.History()
}

// ClearHistory removes all conversation context
func (p *Pipeline) ClearHistory() {
	p.history.Clear()
}

// StartListening begins microphone capture. It is a no-op unless the state
// is idle (or error, which it clears). A permission failure is returned as
// repositories.ErrPermissionDenied and leaves the pipeline idle.
func (p *Pipeline) StartListening(ctx context.Context) error {
	p.mu.Lock()
	next, ok := entities.Transition(p.state, entities.EventStartListening)
	if !ok {
		p.logger.Warn("startListening ignored: session already active",
			zap.String("state", string(p.state)))
		p.mu.Unlock()
		return nil
	}
	p.stopTimersLocked()

	p.session++
	token := p.session
	sid := uuid.NewString()
	p.sessionID = sid
	p.state = next
	p.captureStarted = time.Now()
	onState := p.callbacks.OnStateChange
	p.mu.Unlock()

	if onState != nil {
		onState(next)
	}

	err := p.capture.Start(ctx, func(level float64) {
		p.mu.Lock()
		alive := p.session == token && p.state == entities.StateListening
		onLevel := p.callbacks.OnAudioLevel
		p.mu.Unlock()
		if alive && onLevel != nil {
			onLevel(level)
		}
	})
	if err != nil {
		p.logger.Warn("capture start failed", zap.String("session", sid), zap.Error(err))
		p.mu.Lock()
		var onState func(entities.PipelineState)
		if p.session == token {
			p.state = entities.StateIdle
			onState = p.callbacks.OnStateChange
		}
		p.mu.Unlock()
		if onState != nil {
			onState(entities.StateIdle)
		}
		return err
	}

	p.mu.Lock()
	if p.session == token && p.state == entities.StateListening {
		p.maxTimer = time.AfterFunc(p.cfg.MaxRecording, func() {
			p.forceStop(token)
		})
	}
	p.mu.Unlock()

	p.logger.Info("listening started", zap.String("session", sid))
	return nil
}

// forceStop ends capture at the max-duration ceiling as if the user had
// released input.
func (p *Pipeline) forceStop(token uint64) {
	p.mu.Lock()
	expired := p.session == token && p.state == entities.StateListening
	p.mu.Unlock()
	if !expired {
		return
	}

	p.logger.Warn("max recording duration reached, forcing stop",
		zap.Duration("maxRecording", p.cfg.MaxRecording))
	if _, err := p.StopListening(context.Background(), DefaultOptions()); err != nil {
		p.logger.Warn("forced stop failed", zap.Error(err))
	}
}

// StopListening finalizes the capture and runs the recording through
// transcription, generation and (optionally) synthesis. It returns nil on
// soft stops: recordings shorter than the minimum and silent recordings.
func (p *Pipeline) StopListening(ctx context.Context, opts Options) (*entities.PipelineResponse, error) {
	minRecording := p.cfg.MinRecording
	if opts.MinRecording > 0 {
		minRecording = opts.MinRecording
	}

	p.mu.Lock()
	if p.state != entities.StateListening {
		p.logger.Warn("stopListening ignored: not listening",
			zap.String("state", string(p.state)))
		p.mu.Unlock()
		return nil, nil
	}
	if p.maxTimer != nil {
		p.maxTimer.Stop()
		p.maxTimer = nil
	}

	token := p.session
	sid := p.sessionID
	elapsed := time.Since(p.captureStarted)
	tooShort := elapsed < minRecording

	event := entities.EventRecordingReady
	if tooShort {
		event = entities.EventSoftStop
	}
	next, _ := entities.Transition(p.state, event)
	p.state = next
	onState := p.callbacks.OnStateChange
	p.mu.Unlock()

	totalStart := time.Now()

	if tooShort {
		p.capture.Cancel()
		if onState != nil {
			onState(next)
		}
		p.logger.Info("recording below minimum duration, discarded",
			zap.Duration("elapsed", elapsed),
			zap.Duration("minRecording", minRecording))
		return nil, nil
	}

	if onState != nil {
		onState(next) // transcribing
	}

	rec, err := p.capture.Stop(ctx)
	if err != nil || rec == nil {
		if err != nil {
			p.logger.Warn("capture finalization failed", zap.Error(err))
		}
		p.softStop(token)
		return nil, nil
	}
	// The orchestrator's clock is authoritative for duration, so timing is
	// comparable across capture backends.
	rec.Duration = elapsed
	defer func() {
		if rec.Path != "" {
			if rmErr := os.Remove(rec.Path); rmErr != nil && !os.IsNotExist(rmErr) {
				p.logger.Debug("could not remove recording", zap.String("path", rec.Path), zap.Error(rmErr))
			}
		}
	}()

	transcription, err := p.transcriber.Transcribe(ctx, *rec)
	transcriptionMs := time.Since(totalStart).Milliseconds()
	if !p.alive(token) {
		return nil, nil
	}
	if err != nil {
		p.fail(token, StageTranscription, err)
		return nil, &StageError{Stage: StageTranscription, Err: err}
	}

	text := strings.TrimSpace(transcription.Text)
	if text == "" {
		p.logger.Info("no speech recognized, returning to idle",
			zap.Duration("recording", rec.Duration))
		p.softStop(token)
		return nil, nil
	}

	p.invokeTranscript(token, text)
	if !p.advance(token, entities.EventTranscriptReady) {
		return nil, nil
	}

	p.logger.Info("transcription completed",
		zap.String("session", sid),
		zap.String("text", text),
		zap.Float64("confidence", transcription.Confidence),
		zap.Int64("transcriptionMs", transcriptionMs))

	return p.respond(ctx, token, sid, text, opts, transcriptionMs, totalStart)
}

// ProcessText bypasses capture and transcription, entering directly at
// thinking. Text-only and voice clients share everything downstream.
func (p *Pipeline) ProcessText(ctx context.Context, text string, opts Options) (*entities.PipelineResponse, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		p.logger.Warn("processText ignored: empty input")
		return nil, nil
	}

	p.mu.Lock()
	next, ok := entities.Transition(p.state, entities.EventProcessText)
	if !ok {
		p.logger.Warn("processText ignored: session already active",
			zap.String("state", string(p.state)))
		p.mu.Unlock()
		return nil, nil
	}
	p.stopTimersLocked()

	p.session++
	token := p.session
	sid := uuid.NewString()
	p.sessionID = sid
	p.state = next
	onState := p.callbacks.OnStateChange
	p.mu.Unlock()

	if onState != nil {
		onState(next)
	}

	return p.respond(ctx, token, sid, text, opts, 0, time.Now())
}

// respond runs the generation and synthesis stages shared by the voice and
// text entry points. The caller has already moved the state to thinking.
func (p *Pipeline) respond(ctx context.Context, token uint64, sid string, userText string, opts Options, transcriptionMs int64, totalStart time.Time) (*entities.PipelineResponse, error) {
	// Snapshot before appending so the prompt is not duplicated in context
	turns := p.history.History()
	p.history.Add(entities.RoleUser, userText)

	genStart := time.Now()
	var reply string
	var err error
	if opts.StreamLLM {
		reply, err = p.generator.GenerateStream(ctx, userText, turns, func(fragment string) {
			p.mu.Lock()
			alive := p.session == token
			onChunk := p.callbacks.OnStreamChunk
			p.mu.Unlock()
			if alive && onChunk != nil {
				onChunk(fragment)
			}
		})
	} else {
		reply, err = p.generator.Generate(ctx, userText, turns)
	}
	llmMs := time.Since(genStart).Milliseconds()

	if !p.alive(token) {
		return nil, nil
	}
	if err == nil && strings.TrimSpace(reply) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		p.fail(token, StageGeneration, err)
		return nil, &StageError{Stage: StageGeneration, Err: err}
	}

	p.invokeResponse(token, reply)
	p.history.Add(entities.RoleAssistant, reply)

	p.logger.Info("response generated",
		zap.String("session", sid),
		zap.Int("length", len(reply)),
		zap.Int64("llmMs", llmMs),
		zap.Bool("streamed", opts.StreamLLM))

	if !opts.PlayAudio {
		if !p.advance(token, entities.EventResponseDone) {
			return nil, nil
		}
		resp := entities.PipelineResponse{
			UserTranscript:      userText,
			AssistantResponse:   reply,
			TranscriptionTimeMs: transcriptionMs,
			LLMTimeMs:           llmMs,
			TTSTimeMs:           0,
			TotalTimeMs:         time.Since(totalStart).Milliseconds(),
		}
		p.invokeComplete(token, resp)
		return &resp, nil
	}

	if !p.advance(token, entities.EventResponseReady) {
		return nil, nil
	}

	ttsStart := time.Now()
	err = p.speakAndWait(ctx, reply)
	ttsMs := time.Since(ttsStart).Milliseconds()

	if !p.alive(token) {
		return nil, nil
	}
	if err != nil {
		p.fail(token, StageSynthesis, err)
		return nil, &StageError{Stage: StageSynthesis, Err: err}
	}

	if !p.advance(token, entities.EventPlaybackDone) {
		return nil, nil
	}

	resp := entities.PipelineResponse{
		UserTranscript:      userText,
		AssistantResponse:   reply,
		TranscriptionTimeMs: transcriptionMs,
		LLMTimeMs:           llmMs,
		TTSTimeMs:           ttsMs,
		TotalTimeMs:         time.Since(totalStart).Milliseconds(),
	}
	p.invokeComplete(token, resp)

	p.logger.Info("session completed",
		zap.String("session", sid),
		zap.Int64("totalMs", resp.TotalTimeMs))
	return &resp, nil
}

// speakAndWait blocks until playback resolves one way or the other.
// A Cancel during playback stops the synthesizer, which resolves the
// pending callbacks; the stale result is then discarded by the caller.
func (p *Pipeline) speakAndWait(ctx context.Context, text string) error {
	done := make(chan error, 1)
	var once sync.Once
	resolve := func(err error) {
		once.Do(func() { done <- err })
	}

	p.synthesizer.Speak(ctx, text, repositories.PlaybackCallbacks{
		OnStart: func() {
			p.logger.Debug("playback started")
		},
		OnComplete: func() { resolve(nil) },
		OnError:    func(err error) { resolve(err) },
	})

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		p.synthesizer.Stop()
		return ctx.Err()
	}
}

// Cancel aborts the active session from any state and returns to idle.
// It stops capture or playback as applicable and never reports an error:
// cancellation is a normal outcome, not a failure.
func (p *Pipeline) Cancel() {
	p.mu.Lock()
	if p.state == entities.StateIdle {
		p.mu.Unlock()
		return
	}
	was := p.state
	p.stopTimersLocked()
	p.session++ // invalidate any in-flight stage result
	p.state = entities.StateIdle
	onState := p.callbacks.OnStateChange
	p.mu.Unlock()

	switch was {
	case entities.StateListening:
		p.capture.Cancel()
	case entities.StateSpeaking:
		p.synthesizer.Stop()
	}

	if onState != nil {
		onState(entities.StateIdle)
	}
	p.logger.Info("session cancelled", zap.String("from", string(was)))
}

// alive reports whether token still identifies the current session
func (p *Pipeline) alive(token uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session == token
}

// advance applies ev for the session identified by token. It returns false
// when the session is stale or the transition is not legal, in which case
// the caller abandons its stage result.
func (p *Pipeline) advance(token uint64, ev entities.PipelineEvent) bool {
	p.mu.Lock()
	if p.session != token {
		p.mu.Unlock()
		return false
	}
	next, ok := entities.Transition(p.state, ev)
	if !ok {
		p.mu.Unlock()
		return false
	}
	p.state = next
	onState := p.callbacks.OnStateChange
	p.mu.Unlock()

	if onState != nil {
		onState(next)
	}
	return true
}

// softStop returns to idle without surfacing anything to the caller
func (p *Pipeline) softStop(token uint64) {
	p.advance(token, entities.EventSoftStop)
}

// fail moves the session to the error state, reports the cause once via
// OnError, and arms the recovery timer back to idle.
func (p *Pipeline) fail(token uint64, stage Stage, cause error) {
	p.mu.Lock()
	if p.session != token {
		p.mu.Unlock()
		return
	}
	next, ok := entities.Transition(p.state, entities.EventFail)
	if !ok {
		p.mu.Unlock()
		return
	}
	p.state = next
	sid := p.sessionID
	onState := p.callbacks.OnStateChange
	onError := p.callbacks.OnError
	p.recoverTimer = time.AfterFunc(p.cfg.ErrorRecovery, func() {
		p.recoverFromError(token)
	})
	p.mu.Unlock()

	p.logger.Error("stage failed",
		zap.String("session", sid),
		zap.String("stage", string(stage)),
		zap.Error(cause))

	if onState != nil {
		onState(next)
	}
	if onError != nil {
		onError(&StageError{Stage: stage, Err: cause})
	}
}

// recoverFromError returns from error to idle once the recovery delay passes
func (p *Pipeline) recoverFromError(token uint64) {
	p.mu.Lock()
	if p.session != token || p.state != entities.StateError {
		p.mu.Unlock()
		return
	}
	p.state = entities.StateIdle
	p.recoverTimer = nil
	onState := p.callbacks.OnStateChange
	p.mu.Unlock()

	if onState != nil {
		onState(entities.StateIdle)
	}
}

func (p *Pipeline) invokeTranscript(token uint64, text string) {
	p.mu.Lock()
	alive := p.session == token
	cb := p.callbacks.OnTranscript
	p.mu.Unlock()
	if alive && cb != nil {
		cb(text)
	}
}

func (p *Pipeline) invokeResponse(token uint64, text string) {
	p.mu.Lock()
	alive := p.session == token
	cb := p.callbacks.OnResponse
	p.mu.Unlock()
	if alive && cb != nil {
		cb(text)
	}
}

func (p *Pipeline) invokeComplete(token uint64, resp entities.PipelineResponse) {
	p.mu.Lock()
	alive := p.session == token
	cb := p.callbacks.OnComplete
	p.mu.Unlock()
	if alive && cb != nil {
		cb(resp)
	}
}

// stopTimersLocked tears down session timers. Caller holds p.mu.
func (p *Pipeline) stopTimersLocked() {
	if p.maxTimer != nil {
		p.maxTimer.Stop()
		p.maxTimer = nil
	}
	if p.recoverTimer != nil {
		p.recoverTimer.Stop()
		p.recoverTimer = nil
	}
}
