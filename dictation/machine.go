package dictation

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.aimuz.me/dictator/audiocapture"
	"go.aimuz.me/dictator/stt"
)

// DefaultMinDuration is the shortest session that is sent to transcription.
const DefaultMinDuration = 500 * time.Millisecond

// ErrClosed is returned by operations on a machine that has been shut down.
var ErrClosed = errors.New("dictation: machine closed")

// Config holds the collaborators and policy of a Machine.
type Config struct {
	Recorder    Recorder
	Transcriber stt.Transcriber
	Injector    Injector
	Feedback    Feedback // Optional

	MinDuration time.Duration // Zero selects DefaultMinDuration
	SampleRate  int           // Zero selects audiocapture.SampleRate
	Language    string        // Empty or "auto" means auto-detect
}

// Machine serializes every transition behind one mutex. Transcription runs
// on a background goroutine and re-enters through the same mutex.
type Machine struct {
	recorder    Recorder
	transcriber stt.Transcriber
	injector    Injector
	feedback    Feedback
	minDuration time.Duration
	sampleRate  int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	state    State
	stream   *audiocapture.Stream
	language string
	closed   bool
}

// New creates an idle machine.
func New(cfg Config) *Machine {
	if cfg.Feedback == nil {
		cfg.Feedback = NopFeedback{}
	}
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = DefaultMinDuration
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = audiocapture.SampleRate
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Machine{
		recorder:    cfg.Recorder,
		transcriber: cfg.Transcriber,
		injector:    cfg.Injector,
		feedback:    cfg.Feedback,
		minDuration: cfg.MinDuration,
		sampleRate:  cfg.SampleRate,
		ctx:         ctx,
		cancel:      cancel,
		language:    cfg.Language,
	}
	m.feedback.State(StateIdle)
	return m
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Language returns the language used for the next transcription.
func (m *Machine) Language() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.language
}

// SetLanguage changes the language for subsequent sessions. A session that
// is already being transcribed keeps the language it started with.
func (m *Machine) SetLanguage(lang string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.language = lang
	slog.Info("dictation language changed", "language", lang)
}

// setState must be called with mu held.
func (m *Machine) setState(s State) {
	if m.state == s {
		return
	}
	slog.Debug("dictation state", "from", m.state, "to", s)
	m.state = s
	m.feedback.State(s)
}

// Activate starts a recording. It is ignored unless the machine is idle.
func (m *Machine) Activate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.state != StateIdle {
		slog.Debug("activate ignored", "state", m.state, "closed", m.closed)
		return
	}

	session := audiocapture.NewSession(m.sampleRate)
	stream, err := m.recorder.Arm(session)
	if err != nil {
		slog.Error("failed to start recording", "error", err)
		m.feedback.Cue(CueError)
		return
	}

	m.stream = stream
	m.setState(StateRecording)
	m.feedback.Cue(CueStart)
	slog.Info("recording started", "session", session.ID)
}

// Deactivate ends the recording. The stream is fully drained before the
// session is judged. It is ignored unless the machine is recording.
func (m *Machine) Deactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateRecording {
		slog.Debug("deactivate ignored", "state", m.state)
		return
	}

	session := m.disarm()
	m.feedback.Cue(CueStop)

	duration := session.Duration()
	switch {
	case session.Empty():
		slog.Warn("no audio captured", "session", session.ID)
		m.feedback.Cue(CueError)
		m.setState(StateIdle)
		return
	case duration < m.minDuration:
		slog.Info("recording too short, discarded",
			"session", session.ID,
			"duration", duration,
			"min", m.minDuration,
		)
		m.setState(StateIdle)
		return
	}

	slog.Info("recording stopped", "session", session.ID, "duration", duration)
	m.setState(StateProcessing)

	language := m.language
	if strings.EqualFold(language, "auto") {
		language = ""
	}
	samples := session.Samples()

	m.wg.Add(1)
	go m.transcribe(session.ID, samples, language)
}

// disarm stops the live stream and returns its session. mu must be held.
func (m *Machine) disarm() *audiocapture.Session {
	stream := m.stream
	m.stream = nil
	if err := stream.Disarm(); err != nil {
		slog.Warn("failed to stop recording cleanly", "error", err)
	}
	return stream.Session()
}

func (m *Machine) transcribe(id string, samples []float32, language string) {
	defer m.wg.Done()

	start := time.Now()
	result, err := m.transcriber.Transcribe(m.ctx, samples, language)
	m.complete(id, result, err, time.Since(start))
}

// complete handles the transcription outcome. Only this goroutine leaves
// Processing, so injection runs without holding mu while other events
// keep being ignored.
func (m *Machine) complete(id string, result *stt.TranscribeResult, err error, took time.Duration) {
	defer func() {
		m.mu.Lock()
		m.setState(StateIdle)
		m.mu.Unlock()
	}()

	if err != nil {
		slog.Error("transcription failed", "session", id, "error", err)
		m.feedback.Cue(CueError)
		return
	}

	text := ""
	if result != nil {
		text = strings.TrimSpace(result.Text)
	}
	if text == "" {
		slog.Warn("transcription returned no text", "session", id)
		m.feedback.Cue(CueError)
		return
	}

	slog.Info("transcribed",
		"session", id,
		"language", result.Language,
		"chars", len(text),
		"took", took,
	)

	if m.ctx.Err() != nil {
		slog.Info("shutting down, transcription dropped", "session", id)
		return
	}

	if err := m.injector.Inject(m.ctx, text); err != nil {
		slog.Error("text injection failed", "session", id, "error", err)
		m.feedback.Cue(CueError)
	}
}

// Shutdown refuses further activations, discards a live recording without
// transcribing it, cancels in-flight transcription and waits for
// background work or ctx.
func (m *Machine) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.closed = true
	if m.state == StateRecording {
		session := m.disarm()
		slog.Info("recording discarded on shutdown", "session", session.ID)
		m.setState(StateIdle)
	}
	m.mu.Unlock()

	m.cancel()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
