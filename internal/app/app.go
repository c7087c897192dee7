// Package app provides the core application service for Wails bindings.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/wailsapp/wails/v3/pkg/application"

	"go.aimuz.me/dictator/audiocapture"
	"go.aimuz.me/dictator/clipboard"
	"go.aimuz.me/dictator/config"
	"go.aimuz.me/dictator/dictation"
	"go.aimuz.me/dictator/feedback"
	"go.aimuz.me/dictator/hotkey"
	"go.aimuz.me/dictator/langdetect"
	"go.aimuz.me/dictator/stt"
)

// shutdownTimeout bounds how long quitting waits for a transcription to
// cancel.
const shutdownTimeout = 5 * time.Second

// Options supplies the OS collaborators. Nil fields get the real
// implementation.
type Options struct {
	Config *config.Config

	// OnState is called off the dictation path with the new state and its
	// tray icon.
	OnState func(state dictation.State, icon []byte)

	Backend   hotkey.Backend
	Capturer  audiocapture.Capturer
	Provider  stt.Provider
	Clipboard clipboard.Clipboard
	Paster    clipboard.Paster
	Beeper    feedback.Beeper
}

// Service provides application functionality bound to Wails.
// This struct focuses on orchestration; the dictation logic lives in
// dictation.Machine.
type Service struct {
	cfg      *config.Config
	provider stt.Provider
	feedback *feedback.Sink
	machine  *dictation.Machine
	listener *hotkey.Listener

	// UI references - set via Init
	app     *application.App
	onState func(state dictation.State, icon []byte)

	driveDone chan struct{}
	closeOnce sync.Once

	// Version info (set by caller)
	version string
}

// New creates a new Service. Call Init() before use.
func New(version string) *Service {
	return &Service{version: version}
}

// GetVersion returns the application version.
func (s *Service) GetVersion() string {
	return s.version
}

// Init builds the dictation pipeline and installs the hotkey. A failure
// here is fatal: either no model could be loaded or not even the default
// hotkey could be registered.
func (s *Service) Init(ctx context.Context, app *application.App, opts Options) error {
	if opts.Config == nil {
		return errors.New("app: config required")
	}
	s.app = app
	s.cfg = opts.Config
	s.onState = opts.OnState

	provider, err := s.setupProvider(ctx, opts.Provider)
	if err != nil {
		return err
	}
	s.provider = provider

	injector, err := s.setupInjector(opts.Clipboard, opts.Paster)
	if err != nil {
		provider.Close()
		return err
	}

	s.feedback = feedback.New(feedback.Options{
		Indicator: s.showState,
		Beep:      s.cfg.IsBeepEnabled(),
		Beeper:    opts.Beeper,
	})

	capturer := opts.Capturer
	if capturer == nil {
		capturer = audiocapture.NewPortAudio(audiocapture.SampleRate, audiocapture.FramesPerBuffer)
	}

	s.machine = dictation.New(dictation.Config{
		Recorder:    audiocapture.NewRecorder(capturer),
		Transcriber: stt.WithDetection(provider, langdetect.New(s.cfg.LanguagePresets...)),
		Injector:    injector,
		Feedback:    s.feedback,
		MinDuration: s.cfg.MinDuration(),
		SampleRate:  audiocapture.SampleRate,
		Language:    s.cfg.CurrentLanguage(),
	})

	if err := s.setupHotkey(opts.Backend); err != nil {
		s.feedback.Close()
		provider.Close()
		return err
	}

	slog.Info("dictation ready",
		"hotkey", s.listener.Binding().String(),
		"backend", provider.Name(),
		"language", s.cfg.CurrentLanguage(),
	)
	return nil
}

func (s *Service) setupProvider(ctx context.Context, provider stt.Provider) (stt.Provider, error) {
	if provider == nil {
		var err error
		provider, err = stt.New(stt.Options{
			Backend: s.cfg.Backend,
			Model:   s.cfg.Model,
			Device:  s.cfg.Device,
			APIKey:  s.cfg.APIKey,
			BaseURL: s.cfg.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("create transcriber: %w", err)
		}
	}

	if !provider.IsReady() {
		slog.Info("preparing transcriber", "backend", provider.Name(), "model", s.cfg.Model)
		last := -1
		err := provider.Setup(ctx, func(percent int) {
			if percent/10 != last/10 {
				last = percent
				slog.Info("model download", "progress", percent)
			}
		})
		if err != nil {
			provider.Close()
			return nil, fmt.Errorf("load model: %w", err)
		}
	}
	return provider, nil
}

func (s *Service) setupInjector(clip clipboard.Clipboard, paster clipboard.Paster) (*clipboard.Injector, error) {
	if clip == nil {
		if clipboard.Unsupported() {
			slog.Warn("no clipboard utility found, text injection will fail")
		}
		clip = &clipboard.System{}
	}
	if paster == nil {
		kb, err := clipboard.NewKeyboard()
		if err != nil {
			return nil, fmt.Errorf("setup paste keystroke: %w", err)
		}
		paster = kb
	}
	return clipboard.NewInjector(clipboard.InjectorConfig{
		Clipboard: clip,
		Paster:    paster,
	}), nil
}

func (s *Service) setupHotkey(backend hotkey.Backend) error {
	if backend == nil {
		backend = hotkey.NewBackend()
	}

	binding, err := hotkey.Parse(s.cfg.Hotkey)
	if err != nil {
		slog.Warn("invalid hotkey in config, using default", "hotkey", s.cfg.Hotkey, "error", err)
		binding = hotkey.DefaultBinding
	}

	listener, err := hotkey.Bind(backend, binding)
	if err != nil {
		return fmt.Errorf("register hotkey: %w", err)
	}
	s.listener = listener

	s.driveDone = make(chan struct{})
	go s.drive(listener.Intents())
	return nil
}

// drive feeds hotkey intents into the machine, in order, until the
// listener closes.
func (s *Service) drive(intents <-chan hotkey.Intent) {
	defer close(s.driveDone)
	for intent := range intents {
		switch intent {
		case hotkey.IntentActivate:
			s.machine.Activate()
		case hotkey.IntentDeactivate:
			s.machine.Deactivate()
		}
	}
}

func (s *Service) showState(state dictation.State, icon []byte) {
	if s.onState != nil {
		s.onState(state, icon)
	}
	s.emit(EventState, StateEvent{State: state.String()})
}

// emit is a safe wrapper around app.Event.Emit
func (s *Service) emit(name string, data any) {
	if s.app != nil {
		s.app.Event.Emit(name, data)
	}
}

// Shutdown releases the hotkey, discards any recording in progress and
// waits for a running transcription to be cancelled.
func (s *Service) Shutdown(ctx context.Context) error {
	var errs []error
	s.closeOnce.Do(func() {
		if s.listener != nil {
			if err := s.listener.Close(); err != nil {
				errs = append(errs, fmt.Errorf("release hotkey: %w", err))
			}
			<-s.driveDone
		}
		if s.machine != nil {
			if err := s.machine.Shutdown(ctx); err != nil {
				errs = append(errs, fmt.Errorf("stop dictation: %w", err))
			}
		}
		if s.feedback != nil {
			s.feedback.Close()
		}
		if s.provider != nil {
			if err := s.provider.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close transcriber: %w", err))
			}
		}
		slog.Info("dictation stopped")
	})
	return errors.Join(errs...)
}

// ─────────────────────────────────────────────────────────────────────────────
// Tray API
// ─────────────────────────────────────────────────────────────────────────────

// State returns the current dictation state.
func (s *Service) State() dictation.State {
	return s.machine.State()
}

// Hotkey returns the active hotkey, which may be the fallback.
func (s *Service) Hotkey() string {
	return s.listener.Binding().String()
}

// Language returns the transcription language.
func (s *Service) Language() string {
	if s.machine == nil {
		return s.cfg.CurrentLanguage()
	}
	return s.machine.Language()
}

// LanguagePresets returns the quick-switch languages.
func (s *Service) LanguagePresets() []string {
	return s.cfg.LanguagePresets
}

// SetLanguage persists the language and applies it to the next recording.
func (s *Service) SetLanguage(code string) error {
	if err := s.cfg.SetLanguage(code); err != nil {
		return fmt.Errorf("set language: %w", err)
	}
	s.machine.SetLanguage(s.cfg.CurrentLanguage())
	s.emit(EventLanguage, s.cfg.CurrentLanguage())
	return nil
}

// SetBeepEnabled toggles the audible cues and persists the choice.
func (s *Service) SetBeepEnabled(enabled bool) error {
	s.feedback.SetBeepEnabled(enabled)
	if err := s.cfg.SetBeepEnabled(enabled); err != nil {
		return fmt.Errorf("set beep: %w", err)
	}
	return nil
}

// BeepEnabled reports whether audible cues are on.
func (s *Service) BeepEnabled() bool {
	return s.cfg.IsBeepEnabled()
}

// ServiceShutdown is called by Wails when the application quits.
func (s *Service) ServiceShutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return s.Shutdown(ctx)
}
