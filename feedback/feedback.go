// Package feedback turns dictation state changes into a tray icon and
// audible cues without ever blocking the caller.
package feedback

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gen2brain/beeep"

	"go.aimuz.me/dictator/dictation"
)

// Indicator shows the current state, typically by swapping the tray icon.
type Indicator func(state dictation.State, icon []byte)

// Beeper plays a tone of freq Hz for duration milliseconds.
type Beeper func(freq float64, duration int) error

// Tone is an audible cue.
type Tone struct {
	Freq     float64
	Duration int // milliseconds
}

// Tones per cue.
var Tones = map[dictation.Cue]Tone{
	dictation.CueStart: {Freq: 800, Duration: 100},
	dictation.CueStop:  {Freq: 500, Duration: 100},
	dictation.CueError: {Freq: 300, Duration: 100},
}

// Options configures a Sink.
type Options struct {
	Indicator Indicator // Optional
	Beep      bool
	Beeper    Beeper // Defaults to the system beeper
}

// Sink implements dictation.Feedback. States are delivered latest-wins on
// one goroutine; cues are dropped rather than queued without bound.
type Sink struct {
	indicator Indicator
	beeper    Beeper
	beep      atomic.Bool

	states chan dictation.State
	cues   chan dictation.Cue
	done   chan struct{}
	wg     sync.WaitGroup
	once   sync.Once
}

var _ dictation.Feedback = (*Sink)(nil)

// New starts the sink's workers. Call Close to stop them.
func New(opts Options) *Sink {
	if opts.Beeper == nil {
		opts.Beeper = beeep.Beep
	}
	s := &Sink{
		indicator: opts.Indicator,
		beeper:    opts.Beeper,
		states:    make(chan dictation.State, 1),
		cues:      make(chan dictation.Cue, 4),
		done:      make(chan struct{}),
	}
	s.beep.Store(opts.Beep)

	s.wg.Add(2)
	go s.showStates()
	go s.playCues()
	return s
}

// SetBeepEnabled turns audible cues on or off.
func (s *Sink) SetBeepEnabled(enabled bool) {
	s.beep.Store(enabled)
}

// State replaces any state not yet shown.
func (s *Sink) State(state dictation.State) {
	if s.indicator == nil {
		return
	}
	for {
		select {
		case <-s.done:
			return
		case s.states <- state:
			return
		default:
			select {
			case <-s.states:
			default:
			}
		}
	}
}

// Cue plays the tone for c if beeps are enabled.
func (s *Sink) Cue(c dictation.Cue) {
	if !s.beep.Load() {
		return
	}
	select {
	case <-s.done:
	case s.cues <- c:
	default:
		slog.Debug("cue dropped", "cue", c)
	}
}

func (s *Sink) showStates() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case state := <-s.states:
			s.indicator(state, Icon(state))
		}
	}
}

func (s *Sink) playCues() {
	defer s.wg.Done()
	for {
		select {
		case <-s.done:
			return
		case c := <-s.cues:
			tone, ok := Tones[c]
			if !ok {
				continue
			}
			if err := s.beeper(tone.Freq, tone.Duration); err != nil {
				slog.Debug("beep failed", "cue", c, "error", err)
			}
		}
	}
}

// Close stops the workers. Pending states and cues are dropped.
func (s *Sink) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.wg.Wait()
	})
	return nil
}
