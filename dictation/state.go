// Package dictation implements the push-to-talk lifecycle: it arms the
// microphone on activate, transcribes on deactivate and injects the result.
package dictation

import (
	"context"

	"go.aimuz.me/dictator/audiocapture"
)

// State is the lifecycle state of the machine.
type State int

const (
	StateIdle State = iota
	StateRecording
	StateProcessing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRecording:
		return "recording"
	case StateProcessing:
		return "processing"
	default:
		return "unknown"
	}
}

// Cue is a discrete event the user should hear about.
type Cue int

const (
	CueStart Cue = iota + 1
	CueStop
	CueError
)

func (c Cue) String() string {
	switch c {
	case CueStart:
		return "start"
	case CueStop:
		return "stop"
	case CueError:
		return "error"
	default:
		return "unknown"
	}
}

// Recorder arms the microphone for one session.
type Recorder interface {
	Arm(session *audiocapture.Session) (*audiocapture.Stream, error)
}

// Injector delivers text to the focused application.
type Injector interface {
	Inject(ctx context.Context, text string) error
}

// Feedback observes state changes and cues. Implementations must not block.
type Feedback interface {
	State(s State)
	Cue(c Cue)
}

// NopFeedback discards everything.
type NopFeedback struct{}

func (NopFeedback) State(State) {}
func (NopFeedback) Cue(Cue)     {}
