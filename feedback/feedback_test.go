package feedback

import (
	"bytes"
	"image/png"
	"sync"
	"testing"
	"time"

	"go.aimuz.me/dictator/dictation"
)

func TestIcon(t *testing.T) {
	seen := map[string]dictation.State{}
	for _, st := range []dictation.State{dictation.StateIdle, dictation.StateRecording, dictation.StateProcessing} {
		icon := Icon(st)
		img, err := png.Decode(bytes.NewReader(icon))
		if err != nil {
			t.Fatalf("Icon(%v) is not a PNG: %v", st, err)
		}
		if b := img.Bounds(); b.Dx() != iconSize || b.Dy() != iconSize {
			t.Errorf("Icon(%v) bounds = %v", st, b)
		}

		want := stateColors[st]
		r, g, b, _ := img.At(iconSize/2, iconSize/2).RGBA()
		if uint8(r>>8) != want.R || uint8(g>>8) != want.G || uint8(b>>8) != want.B {
			t.Errorf("Icon(%v) center color = %x %x %x, want %v", st, r>>8, g>>8, b>>8, want)
		}
		if _, _, _, a := img.At(0, 0).RGBA(); a != 0 {
			t.Errorf("Icon(%v) corner not transparent", st)
		}

		if prev, dup := seen[string(icon)]; dup {
			t.Errorf("Icon(%v) equals Icon(%v)", st, prev)
		}
		seen[string(icon)] = st
	}
}

type indicatorLog struct {
	mu     sync.Mutex
	states []dictation.State
	seen   chan struct{}
}

func (l *indicatorLog) show(st dictation.State, icon []byte) {
	l.mu.Lock()
	l.states = append(l.states, st)
	l.mu.Unlock()
	select {
	case l.seen <- struct{}{}:
	default:
	}
}

func (l *indicatorLog) last() (dictation.State, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.states) == 0 {
		return dictation.StateIdle, 0
	}
	return l.states[len(l.states)-1], len(l.states)
}

func TestSink_ShowsLatestState(t *testing.T) {
	log := &indicatorLog{seen: make(chan struct{}, 1)}
	s := New(Options{Indicator: log.show, Beeper: func(float64, int) error { return nil }})
	defer s.Close()

	s.State(dictation.StateRecording)
	s.State(dictation.StateProcessing)
	s.State(dictation.StateIdle)
	s.State(dictation.StateRecording)

	deadline := time.After(time.Second)
	for {
		if st, n := log.last(); n > 0 && st == dictation.StateRecording {
			break
		}
		select {
		case <-log.seen:
		case <-deadline:
			st, n := log.last()
			t.Fatalf("last state = %v after %d updates, want recording", st, n)
		}
	}
}

func TestSink_Cues(t *testing.T) {
	type beep struct {
		freq float64
		ms   int
	}
	beeps := make(chan beep, 8)
	s := New(Options{
		Beep: true,
		Beeper: func(freq float64, ms int) error {
			beeps <- beep{freq, ms}
			return nil
		},
	})
	defer s.Close()

	s.Cue(dictation.CueStart)
	s.Cue(dictation.CueError)

	for _, want := range []beep{{800, 100}, {300, 100}} {
		select {
		case got := <-beeps:
			if got != want {
				t.Errorf("beep = %+v, want %+v", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for beep %+v", want)
		}
	}

	s.SetBeepEnabled(false)
	s.Cue(dictation.CueStop)
	select {
	case got := <-beeps:
		t.Errorf("beeped %+v while disabled", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestSink_NeverBlocks(t *testing.T) {
	block := make(chan struct{})
	s := New(Options{
		Indicator: func(dictation.State, []byte) { <-block },
		Beep:      true,
		Beeper: func(float64, int) error {
			<-block
			return nil
		},
	})

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			s.State(dictation.State(i % 3))
			s.Cue(dictation.CueStart)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("feedback blocked the caller")
	}

	close(block)
	s.Close()
	s.State(dictation.StateIdle)
	s.Cue(dictation.CueStop)
}
