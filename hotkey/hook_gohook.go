//go:build !windows

package hotkey

import (
	"log/slog"
	"sync"

	hook "github.com/robotn/gohook"
)

// gohookNames maps canonical key names to the names used by gohook's
// keycode table.
var gohookNames = map[string][]string{
	"ctrl":          {"ctrl", "rctrl"},
	"left ctrl":     {"ctrl"},
	"right ctrl":    {"rctrl"},
	"alt":           {"alt", "ralt"},
	"left alt":      {"alt"},
	"right alt":     {"ralt"},
	"alt gr":        {"ralt"},
	"shift":         {"shift", "rshift"},
	"left shift":    {"shift"},
	"right shift":   {"rshift"},
	"windows":       {"cmd", "rcmd"},
	"left windows":  {"cmd"},
	"right windows": {"rcmd"},
	"page up":       {"pageup"},
	"page down":     {"pagedown"},
	"caps lock":     {"capslock"},
	"num lock":      {"numlock"},
	"scroll lock":   {"scrolllock"},
	"print screen":  {"printscreen"},
}

func lookupGohook(name string) ([]uint16, bool) {
	names, ok := gohookNames[name]
	if !ok {
		names = []string{name}
	}
	var codes []uint16
	for _, n := range names {
		if c, ok := hook.Keycode[n]; ok {
			codes = append(codes, c)
		}
	}
	return codes, len(codes) > 0
}

// gohookBackend listens through libuiohook. It observes key events but
// cannot swallow them.
type gohookBackend struct{}

// NewBackend returns the keyboard hook backend for this platform.
func NewBackend() Backend {
	return gohookBackend{}
}

type gohookHook struct {
	done chan struct{}
	once sync.Once
}

func (gohookBackend) Install(b Binding, fn HookFunc) (Hook, error) {
	roles, err := codeRoles(b, lookupGohook)
	if err != nil {
		return nil, err
	}

	events := hook.Start()
	h := &gohookHook{done: make(chan struct{})}

	go func() {
		for {
			select {
			case <-h.done:
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				role, bound := roles[ev.Keycode]
				if !bound {
					continue
				}
				switch ev.Kind {
				case hook.KeyHold:
					fn(Edge{Role: role, Code: uint32(ev.Keycode), Down: true})
				case hook.KeyUp:
					fn(Edge{Role: role, Code: uint32(ev.Keycode), Down: false})
				}
			}
		}
	}()

	slog.Info("keyboard hook installed", "hotkey", b.String(), "suppress", false)
	slog.Warn("key suppression is not available on this platform; hotkey presses reach the focused application")
	return h, nil
}

func (h *gohookHook) Close() error {
	h.once.Do(func() {
		close(h.done)
		hook.End()
	})
	return nil
}
