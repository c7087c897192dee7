package hotkey

import (
	"context"
	"fmt"
	"sort"

	hook "github.com/robotn/gohook"
)

// KeyPress describes a physical key press observed by KeyNames.
type KeyPress struct {
	Name    string
	Keycode uint16
	Rawcode uint16
}

func (k KeyPress) String() string {
	return fmt.Sprintf("%q (keycode %d, rawcode %d)", k.Name, k.Keycode, k.Rawcode)
}

// KeyNames streams every key pressed until ctx is done, so users can find
// the names to put in a hotkey spec.
func KeyNames(ctx context.Context) <-chan KeyPress {
	names := keycodeNames()
	out := make(chan KeyPress)
	events := hook.Start()

	go func() {
		defer close(out)
		defer hook.End()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				if ev.Kind != hook.KeyHold {
					continue
				}
				name, found := names[ev.Keycode]
				if !found {
					name = "unknown"
				}
				select {
				case out <- KeyPress{Name: name, Keycode: ev.Keycode, Rawcode: ev.Rawcode}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// keycodeNames inverts gohook's keycode table. When several names share a
// code the shortest one wins, then the alphabetically first.
func keycodeNames() map[uint16]string {
	all := make([]string, 0, len(hook.Keycode))
	for name := range hook.Keycode {
		all = append(all, name)
	}
	sort.Slice(all, func(i, j int) bool {
		if len(all[i]) != len(all[j]) {
			return len(all[i]) < len(all[j])
		}
		return all[i] < all[j]
	})

	out := make(map[uint16]string, len(all))
	for _, name := range all {
		code := hook.Keycode[name]
		if _, ok := out[code]; !ok {
			out[code] = name
		}
	}
	return out
}
