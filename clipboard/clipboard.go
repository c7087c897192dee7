// Package clipboard injects text into the focused application by way of the
// system clipboard and a synthetic paste keystroke.
package clipboard

import (
	"sync"

	"github.com/atotto/clipboard"
)

// Clipboard reads and writes plain text on the clipboard.
type Clipboard interface {
	Read() (string, error)
	Write(text string) error
}

// System is the OS clipboard.
type System struct {
	mu sync.Mutex
}

// Read returns the current clipboard text.
func (s *System) Read() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clipboard.ReadAll()
}

// Write replaces the clipboard text.
func (s *System) Write(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clipboard.WriteAll(text)
}

// Unsupported reports whether no clipboard utility is available, e.g. a
// Linux session without xclip, xsel or wl-clipboard.
func Unsupported() bool {
	return clipboard.Unsupported
}
