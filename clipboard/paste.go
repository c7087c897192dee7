package clipboard

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/micmonay/keybd_event"
)

// Paster synthesizes the paste shortcut in the foreground application.
type Paster interface {
	Paste() error
}

// Keyboard sends Ctrl+V (Cmd+V on macOS) through a virtual keyboard.
type Keyboard struct {
	mu sync.Mutex
	kb keybd_event.KeyBonding
}

// NewKeyboard prepares the virtual keyboard.
func NewKeyboard() (*Keyboard, error) {
	kb, err := keybd_event.NewKeyBonding()
	if err != nil {
		return nil, fmt.Errorf("create virtual keyboard: %w", err)
	}

	// uinput devices are not usable until the desktop has picked them up.
	if runtime.GOOS == "linux" {
		time.Sleep(2 * time.Second)
	}

	kb.SetKeys(keybd_event.VK_V)
	if runtime.GOOS == "darwin" {
		kb.HasSuper(true)
	} else {
		kb.HasCTRL(true)
	}
	return &Keyboard{kb: kb}, nil
}

// Paste presses and releases the paste shortcut.
func (k *Keyboard) Paste() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := k.kb.Launching(); err != nil {
		return fmt.Errorf("send paste keystroke: %w", err)
	}
	return nil
}
