// Package hotkey parses hotkey specifications and turns raw key edges
// from a global keyboard hook into activate/deactivate intents.
package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidSpec is returned when a hotkey specification is empty or malformed.
var ErrInvalidSpec = errors.New("invalid hotkey spec")

// separator splits modifier and trigger in a hotkey spec.
const separator = "+"

// DefaultSpec is the binding used when the configured one cannot be registered.
const DefaultSpec = "ctrl+insert"

// DefaultBinding is the parsed form of DefaultSpec.
var DefaultBinding Binding = ModifierTrigger{Modifier: "ctrl", Trigger: "insert"}

// Binding is either a SingleKey or a ModifierTrigger.
type Binding interface {
	fmt.Stringer
	binding()
}

// SingleKey activates while one key is held.
type SingleKey struct {
	Key string
}

// ModifierTrigger activates when Trigger is pressed while Modifier is held,
// and deactivates when Modifier is released.
type ModifierTrigger struct {
	Modifier string
	Trigger  string
}

func (SingleKey) binding()       {}
func (ModifierTrigger) binding() {}

func (b SingleKey) String() string { return b.Key }

func (b ModifierTrigger) String() string { return b.Modifier + separator + b.Trigger }

// Parse parses a hotkey spec such as "f9", "ctrl+insert" or "right ctrl+menu".
// The spec is split on the last separator so multi-word modifier names survive.
func Parse(spec string) (Binding, error) {
	s := strings.ToLower(strings.TrimSpace(spec))
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSpec)
	}

	i := strings.LastIndex(s, separator)
	if i < 0 {
		return SingleKey{Key: s}, nil
	}

	modifier := strings.TrimSpace(s[:i])
	trigger := strings.TrimSpace(s[i+len(separator):])
	if modifier == "" || trigger == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
	}
	if modifier == trigger {
		return nil, fmt.Errorf("%w: %q uses the same key twice", ErrInvalidSpec, spec)
	}
	return ModifierTrigger{Modifier: modifier, Trigger: trigger}, nil
}

// MustParse is like Parse but panics on error.
func MustParse(spec string) Binding {
	b, err := Parse(spec)
	if err != nil {
		panic(err)
	}
	return b
}
