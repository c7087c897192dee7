package hotkey

import "fmt"

// Intent is a normalized start/stop signal derived from key edges.
type Intent int

const (
	IntentNone Intent = iota
	IntentActivate
	IntentDeactivate
)

func (i Intent) String() string {
	switch i {
	case IntentActivate:
		return "activate"
	case IntentDeactivate:
		return "deactivate"
	default:
		return "none"
	}
}

// Role is the part a physical key plays in the active binding.
type Role int

const (
	RoleNone Role = iota
	RoleKey
	RoleModifier
	RoleTrigger
)

// Edge is a single press or release of a key bound to a Role. Code is the
// backend's key code; one key name may cover several physical keys, such as
// the left and right ctrl.
type Edge struct {
	Role Role
	Code uint32
	Down bool
}

// Decision is the synchronous answer to one edge: whether the OS should
// swallow it, and which intent (if any) it produced.
type Decision struct {
	Suppress bool
	Intent   Intent
}

// Resolver applies a binding's activation contract to key edges.
// It is not safe for concurrent use; Listener serializes access.
type Resolver struct {
	binding Binding
	held    map[uint32]bool // Modifier codes currently down
}

// NewResolver returns a Resolver for b.
func NewResolver(b Binding) *Resolver {
	return &Resolver{binding: b, held: make(map[uint32]bool)}
}

// Binding returns the binding the resolver was built for.
func (r *Resolver) Binding() Binding {
	return r.binding
}

// Handle resolves one edge.
func (r *Resolver) Handle(e Edge) Decision {
	switch b := r.binding.(type) {
	case SingleKey:
		if e.Role != RoleKey {
			return Decision{}
		}
		if e.Down {
			return Decision{Suppress: true, Intent: IntentActivate}
		}
		return Decision{Suppress: true, Intent: IntentDeactivate}

	case ModifierTrigger:
		switch e.Role {
		case RoleModifier:
			// The modifier is observed, never swallowed, so it keeps
			// working for the rest of the system. Auto-repeat downs
			// land on the same code.
			if e.Down {
				r.held[e.Code] = true
				return Decision{}
			}
			delete(r.held, e.Code)
			if len(r.held) == 0 {
				return Decision{Intent: IntentDeactivate}
			}
			return Decision{}
		case RoleTrigger:
			if e.Down && len(r.held) > 0 {
				return Decision{Suppress: true, Intent: IntentActivate}
			}
			return Decision{Suppress: true}
		}
		return Decision{}

	default:
		panic(fmt.Sprintf("hotkey: unknown binding type %T", b))
	}
}

// Roles maps each key name of b to its role.
func Roles(b Binding) map[string]Role {
	switch b := b.(type) {
	case SingleKey:
		return map[string]Role{b.Key: RoleKey}
	case ModifierTrigger:
		return map[string]Role{b.Modifier: RoleModifier, b.Trigger: RoleTrigger}
	default:
		panic(fmt.Sprintf("hotkey: unknown binding type %T", b))
	}
}
