package hotkey

import "testing"

func TestResolver_SingleKey(t *testing.T) {
	r := NewResolver(SingleKey{Key: "f9"})

	tests := []struct {
		name string
		edge Edge
		want Decision
	}{
		{"press activates", Edge{Role: RoleKey, Down: true}, Decision{Suppress: true, Intent: IntentActivate}},
		{"repeat press activates again", Edge{Role: RoleKey, Down: true}, Decision{Suppress: true, Intent: IntentActivate}},
		{"release deactivates", Edge{Role: RoleKey, Down: false}, Decision{Suppress: true, Intent: IntentDeactivate}},
		{"unbound key passes", Edge{Role: RoleNone, Down: true}, Decision{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Handle(tt.edge); got != tt.want {
				t.Errorf("Handle(%+v) = %+v, want %+v", tt.edge, got, tt.want)
			}
		})
	}
}

func TestResolver_ModifierTrigger(t *testing.T) {
	// Steps run in order against one resolver.
	steps := []struct {
		name string
		edge Edge
		want Decision
	}{
		{"trigger alone is swallowed but inert", Edge{Role: RoleTrigger, Down: true}, Decision{Suppress: true}},
		{"trigger release alone", Edge{Role: RoleTrigger, Down: false}, Decision{Suppress: true}},
		{"modifier press passes through", Edge{Role: RoleModifier, Down: true}, Decision{}},
		{"trigger with modifier held activates", Edge{Role: RoleTrigger, Down: true}, Decision{Suppress: true, Intent: IntentActivate}},
		{"early trigger release keeps recording", Edge{Role: RoleTrigger, Down: false}, Decision{Suppress: true}},
		{"modifier release deactivates", Edge{Role: RoleModifier, Down: false}, Decision{Intent: IntentDeactivate}},
		{"trigger after modifier release is inert", Edge{Role: RoleTrigger, Down: true}, Decision{Suppress: true}},
	}

	r := NewResolver(ModifierTrigger{Modifier: "ctrl", Trigger: "insert"})
	for _, s := range steps {
		if got := r.Handle(s.edge); got != s.want {
			t.Fatalf("%s: Handle(%+v) = %+v, want %+v", s.name, s.edge, got, s.want)
		}
	}
}

func TestResolver_ModifierCheckedAtTriggerPress(t *testing.T) {
	r := NewResolver(ModifierTrigger{Modifier: "ctrl", Trigger: "insert"})

	// Trigger first, modifier second: no activation because the modifier
	// was not held when the trigger went down.
	r.Handle(Edge{Role: RoleTrigger, Down: true})
	if d := r.Handle(Edge{Role: RoleModifier, Down: true}); d.Intent != IntentNone {
		t.Fatalf("modifier press produced %v", d.Intent)
	}
	r.Handle(Edge{Role: RoleTrigger, Down: false})

	if d := r.Handle(Edge{Role: RoleTrigger, Down: true}); d.Intent != IntentActivate {
		t.Fatalf("trigger with modifier held produced %v, want activate", d.Intent)
	}
}

func TestResolver_BothModifierKeys(t *testing.T) {
	const leftCtrl, rightCtrl = 0xA2, 0xA3

	steps := []struct {
		name string
		edge Edge
		want Decision
	}{
		{"left ctrl down", Edge{Role: RoleModifier, Code: leftCtrl, Down: true}, Decision{}},
		{"right ctrl down", Edge{Role: RoleModifier, Code: rightCtrl, Down: true}, Decision{}},
		{"trigger activates", Edge{Role: RoleTrigger, Down: true}, Decision{Suppress: true, Intent: IntentActivate}},
		{"trigger up", Edge{Role: RoleTrigger, Down: false}, Decision{Suppress: true}},
		{"right ctrl up while left held", Edge{Role: RoleModifier, Code: rightCtrl, Down: false}, Decision{}},
		{"left ctrl auto-repeat", Edge{Role: RoleModifier, Code: leftCtrl, Down: true}, Decision{}},
		{"trigger still activates", Edge{Role: RoleTrigger, Down: true}, Decision{Suppress: true, Intent: IntentActivate}},
		{"last ctrl up deactivates", Edge{Role: RoleModifier, Code: leftCtrl, Down: false}, Decision{Intent: IntentDeactivate}},
		{"trigger after release is inert", Edge{Role: RoleTrigger, Down: true}, Decision{Suppress: true}},
	}

	r := NewResolver(ModifierTrigger{Modifier: "ctrl", Trigger: "insert"})
	for _, s := range steps {
		if got := r.Handle(s.edge); got != s.want {
			t.Fatalf("%s: Handle(%+v) = %+v, want %+v", s.name, s.edge, got, s.want)
		}
	}
}

func TestRoles(t *testing.T) {
	got := Roles(MustParse("right ctrl+menu"))
	if got["right ctrl"] != RoleModifier || got["menu"] != RoleTrigger || len(got) != 2 {
		t.Errorf("Roles = %v", got)
	}
	got = Roles(MustParse("f9"))
	if got["f9"] != RoleKey || len(got) != 1 {
		t.Errorf("Roles = %v", got)
	}
}
