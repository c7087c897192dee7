package hotkey

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

// fakeBackend records installs and lets tests drive the hook function.
type fakeBackend struct {
	refuse map[string]bool
	fn     HookFunc
	bound  Binding
	closed int
}

func (f *fakeBackend) Install(b Binding, fn HookFunc) (Hook, error) {
	if f.refuse[b.String()] {
		return nil, fmt.Errorf("%w: refused %q", ErrRegistration, b)
	}
	f.fn = fn
	f.bound = b
	return f, nil
}

func (f *fakeBackend) Close() error {
	f.closed++
	return nil
}

func receive(t *testing.T, ch <-chan Intent) Intent {
	t.Helper()
	select {
	case in, ok := <-ch:
		if !ok {
			t.Fatal("intents channel closed")
		}
		return in
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for intent")
	}
	return IntentNone
}

func TestListener_DeliversIntentsInOrder(t *testing.T) {
	backend := &fakeBackend{}
	l, err := Listen(backend, MustParse("ctrl+insert"))
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer l.Close()

	// Nobody reads yet; the hook must not block.
	edges := []struct {
		edge     Edge
		suppress bool
	}{
		{Edge{Role: RoleModifier, Down: true}, false},
		{Edge{Role: RoleTrigger, Down: true}, true},
		{Edge{Role: RoleTrigger, Down: false}, true},
		{Edge{Role: RoleModifier, Down: false}, false},
		{Edge{Role: RoleModifier, Down: true}, false},
		{Edge{Role: RoleTrigger, Down: true}, true},
		{Edge{Role: RoleModifier, Down: false}, false},
	}
	for i, e := range edges {
		if got := backend.fn(e.edge); got != e.suppress {
			t.Fatalf("edge %d: suppress = %v, want %v", i, got, e.suppress)
		}
	}

	want := []Intent{IntentActivate, IntentDeactivate, IntentActivate, IntentDeactivate}
	for i, w := range want {
		if got := receive(t, l.Intents()); got != w {
			t.Fatalf("intent %d = %v, want %v", i, got, w)
		}
	}
}

func TestListener_CloseReleasesHook(t *testing.T) {
	backend := &fakeBackend{}
	l, err := Listen(backend, MustParse("f9"))
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}

	if err := l.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := l.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if backend.closed != 1 {
		t.Errorf("hook closed %d times, want 1", backend.closed)
	}

	select {
	case _, ok := <-l.Intents():
		if ok {
			t.Error("expected closed intents channel")
		}
	case <-time.After(time.Second):
		t.Error("intents channel not closed")
	}
}

func TestBind(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		refuse   []string
		wantBind string
		wantErr  bool
	}{
		{"configured binding", "f9", nil, "f9", false},
		{"falls back to default", "right ctrl+menu", []string{"right ctrl+menu"}, DefaultSpec, false},
		{"fallback also refused", "f9", []string{"f9", DefaultSpec}, "", true},
		{"default refused", DefaultSpec, []string{DefaultSpec}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &fakeBackend{refuse: map[string]bool{}}
			for _, r := range tt.refuse {
				backend.refuse[r] = true
			}

			l, err := Bind(backend, MustParse(tt.spec))
			if tt.wantErr {
				if !errors.Is(err, ErrRegistration) {
					t.Fatalf("Bind error = %v, want ErrRegistration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Bind: %v", err)
			}
			defer l.Close()

			if got := l.Binding().String(); got != tt.wantBind {
				t.Errorf("bound %q, want %q", got, tt.wantBind)
			}
			if got := backend.bound.String(); got != tt.wantBind {
				t.Errorf("backend installed %q, want %q", got, tt.wantBind)
			}
		})
	}
}
