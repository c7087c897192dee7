package hotkey

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrRegistration is returned when the OS refuses a binding, either because
// a key name is unknown or because hooking the keyboard is not permitted.
var ErrRegistration = errors.New("hotkey registration failed")

// HookFunc receives edges for keys of the installed binding and reports
// whether the event must be swallowed. It runs on the OS hook thread and
// must return quickly.
type HookFunc func(Edge) (suppress bool)

// Hook is an installed keyboard hook.
type Hook interface {
	Close() error
}

// Backend installs global keyboard hooks.
type Backend interface {
	Install(b Binding, fn HookFunc) (Hook, error)
}

// Listener is an activation source: it owns an installed hook and delivers
// the intents it produces, in order, on Intents.
type Listener struct {
	hook Hook

	mu       sync.Mutex
	resolver *Resolver
	queue    []Intent

	signal chan struct{}
	out    chan Intent
	done   chan struct{}
	once   sync.Once
}

// Listen installs b on backend and starts delivering intents.
func Listen(backend Backend, b Binding) (*Listener, error) {
	l := &Listener{
		resolver: NewResolver(b),
		signal:   make(chan struct{}, 1),
		out:      make(chan Intent),
		done:     make(chan struct{}),
	}

	hook, err := backend.Install(b, l.handle)
	if err != nil {
		return nil, err
	}
	l.hook = hook

	go l.pump()
	return l, nil
}

// Bind listens on the configured binding and falls back to the default
// binding when the configured one cannot be registered. An error is
// returned only when the fallback fails as well.
func Bind(backend Backend, configured Binding) (*Listener, error) {
	l, err := Listen(backend, configured)
	if err == nil {
		return l, nil
	}
	if configured.String() == DefaultBinding.String() {
		return nil, err
	}

	slog.Warn("register hotkey, falling back to default",
		"hotkey", configured.String(), "fallback", DefaultBinding.String(), "error", err)

	l, ferr := Listen(backend, DefaultBinding)
	if ferr != nil {
		return nil, fmt.Errorf("register fallback hotkey %q: %w", DefaultBinding, errors.Join(ferr, err))
	}
	return l, nil
}

// Binding returns the binding that is actually installed.
func (l *Listener) Binding() Binding {
	return l.resolver.Binding()
}

// Intents returns the channel of resolved intents. It is closed by Close.
func (l *Listener) Intents() <-chan Intent {
	return l.out
}

// Close releases the keyboard hook and stops delivery.
func (l *Listener) Close() error {
	var err error
	l.once.Do(func() {
		err = l.hook.Close()
		close(l.done)
	})
	return err
}

// handle runs on the hook thread. It never blocks on the consumer.
func (l *Listener) handle(e Edge) bool {
	l.mu.Lock()
	d := l.resolver.Handle(e)
	if d.Intent != IntentNone {
		l.queue = append(l.queue, d.Intent)
	}
	l.mu.Unlock()

	if d.Intent != IntentNone {
		select {
		case l.signal <- struct{}{}:
		default:
		}
	}
	return d.Suppress
}

func (l *Listener) pump() {
	defer close(l.out)
	for {
		select {
		case <-l.done:
			return
		case <-l.signal:
		}

		l.mu.Lock()
		pending := l.queue
		l.queue = nil
		l.mu.Unlock()

		for _, in := range pending {
			select {
			case l.out <- in:
			case <-l.done:
				return
			}
		}
	}
}
