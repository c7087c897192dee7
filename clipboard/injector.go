package clipboard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrInjection is returned when any step of an injection fails.
var ErrInjection = errors.New("clipboard: injection failed")

const (
	// DefaultSettleDelay lets the clipboard propagate before pasting.
	DefaultSettleDelay = 50 * time.Millisecond
	// DefaultRestoreDelay lets the target application consume the paste
	// before the previous contents come back.
	DefaultRestoreDelay = 100 * time.Millisecond
)

// InjectorConfig configures an Injector.
type InjectorConfig struct {
	Clipboard    Clipboard
	Paster       Paster
	SettleDelay  time.Duration // Zero selects DefaultSettleDelay
	RestoreDelay time.Duration // Zero selects DefaultRestoreDelay
}

// Injector pastes text while preserving the user's clipboard.
type Injector struct {
	clipboard    Clipboard
	paster       Paster
	settleDelay  time.Duration
	restoreDelay time.Duration
	sleep        func(time.Duration)
}

// NewInjector creates an Injector.
func NewInjector(cfg InjectorConfig) *Injector {
	if cfg.SettleDelay <= 0 {
		cfg.SettleDelay = DefaultSettleDelay
	}
	if cfg.RestoreDelay <= 0 {
		cfg.RestoreDelay = DefaultRestoreDelay
	}
	return &Injector{
		clipboard:    cfg.Clipboard,
		paster:       cfg.Paster,
		settleDelay:  cfg.SettleDelay,
		restoreDelay: cfg.RestoreDelay,
		sleep:        time.Sleep,
	}
}

// Inject places text on the clipboard, pastes it and restores whatever was
// there before. Steps fail independently: a failed paste does not stop the
// restore, and nothing already done is rolled back.
func (in *Injector) Inject(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrInjection, err)
	}

	var errs []error

	snapshot, err := in.clipboard.Read()
	if err != nil {
		// An empty or non-text clipboard reads as an error on some platforms.
		slog.Debug("no clipboard snapshot", "error", err)
		snapshot = ""
	}
	hasSnapshot := snapshot != ""

	if err := in.clipboard.Write(text); err != nil {
		slog.Error("failed to set clipboard", "error", err)
		errs = append(errs, fmt.Errorf("set clipboard: %w", err))
	} else {
		in.sleep(in.settleDelay)
		if err := in.paster.Paste(); err != nil {
			slog.Error("failed to paste", "error", err)
			errs = append(errs, fmt.Errorf("paste: %w", err))
		}
	}

	in.sleep(in.restoreDelay)

	if hasSnapshot {
		if err := in.clipboard.Write(snapshot); err != nil {
			slog.Error("failed to restore clipboard", "error", err)
			errs = append(errs, fmt.Errorf("restore clipboard: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInjection, errors.Join(errs...))
	}
	slog.Debug("text injected", "chars", len(text), "restored", hasSnapshot)
	return nil
}
