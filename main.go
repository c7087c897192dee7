package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/wailsapp/wails/v3/pkg/application"
	"github.com/wailsapp/wails/v3/pkg/events"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"go.aimuz.me/dictator/config"
	"go.aimuz.me/dictator/dictation"
	"go.aimuz.me/dictator/feedback"
	"go.aimuz.me/dictator/hotkey"
	"go.aimuz.me/dictator/internal/app"
	"go.aimuz.me/dictator/internal/logging"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	var (
		showKeys   = flag.Bool("keys", false, "print the name of every key pressed, for use in the hotkey setting")
		configPath = flag.String("config", "", "path to config.json (default: user config dir)")
	)
	flag.Parse()

	if *showKeys {
		printKeyNames()
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		if !errors.Is(err, config.ErrInvalid) {
			slog.Error("load config", "error", err)
			os.Exit(1)
		}
		slog.Warn("config has invalid fields, using defaults for them", "error", err)
	}

	logCloser, err := setupLogging(cfg)
	if err != nil {
		slog.Error("setup logging", "error", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	slog.Info("starting dictator", "version", version, "commit", commit, "date", date, "config", cfg.Path())

	if err := run(cfg); err != nil {
		slog.Error("run app", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func setupLogging(cfg *config.Config) (io.Closer, error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}

	opts := logging.Options{Level: level}
	if cfg.LogToConsole {
		opts.Console = os.Stderr
	}
	if cfg.LogToFile {
		opts.File = cfg.LogPath()
	}

	logger, closer, err := logging.New(opts)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)
	return closer, nil
}

// printKeyNames lists pressed keys until Escape or an interrupt.
func printKeyNames() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Println("Press keys to see their names. Press Esc or Ctrl+C to quit.")
	for key := range hotkey.KeyNames(ctx) {
		fmt.Println(key)
		if key.Name == "esc" {
			return
		}
	}
}

func run(cfg *config.Config) error {
	service := app.New(version)

	wailsApp := application.New(application.Options{
		Name:        "Dictator",
		Description: "Push-to-talk dictation",
		Services: []application.Service{
			application.NewService(service),
		},
		Mac: application.MacOptions{
			ActivationPolicy: application.ActivationPolicyAccessory,
			// There is no window; the tray keeps the app alive
			ApplicationShouldTerminateAfterLastWindowClosed: false,
		},
	})

	tray := newTray(wailsApp, service)

	err := service.Init(context.Background(), wailsApp, app.Options{
		Config:  cfg,
		OnState: tray.showState,
	})
	if err != nil {
		return fmt.Errorf("init dictation: %w", err)
	}
	tray.build()

	return wailsApp.Run()
}

// ─────────────────────────────────────────────────────────────────────────────
// System tray
// ─────────────────────────────────────────────────────────────────────────────

type tray struct {
	app     *application.App
	service *app.Service
	icon    *application.SystemTray
	menu    *application.Menu
	status  *application.MenuItem

	// State changes before the event loop runs are held until it starts.
	mu      sync.Mutex
	started bool
	state   dictation.State
	iconPNG []byte
}

func newTray(wailsApp *application.App, service *app.Service) *tray {
	t := &tray{
		app:     wailsApp,
		service: service,
		icon:    wailsApp.SystemTray.New(),
		menu:    wailsApp.NewMenu(),
		iconPNG: feedback.Icon(dictation.StateIdle),
	}
	// SetIcon keeps the original colors instead of a monochrome template
	t.icon.SetIcon(t.iconPNG)
	t.icon.SetTooltip("Dictator")
	t.status = t.menu.Add(statusLabel(dictation.StateIdle)).SetEnabled(false)

	wailsApp.Event.OnApplicationEvent(events.Common.ApplicationStarted, func(*application.ApplicationEvent) {
		t.mu.Lock()
		t.started = true
		state, icon := t.state, t.iconPNG
		t.mu.Unlock()
		t.render(state, icon)
	})
	return t
}

func (t *tray) build() {
	t.menu.Add("Hotkey: " + t.service.Hotkey()).SetEnabled(false)
	t.menu.AddSeparator()

	langMenu := t.menu.AddSubmenu("Language")
	current := t.service.Language()
	for _, code := range t.service.LanguagePresets() {
		langMenu.AddRadio(languageLabel(code), code == current).OnClick(func(ctx *application.Context) {
			if err := t.service.SetLanguage(code); err != nil {
				slog.Error("set language", "language", code, "error", err)
			}
		})
	}

	beep := t.menu.AddCheckbox("Sound cues", t.service.BeepEnabled())
	beep.OnClick(func(ctx *application.Context) {
		if err := t.service.SetBeepEnabled(ctx.ClickedMenuItem().Checked()); err != nil {
			slog.Error("save beep setting", "error", err)
		}
	})

	t.menu.AddSeparator()
	t.menu.Add("Quit").
		SetAccelerator("CmdOrCtrl+Q").
		OnClick(func(ctx *application.Context) {
			t.app.Quit()
		})

	t.icon.SetMenu(t.menu)
}

func (t *tray) showState(state dictation.State, icon []byte) {
	t.mu.Lock()
	t.state, t.iconPNG = state, icon
	started := t.started
	t.mu.Unlock()
	if started {
		t.render(state, icon)
	}
}

func (t *tray) render(state dictation.State, icon []byte) {
	t.icon.SetIcon(icon)
	t.status.SetLabel(statusLabel(state))
	t.menu.Update()
}

func statusLabel(state dictation.State) string {
	s := state.String()
	return "Status: " + strings.ToUpper(s[:1]) + s[1:]
}

func languageLabel(code string) string {
	if code == config.AutoLanguage {
		return "Auto-detect"
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if name := display.Self.Name(tag); name != "" {
		return fmt.Sprintf("%s (%s)", name, code)
	}
	return code
}
