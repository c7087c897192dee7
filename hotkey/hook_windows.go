//go:build windows

package hotkey

import (
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32                  = windows.NewLazySystemDLL("user32.dll")
	procSetWindowsHookExW   = user32.NewProc("SetWindowsHookExW")
	procUnhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	procCallNextHookEx      = user32.NewProc("CallNextHookEx")
	procGetMessageW         = user32.NewProc("GetMessageW")
	procPostThreadMessageW  = user32.NewProc("PostThreadMessageW")
)

const (
	whKeyboardLL  = 13
	wmKeyDown     = 0x0100
	wmKeyUp       = 0x0101
	wmSysKeyDown  = 0x0104
	wmSysKeyUp    = 0x0105
	wmQuit        = 0x0012
	llkhfInjected = 0x10

	installTimeout = 2 * time.Second
)

type kbdllHookStruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

type winMsg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	ptX     int32
	ptY     int32
}

// virtualKeys maps canonical key names to Windows virtual-key codes.
var virtualKeys = map[string][]uint32{
	"ctrl":          {0x11, 0xA2, 0xA3},
	"left ctrl":     {0xA2},
	"right ctrl":    {0xA3},
	"alt":           {0x12, 0xA4, 0xA5},
	"left alt":      {0xA4},
	"right alt":     {0xA5},
	"alt gr":        {0xA5},
	"shift":         {0x10, 0xA0, 0xA1},
	"left shift":    {0xA0},
	"right shift":   {0xA1},
	"windows":       {0x5B, 0x5C},
	"left windows":  {0x5B},
	"right windows": {0x5C},
	"menu":          {0x5D},
	"insert":        {0x2D},
	"delete":        {0x2E},
	"home":          {0x24},
	"end":           {0x23},
	"page up":       {0x21},
	"page down":     {0x22},
	"pause":         {0x13},
	"caps lock":     {0x14},
	"scroll lock":   {0x91},
	"num lock":      {0x90},
	"print screen":  {0x2C},
	"space":         {0x20},
	"enter":         {0x0D},
	"tab":           {0x09},
	"esc":           {0x1B},
	"backspace":     {0x08},
	"up":            {0x26},
	"down":          {0x28},
	"left":          {0x25},
	"right":         {0x27},
}

func init() {
	for i := 1; i <= 24; i++ {
		virtualKeys[fmt.Sprintf("f%d", i)] = []uint32{uint32(0x70 + i - 1)}
	}
	for c := 'a'; c <= 'z'; c++ {
		virtualKeys[string(c)] = []uint32{uint32('A' + (c - 'a'))}
	}
	for c := '0'; c <= '9'; c++ {
		virtualKeys[string(c)] = []uint32{uint32(c)}
	}
}

func lookupVirtualKey(name string) ([]uint32, bool) {
	codes, ok := virtualKeys[name]
	return codes, ok
}

// windowsBackend installs a WH_KEYBOARD_LL hook, which can swallow events.
type windowsBackend struct{}

// NewBackend returns the keyboard hook backend for this platform.
func NewBackend() Backend {
	return windowsBackend{}
}

type windowsHook struct {
	threadID uint32
	done     chan struct{}
	once     sync.Once
}

func (windowsBackend) Install(b Binding, fn HookFunc) (Hook, error) {
	roles, err := codeRoles(b, lookupVirtualKey)
	if err != nil {
		return nil, err
	}

	h := &windowsHook{done: make(chan struct{})}
	errCh := make(chan error, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()
		defer close(h.done)

		callback := windows.NewCallback(func(nCode, wParam, lParam uintptr) uintptr {
			if int32(nCode) < 0 {
				ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
				return ret
			}

			k := (*kbdllHookStruct)(unsafe.Pointer(lParam))
			role, ok := roles[k.vkCode]
			// Injected events include our own paste keystroke.
			if !ok || k.flags&llkhfInjected != 0 {
				ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
				return ret
			}

			var down bool
			switch uint32(wParam) {
			case wmKeyDown, wmSysKeyDown:
				down = true
			case wmKeyUp, wmSysKeyUp:
				down = false
			default:
				ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
				return ret
			}

			if fn(Edge{Role: role, Code: k.vkCode, Down: down}) {
				return 1
			}
			ret, _, _ := procCallNextHookEx.Call(0, nCode, wParam, lParam)
			return ret
		})

		hook, _, callErr := procSetWindowsHookExW.Call(whKeyboardLL, callback, 0, 0)
		if hook == 0 {
			errCh <- fmt.Errorf("%w: SetWindowsHookExW: %v", ErrRegistration, callErr)
			return
		}
		h.threadID = windows.GetCurrentThreadId()
		errCh <- nil

		var msg winMsg
		for {
			ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&msg)), 0, 0, 0)
			if int32(ret) <= 0 {
				break
			}
		}
		procUnhookWindowsHookEx.Call(hook)
		slog.Debug("keyboard hook uninstalled")
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return nil, err
		}
	case <-time.After(installTimeout):
		return nil, fmt.Errorf("%w: timeout installing keyboard hook", ErrRegistration)
	}

	slog.Info("keyboard hook installed", "hotkey", b.String(), "suppress", true)
	return h, nil
}

func (h *windowsHook) Close() error {
	h.once.Do(func() {
		procPostThreadMessageW.Call(uintptr(h.threadID), wmQuit, 0, 0)
		<-h.done
	})
	return nil
}
