package hotkey

import (
	"fmt"
	"strings"
)

// aliases maps alternative spellings to the canonical key names used by
// the backend key tables.
var aliases = map[string]string{
	"control":       "ctrl",
	"left control":  "left ctrl",
	"right control": "right ctrl",
	"lctrl":         "left ctrl",
	"rctrl":         "right ctrl",
	"lalt":          "left alt",
	"ralt":          "right alt",
	"altgr":         "alt gr",
	"lshift":        "left shift",
	"rshift":        "right shift",
	"win":           "windows",
	"super":         "windows",
	"cmd":           "windows",
	"command":       "windows",
	"apps":          "menu",
	"application":   "menu",
	"ins":           "insert",
	"del":           "delete",
	"escape":        "esc",
	"return":        "enter",
	"pgup":          "page up",
	"pgdn":          "page down",
	"prtsc":         "print screen",
	"capslock":      "caps lock",
	"scrolllock":    "scroll lock",
}

// canonical normalizes a key name for table lookup.
func canonical(name string) string {
	n := strings.Join(strings.Fields(strings.ToLower(name)), " ")
	if a, ok := aliases[n]; ok {
		return a
	}
	return n
}

// codeRoles resolves every key of b through lookup and returns the role of
// each code. Unknown names fail with ErrRegistration.
func codeRoles[C comparable](b Binding, lookup func(name string) ([]C, bool)) (map[C]Role, error) {
	out := make(map[C]Role)
	for name, role := range Roles(b) {
		codes, ok := lookup(canonical(name))
		if !ok || len(codes) == 0 {
			return nil, fmt.Errorf("%w: unknown key %q", ErrRegistration, name)
		}
		for _, c := range codes {
			out[c] = role
		}
	}
	return out, nil
}
