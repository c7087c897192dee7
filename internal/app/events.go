// Package app provides the core application service for Wails bindings.
package app

// Event names for frontend communication.
const (
	EventState    = "dictation-state"
	EventLanguage = "dictation-language"
)

// StateEvent is emitted on every dictation state change.
type StateEvent struct {
	State string `json:"state"`
}
