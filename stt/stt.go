// Package stt provides speech-to-text provider interface and implementations.
package stt

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrTranscription is returned when a provider fails to transcribe a session.
var ErrTranscription = errors.New("stt: transcription failed")

// ErrNotReady is returned when a provider is used before Setup succeeded.
var ErrNotReady = errors.New("stt: provider not ready")

// TranscribeResult represents the result of a transcription.
type TranscribeResult struct {
	Text       string    `json:"text"`       // Transcribed text
	Language   string    `json:"language"`   // Declared or detected language code
	Confidence float64   `json:"confidence"` // Recognition confidence 0-1
	Segments   []Segment `json:"segments"`   // Time-stamped segments
}

// Segment represents a time-stamped audio segment.
type Segment struct {
	Text  string        `json:"text"`
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
}

// Transcriber converts audio to text.
type Transcriber interface {
	// Transcribe converts audio samples to text.
	// audio: PCM float32 samples at 16000 Hz sample rate
	// language: source language code (empty for auto-detect)
	Transcribe(ctx context.Context, audio []float32, language string) (*TranscribeResult, error)
}

// Provider is a Transcriber with a lifecycle. Both local (whisper.cpp) and
// remote (OpenAI API) implementations satisfy it.
type Provider interface {
	Transcriber

	// Name returns the provider identifier.
	Name() string

	// IsReady returns true if the provider is ready to use.
	IsReady() bool

	// Setup performs initialization (e.g., download model).
	// The progress callback receives percentage (0-100).
	Setup(ctx context.Context, progress func(percent int)) error

	// Close releases resources held by the provider.
	Close() error
}

// Backend names.
const (
	BackendWhisperLocal = "whisper-local"
	BackendWhisperAPI   = "whisper-api"
)

// Options selects and configures a provider.
type Options struct {
	Backend string
	Model   string // Model size for whisper-local, model id for whisper-api
	Device  string // "cpu" disables GPU offload
	APIKey  string
	BaseURL string
}

// New creates the provider named by opts.Backend. An empty backend selects
// whisper-local.
func New(opts Options) (Provider, error) {
	switch opts.Backend {
	case "", BackendWhisperLocal:
		return NewWhisperLocal(WhisperLocalConfig{
			ModelSize: opts.Model,
			UseGPU:    !strings.EqualFold(opts.Device, "cpu"),
		})
	case BackendWhisperAPI:
		model := opts.Model
		if _, ok := modelSizes[model]; ok {
			// A local model size is not an API model id.
			model = ""
		}
		return NewWhisperAPI(WhisperAPIConfig{
			APIKey:  opts.APIKey,
			BaseURL: opts.BaseURL,
			Model:   model,
		}), nil
	default:
		return nil, fmt.Errorf("unknown stt backend: %q", opts.Backend)
	}
}

var (
	// regexTimestamp matches VTT/SRT timestamps like [00:00:00.000 --> 00:00:04.000]
	regexTimestamp = regexp.MustCompile(`\[\d{2}:\d{2}:\d{2}\.\d{3}\s-->\s\d{2}:\d{2}:\d{2}\.\d{3}\]`)
	// regexArtifacts matches non-speech markers like [BLANK_AUDIO] or (music)
	regexArtifacts = regexp.MustCompile(`\[[A-Z_ ]+\]|\((?i:music|silence|inaudible|blank_audio)\)`)

	regexSpaces = regexp.MustCompile(`\s+`)
)

// cleanText removes timestamps and non-speech artifacts from the text.
func cleanText(text string) string {
	text = regexTimestamp.ReplaceAllString(text, "")
	text = regexArtifacts.ReplaceAllString(text, "")
	text = regexSpaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
