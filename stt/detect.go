package stt

import (
	"context"
	"log/slog"
)

// Detector guesses the language of a piece of text.
type Detector interface {
	Detect(text string) (code string, ok bool)
}

// Detecting fills in the language of results that came back without one,
// which happens when the provider was asked to auto-detect and did not
// report what it found.
type Detecting struct {
	next     Transcriber
	detector Detector
}

// WithDetection wraps t so that results always carry a language when d can
// tell.
func WithDetection(t Transcriber, d Detector) *Detecting {
	return &Detecting{next: t, detector: d}
}

func (d *Detecting) Transcribe(ctx context.Context, audio []float32, language string) (*TranscribeResult, error) {
	result, err := d.next.Transcribe(ctx, audio, language)
	if err != nil || result == nil || result.Language != "" || result.Text == "" {
		return result, err
	}

	if code, ok := d.detector.Detect(result.Text); ok {
		slog.Debug("language detected", "language", code)
		result.Language = code
	}
	return result, nil
}
