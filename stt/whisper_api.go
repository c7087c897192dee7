package stt

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// WhisperAPI implements the Provider interface using OpenAI's Whisper API.
type WhisperAPI struct {
	model  string
	client openai.Client

	mu    sync.RWMutex
	ready bool
}

// WhisperAPIConfig holds configuration for WhisperAPI.
type WhisperAPIConfig struct {
	APIKey  string
	BaseURL string // Optional, defaults to OpenAI's API
	Model   string // Optional, defaults to "whisper-1"
}

// NewWhisperAPI creates a new WhisperAPI provider.
func NewWhisperAPI(cfg WhisperAPIConfig) *WhisperAPI {
	model := cfg.Model
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &WhisperAPI{
		model:  model,
		client: openai.NewClient(opts...),
		ready:  cfg.APIKey != "",
	}
}

func (w *WhisperAPI) Name() string { return BackendWhisperAPI }

func (w *WhisperAPI) IsReady() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ready
}

// Setup only validates that an API key was configured.
func (w *WhisperAPI) Setup(_ context.Context, _ func(percent int)) error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.ready {
		return fmt.Errorf("%w: API key is required", ErrNotReady)
	}
	return nil
}

// Transcribe sends audio to the Whisper API for transcription.
func (w *WhisperAPI) Transcribe(ctx context.Context, audio []float32, language string) (*TranscribeResult, error) {
	if !w.IsReady() {
		return nil, fmt.Errorf("%w: %w: API key required", ErrTranscription, ErrNotReady)
	}

	path, err := writeTempWAV(audio, 16000)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read wav: %w", ErrTranscription, err)
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(data), "audio.wav", "audio/wav"),
		Model: openai.AudioModel(w.model),
	}
	// The API does not accept "auto"; omitting the field means auto-detect.
	if language != "" && !strings.EqualFold(language, "auto") {
		params.Language = openai.String(language)
	}

	resp, err := w.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: whisper api: %w", ErrTranscription, err)
	}

	return &TranscribeResult{
		Text:       cleanText(resp.Text),
		Language:   language,
		Confidence: 1.0, // API doesn't return confidence, assume high
	}, nil
}

func (w *WhisperAPI) Close() error {
	return nil
}
