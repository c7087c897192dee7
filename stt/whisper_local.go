package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// defaultBeamSize matches the decoding the dictation workflow was tuned on.
const defaultBeamSize = 5

// WhisperLocal implements the Provider interface using local whisper.cpp.
// It uses the whisper-cpp CLI tool for transcription.
type WhisperLocal struct {
	modelPath string
	modelSize string // "tiny", "base", "small", "medium", "large"
	binPath   string // Path to whisper-cpp binary
	useGPU    bool
	beamSize  int

	mu        sync.RWMutex
	ready     bool
	hasBinary bool
}

// WhisperLocalConfig holds configuration for WhisperLocal.
type WhisperLocalConfig struct {
	ModelSize string // "tiny", "base", "small", "medium", "large"
	ModelDir  string // Directory to store models
	BinPath   string // Path to whisper-cpp binary (optional, searched if not set)
	UseGPU    bool
	BeamSize  int // Zero selects 5
}

// Model sizes and their approximate download sizes.
var modelSizes = map[string]struct {
	URL  string
	Size int64 // Approximate size in bytes
}{
	"tiny":   {"https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-tiny.bin", 75 * 1024 * 1024},
	"base":   {"https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-base.bin", 150 * 1024 * 1024},
	"small":  {"https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-small.bin", 500 * 1024 * 1024},
	"medium": {"https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-medium.bin", 1500 * 1024 * 1024},
	"large":  {"https://huggingface.co/ggerganov/whisper.cpp/resolve/main/ggml-large-v3.bin", 3000 * 1024 * 1024},
}

// NewWhisperLocal creates a new WhisperLocal provider.
func NewWhisperLocal(cfg WhisperLocalConfig) (*WhisperLocal, error) {
	if cfg.ModelSize == "" {
		cfg.ModelSize = "tiny"
	}

	if _, ok := modelSizes[cfg.ModelSize]; !ok {
		return nil, fmt.Errorf("invalid model size: %s", cfg.ModelSize)
	}

	if cfg.ModelDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		cfg.ModelDir = filepath.Join(homeDir, ".dictator", "models")
	}

	if cfg.BeamSize <= 0 {
		cfg.BeamSize = defaultBeamSize
	}

	w := &WhisperLocal{
		modelSize: cfg.ModelSize,
		modelPath: filepath.Join(cfg.ModelDir, fmt.Sprintf("ggml-%s.bin", cfg.ModelSize)),
		binPath:   cfg.BinPath,
		useGPU:    cfg.UseGPU,
		beamSize:  cfg.BeamSize,
	}

	if w.binPath == "" {
		w.binPath = findWhisperBinary()
	}
	if w.binPath != "" {
		if _, err := os.Stat(w.binPath); err == nil {
			w.hasBinary = true
		}
	}

	// Ready only if both binary and model exist
	if _, err := os.Stat(w.modelPath); err == nil && w.hasBinary {
		w.ready = true
	}

	return w, nil
}

func (w *WhisperLocal) Name() string { return BackendWhisperLocal }

func (w *WhisperLocal) IsReady() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.ready
}

// Setup downloads the whisper model if needed. The whisper.cpp binary
// itself must already be installed.
func (w *WhisperLocal) Setup(ctx context.Context, progress func(percent int)) error {
	w.mu.Lock()
	if w.ready {
		w.mu.Unlock()
		return nil
	}
	if !w.hasBinary {
		w.mu.Unlock()
		return fmt.Errorf("%w: whisper-cpp binary not found, please install whisper.cpp", ErrNotReady)
	}
	w.mu.Unlock()

	if _, err := os.Stat(w.modelPath); err != nil {
		modelInfo := modelSizes[w.modelSize]

		if err := os.MkdirAll(filepath.Dir(w.modelPath), 0755); err != nil {
			return fmt.Errorf("create model dir: %w", err)
		}
		if err := w.downloadModel(ctx, modelInfo.URL, modelInfo.Size, progress); err != nil {
			return fmt.Errorf("download model: %w", err)
		}
	}

	w.mu.Lock()
	w.ready = true
	w.mu.Unlock()

	if progress != nil {
		progress(100)
	}

	return nil
}

// downloadModel fetches url into the model path. The file is written under a
// temporary name and renamed once complete, so an interrupted download never
// leaves a truncated model behind.
func (w *WhisperLocal) downloadModel(ctx context.Context, url string, expectedSize int64, progress func(percent int)) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("http get: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("http status: %d", resp.StatusCode)
	}
	if resp.ContentLength > 0 {
		expectedSize = resp.ContentLength
	}

	tmp, err := os.CreateTemp(filepath.Dir(w.modelPath), filepath.Base(w.modelPath)+".*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	counter := &progressWriter{total: expectedSize, report: progress}
	if _, err := io.Copy(tmp, io.TeeReader(resp.Body, counter)); err != nil {
		tmp.Close()
		return fmt.Errorf("write model: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close model: %w", err)
	}
	return os.Rename(tmp.Name(), w.modelPath)
}

// progressWriter counts bytes and reports whole percentages, capped at 99
// until the download is renamed into place.
type progressWriter struct {
	total   int64
	written int64
	last    int
	report  func(pct int)
}

func (p *progressWriter) Write(b []byte) (int, error) {
	p.written += int64(len(b))
	if p.total <= 0 || p.report == nil {
		return len(b), nil
	}
	if pct := min(int(p.written*100/p.total), 99); pct > p.last {
		p.last = pct
		p.report(pct)
	}
	return len(b), nil
}

// Transcribe converts audio samples to text using local whisper.cpp.
func (w *WhisperLocal) Transcribe(ctx context.Context, audio []float32, language string) (*TranscribeResult, error) {
	if !w.IsReady() {
		return nil, fmt.Errorf("%w: %w: model not downloaded", ErrTranscription, ErrNotReady)
	}

	audioPath, err := writeTempWAV(audio, 16000)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	defer os.Remove(audioPath)

	outBase := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	outPath := outBase + ".json"
	defer os.Remove(outPath)

	cmd := exec.CommandContext(ctx, w.binPath, w.args(audioPath, outBase, language)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: whisper-cpp: %w, stderr: %s", ErrTranscription, err, strings.TrimSpace(stderr.String()))
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("%w: read whisper output: %w", ErrTranscription, err)
	}

	result, err := parseWhisperOutput(data, language)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTranscription, err)
	}
	return result, nil
}

// args builds the whisper.cpp command line.
func (w *WhisperLocal) args(audioPath, outBase, language string) []string {
	args := []string{
		"-m", w.modelPath,
		"-f", audioPath,
		"-oj", // Output JSON
		"-of", outBase,
		"-np",
		"-bs", strconv.Itoa(w.beamSize),
	}
	if language == "" {
		language = "auto"
	}
	args = append(args, "-l", language)
	if !w.useGPU {
		args = append(args, "-ng")
	}
	return args
}

// parseWhisperOutput converts whisper.cpp JSON into a TranscribeResult.
func parseWhisperOutput(data []byte, language string) (*TranscribeResult, error) {
	var out whisperCppOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}

	if out.Result.Language != "" {
		language = out.Result.Language
	}

	result := &TranscribeResult{
		Language:   language,
		Confidence: 0.9,
		Segments:   make([]Segment, 0, len(out.Transcription)),
	}

	var text strings.Builder
	for _, seg := range out.Transcription {
		segText := cleanText(seg.Text)
		if segText == "" {
			continue
		}
		if text.Len() > 0 {
			text.WriteByte(' ')
		}
		text.WriteString(segText)
		result.Segments = append(result.Segments, Segment{
			Text:  segText,
			Start: time.Duration(seg.Offsets.From) * time.Millisecond,
			End:   time.Duration(seg.Offsets.To) * time.Millisecond,
		})
	}
	result.Text = text.String()

	return result, nil
}

func findWhisperBinary() string {
	// Common binary names - whisper-cli is the Homebrew name
	names := []string{"whisper-cli", "whisper-cpp", "whisper", "main"}
	if runtime.GOOS == "windows" {
		for i, name := range names {
			names[i] = name + ".exe"
		}
	}

	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	homeDir, _ := os.UserHomeDir()
	locations := []string{
		"/opt/homebrew/bin",
		"/usr/local/bin",
		filepath.Join(homeDir, ".local", "bin"),
		filepath.Join(homeDir, "whisper.cpp"),
		filepath.Join(homeDir, "whisper.cpp", "build", "bin"),
	}

	// Next to our own executable
	if execPath, err := os.Executable(); err == nil {
		locations = append(locations, filepath.Dir(execPath))
	}

	for _, loc := range locations {
		for _, name := range names {
			path := filepath.Join(loc, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
	}

	return ""
}

func (w *WhisperLocal) Close() error {
	return nil
}

// whisperCppOutput represents the JSON output from whisper.cpp.
type whisperCppOutput struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Text    string `json:"text"`
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
	} `json:"transcription"`
}
