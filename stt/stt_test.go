package stt

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/wav"
)

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"  hello world  ", "hello world"},
		{"[BLANK_AUDIO]", ""},
		{"[00:00:00.000 --> 00:00:04.000]  hello", "hello"},
		{"hello (music) there", "hello there"},
		{"keep [this one] please", "keep [this one] please"},
	}
	for _, tt := range tests {
		if got := cleanText(tt.in); got != tt.want {
			t.Errorf("cleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseWhisperOutput(t *testing.T) {
	data := []byte(`{
		"result": {"language": "en"},
		"transcription": [
			{"text": " Hello", "offsets": {"from": 0, "to": 600}},
			{"text": " [BLANK_AUDIO]", "offsets": {"from": 600, "to": 900}},
			{"text": " world.", "offsets": {"from": 900, "to": 1200}}
		]
	}`)

	res, err := parseWhisperOutput(data, "")
	if err != nil {
		t.Fatalf("parseWhisperOutput: %v", err)
	}
	if res.Text != "Hello world." {
		t.Errorf("Text = %q", res.Text)
	}
	if res.Language != "en" {
		t.Errorf("Language = %q", res.Language)
	}
	if len(res.Segments) != 2 || res.Segments[1].End != 1200*time.Millisecond {
		t.Errorf("Segments = %+v", res.Segments)
	}

	if _, err := parseWhisperOutput([]byte("not json"), "en"); err == nil {
		t.Error("expected error for malformed output")
	}
}

func TestWhisperLocalArgs(t *testing.T) {
	tests := []struct {
		name     string
		useGPU   bool
		language string
		want     []string
	}{
		{
			name:     "cpu with language",
			language: "de",
			want:     []string{"-m", "m.bin", "-f", "a.wav", "-oj", "-of", "a", "-np", "-bs", "5", "-l", "de", "-ng"},
		},
		{
			name:   "gpu auto detect",
			useGPU: true,
			want:   []string{"-m", "m.bin", "-f", "a.wav", "-oj", "-of", "a", "-np", "-bs", "5", "-l", "auto"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &WhisperLocal{modelPath: "m.bin", useGPU: tt.useGPU, beamSize: defaultBeamSize}
			if got := w.args("a.wav", "a", tt.language); !slices.Equal(got, tt.want) {
				t.Errorf("args = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewWhisperLocal_NotReadyWithoutModel(t *testing.T) {
	w, err := NewWhisperLocal(WhisperLocalConfig{ModelSize: "tiny", ModelDir: t.TempDir(), BinPath: "/nonexistent/whisper-cli"})
	if err != nil {
		t.Fatalf("NewWhisperLocal: %v", err)
	}
	if w.IsReady() {
		t.Error("provider ready without model or binary")
	}

	_, err = w.Transcribe(context.Background(), make([]float32, 16000), "en")
	if !errors.Is(err, ErrTranscription) || !errors.Is(err, ErrNotReady) {
		t.Errorf("Transcribe error = %v, want ErrTranscription and ErrNotReady", err)
	}

	if _, err := NewWhisperLocal(WhisperLocalConfig{ModelSize: "huge"}); err == nil {
		t.Error("expected error for unknown model size")
	}
}

func TestDownloadModel(t *testing.T) {
	payload := strings.Repeat("ggml", 4096)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	dir := t.TempDir()
	w, err := NewWhisperLocal(WhisperLocalConfig{ModelSize: "tiny", ModelDir: dir, BinPath: "/nonexistent/whisper-cli"})
	if err != nil {
		t.Fatalf("NewWhisperLocal: %v", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	if err := w.downloadModel(context.Background(), srv.URL+"/missing", 0, nil); err == nil {
		t.Fatal("expected error for 404")
	}
	if _, err := os.Stat(w.modelPath); !os.IsNotExist(err) {
		t.Fatal("model file left behind after failed download")
	}

	var reports []int
	if err := w.downloadModel(context.Background(), srv.URL+"/model", 0, func(pct int) {
		reports = append(reports, pct)
	}); err != nil {
		t.Fatalf("downloadModel: %v", err)
	}

	data, err := os.ReadFile(w.modelPath)
	if err != nil || string(data) != payload {
		t.Fatalf("model content mismatch (err %v, %d bytes)", err, len(data))
	}
	if len(reports) == 0 || !slices.IsSorted(reports) || reports[len(reports)-1] > 99 {
		t.Errorf("progress reports = %v", reports)
	}
	leftovers, _ := filepath.Glob(filepath.Join(dir, "*.part"))
	if len(leftovers) != 0 {
		t.Errorf("temp files left: %v", leftovers)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		backend  string
		wantName string
		wantErr  bool
	}{
		{"", BackendWhisperLocal, false},
		{BackendWhisperLocal, BackendWhisperLocal, false},
		{BackendWhisperAPI, BackendWhisperAPI, false},
		{"vosk", "", true},
	}

	for _, tt := range tests {
		p, err := New(Options{Backend: tt.backend, Model: "tiny", Device: "cpu"})
		if tt.wantErr {
			if err == nil {
				t.Errorf("New(%q): expected error", tt.backend)
			}
			continue
		}
		if err != nil {
			t.Fatalf("New(%q): %v", tt.backend, err)
		}
		if p.Name() != tt.wantName {
			t.Errorf("New(%q).Name() = %q, want %q", tt.backend, p.Name(), tt.wantName)
		}
	}
}

func TestWhisperAPI_RequiresKey(t *testing.T) {
	w := NewWhisperAPI(WhisperAPIConfig{})
	if w.IsReady() {
		t.Fatal("ready without API key")
	}
	if err := w.Setup(context.Background(), nil); !errors.Is(err, ErrNotReady) {
		t.Errorf("Setup error = %v, want ErrNotReady", err)
	}
	if _, err := w.Transcribe(context.Background(), nil, ""); !errors.Is(err, ErrTranscription) {
		t.Errorf("Transcribe error = %v, want ErrTranscription", err)
	}
}

func TestWriteTempWAV(t *testing.T) {
	samples := []float32{0, 0.5, -0.5, 2, -2}
	path, err := writeTempWAV(samples, 16000)
	if err != nil {
		t.Fatalf("writeTempWAV: %v", err)
	}
	defer os.Remove(path)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if dec.SampleRate != 16000 || dec.NumChans != 1 || dec.BitDepth != 16 {
		t.Errorf("format = %d Hz, %d ch, %d bit", dec.SampleRate, dec.NumChans, dec.BitDepth)
	}
	want := []int{0, 16383, -16383, 32767, -32767}
	if !slices.Equal(buf.Data, want) {
		t.Errorf("data = %v, want %v", buf.Data, want)
	}
}

type stubTranscriber struct {
	result *TranscribeResult
	err    error
}

func (s stubTranscriber) Transcribe(context.Context, []float32, string) (*TranscribeResult, error) {
	return s.result, s.err
}

type stubDetector string

func (d stubDetector) Detect(string) (string, bool) { return string(d), d != "" }

func TestDetecting(t *testing.T) {
	tests := []struct {
		name   string
		result *TranscribeResult
		err    error
		want   string
	}{
		{"fills missing language", &TranscribeResult{Text: "hallo"}, nil, "de"},
		{"keeps provider language", &TranscribeResult{Text: "hallo", Language: "nl"}, nil, "nl"},
		{"skips empty text", &TranscribeResult{}, nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := WithDetection(stubTranscriber{result: tt.result, err: tt.err}, stubDetector("de"))
			res, err := d.Transcribe(context.Background(), nil, "")
			if err != nil {
				t.Fatalf("Transcribe: %v", err)
			}
			if res.Language != tt.want {
				t.Errorf("Language = %q, want %q", res.Language, tt.want)
			}
		})
	}

	d := WithDetection(stubTranscriber{err: ErrTranscription}, stubDetector("de"))
	if _, err := d.Transcribe(context.Background(), nil, ""); !errors.Is(err, ErrTranscription) {
		t.Errorf("error not passed through: %v", err)
	}
}
