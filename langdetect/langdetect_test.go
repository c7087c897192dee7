package langdetect

import "testing"

func TestDetect(t *testing.T) {
	d := New("en", "de", "fr", "nope", "en")

	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"The quick brown fox jumps over the lazy dog.", "en", true},
		{"Der schnelle braune Fuchs springt über den faulen Hund.", "de", true},
		{"Le renard brun rapide saute par-dessus le chien paresseux.", "fr", true},
		{"   ", "", false},
	}

	for _, tt := range tests {
		got, ok := d.Detect(tt.text)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Detect(%q) = %q, %v, want %q, %v", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestDetect_SingleCandidate(t *testing.T) {
	d := New("DE", "nope", "auto")
	if d.detector != nil {
		t.Fatal("single candidate built a lingua detector")
	}

	tests := []struct {
		text   string
		want   string
		wantOK bool
	}{
		{"The quick brown fox jumps over the lazy dog.", "de", true},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := d.Detect(tt.text)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("Detect(%q) = %q, %v, want %q, %v", tt.text, got, ok, tt.want, tt.wantOK)
		}
	}
}
