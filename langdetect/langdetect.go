// Package langdetect guesses the language of transcribed text.
package langdetect

import (
	"strings"

	"github.com/pemistahl/lingua-go"
)

// Detector is a lingua language detector restricted to a set of candidates.
type Detector struct {
	detector lingua.LanguageDetector
	only     string // Set when there is a single candidate
}

// New builds a detector for the given ISO 639-1 codes. Unknown codes are
// skipped. A single usable code is returned as is without loading any
// model. With none, every spoken language is a candidate in low accuracy
// mode, which keeps the loaded models small.
func New(codes ...string) *Detector {
	isoCodes := make([]lingua.IsoCode639_1, 0, len(codes))
	seen := make(map[lingua.IsoCode639_1]bool, len(codes))
	for _, c := range codes {
		iso := lingua.GetIsoCode639_1FromValue(strings.ToUpper(strings.TrimSpace(c)))
		if iso == lingua.UnknownIsoCode639_1 || seen[iso] {
			continue
		}
		seen[iso] = true
		isoCodes = append(isoCodes, iso)
	}

	builder := lingua.NewLanguageDetectorBuilder()
	switch len(isoCodes) {
	case 0:
		return &Detector{detector: builder.FromAllSpokenLanguages().WithLowAccuracyMode().Build()}
	case 1:
		return &Detector{only: strings.ToLower(isoCodes[0].String())}
	default:
		return &Detector{detector: builder.FromIsoCodes639_1(isoCodes...).Build()}
	}
}

// Detect returns the lowercase ISO 639-1 code of text.
func (d *Detector) Detect(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	if d.only != "" {
		return d.only, true
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
