package language

import (
	"strings"

	"github.com/pemistahl/lingua-go"

	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

// LinguaDetector adapts the lingua statistical detector to the
// LanguageDetector port.
type LinguaDetector struct {
	detector lingua.LanguageDetector
}

var _ ports.LanguageDetector = (*LinguaDetector)(nil)

// NewLinguaDetector builds a detector over all supported languages. The
// model tables load lazily, so construction is cheap.
func NewLinguaDetector() *LinguaDetector {
	return &LinguaDetector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			Build(),
	}
}

// Detect returns the lowercase ISO 639-1 code of the dominant language.
func (d *LinguaDetector) Detect(text string) (string, bool) {
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return "", false
	}
	return strings.ToLower(lang.IsoCode639_1().String()), true
}
