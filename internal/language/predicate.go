package language

import (
	"strings"
	"unicode/utf8"

	"github.com/Sibtain012/BrandPulse-2.0/internal/ports"
)

const defaultMinChars = 20

// Predicate decides whether text is qualified for the target language.
// It is a filter, not a mutation: detection failure means unqualified,
// never an error.
type Predicate struct {
	detector ports.LanguageDetector
	target   string
	minChars int
}

// NewPredicate wires a detector with the target ISO 639-1 code.
func NewPredicate(detector ports.LanguageDetector, target string, minChars int) *Predicate {
	if target == "" {
		target = "en"
	}
	if minChars <= 0 {
		minChars = defaultMinChars
	}
	return &Predicate{detector: detector, target: strings.ToLower(target), minChars: minChars}
}

// Qualified reports whether text is long enough to detect and matches the
// target language.
func (p *Predicate) Qualified(text string) bool {
	if utf8.RuneCountInString(text) < p.minChars {
		return false
	}
	if p.detector == nil {
		return false
	}

	lang, ok := p.detector.Detect(text)
	return ok && strings.EqualFold(lang, p.target)
}
