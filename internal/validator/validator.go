// Package validator checks that a model answer is Telugu output rather than
// untranslated English or text that drifted into another Indic language.
//
// The check is two-staged. The share of Telugu-script letters decides; the
// lingua detector is consulted only to name the language of a rejected text.
package validator

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/valpere/lexitran/internal/detector"
)

// Telugu is the ISO 639-1 code of the target language.
const Telugu = "te"

const (
	// DefaultMinScriptRatio is the minimum share of letters that must be in
	// Telugu script. Legal Telugu routinely keeps English terms, case names
	// and section references in Latin script.
	DefaultMinScriptRatio = 0.5

	// minLetters is the letter count below which a text is accepted
	// unchecked ("Sec. 5(a)" and similar).
	minLetters = 20
)

var (
	ErrEmpty     = errors.New("translation is empty")
	ErrNotTelugu = errors.New("translation is not in Telugu script")
)

// Report describes the script make-up of a text.
type Report struct {
	Letters     int
	TeluguRatio float64
	LatinRatio  float64
	// Detected is the upper-case ISO 639-1 code from the detector, or "" when
	// detection was not attempted or failed.
	Detected string
}

// Validator is safe for concurrent use. Building one loads the lingua
// language models; reuse the instance.
type Validator struct {
	det      *detector.Detector
	minRatio float64
}

type Option func(*Validator)

// WithMinScriptRatio overrides DefaultMinScriptRatio. Values outside (0, 1]
// are ignored.
func WithMinScriptRatio(r float64) Option {
	return func(v *Validator) {
		if r > 0 && r <= 1 {
			v.minRatio = r
		}
	}
}

func New(opts ...Option) *Validator {
	v := &Validator{det: detector.New(), minRatio: DefaultMinScriptRatio}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Inspect counts letters by script. It does not run the detector.
func Inspect(text string) Report {
	var letters, telugu, latin int
	for _, r := range text {
		if !unicode.IsLetter(r) && !unicode.Is(unicode.Mn, r) && !unicode.Is(unicode.Mc, r) {
			continue
		}
		letters++
		switch {
		case unicode.Is(unicode.Telugu, r):
			telugu++
		case unicode.Is(unicode.Latin, r):
			latin++
		}
	}
	rep := Report{Letters: letters}
	if letters > 0 {
		rep.TeluguRatio = float64(telugu) / float64(letters)
		rep.LatinRatio = float64(latin) / float64(letters)
	}
	return rep
}

// Check returns nil when text passes as Telugu output. A rejected text
// yields an error wrapping ErrNotTelugu that names the detected language.
func (v *Validator) Check(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmpty
	}

	rep := Inspect(text)
	if rep.Letters < minLetters || rep.TeluguRatio >= v.minRatio {
		return nil
	}

	detected := "unknown"
	if code, ok := v.det.DetectISO(text); ok {
		detected = code
	}
	return fmt.Errorf("%w: %.0f%% Telugu letters, detected %s", ErrNotTelugu, rep.TeluguRatio*100, detected)
}
