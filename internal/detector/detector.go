// Package detector identifies the language of a text using lingua-go.
package detector

import (
	lingua "github.com/pemistahl/lingua-go"
)

// DefaultLanguages is the candidate set used when New is called without
// arguments: the source language plus Telugu and the Indic languages a
// model is most likely to drift into.
var DefaultLanguages = []lingua.Language{
	lingua.English,
	lingua.Telugu,
	lingua.Hindi,
	lingua.Tamil,
	lingua.Marathi,
	lingua.Bengali,
}

type Detector struct {
	detector lingua.LanguageDetector
}

// New builds a detector for the given languages. Building loads language
// models and is slow; reuse the instance.
func New(languages ...lingua.Language) *Detector {
	if len(languages) < 2 {
		languages = DefaultLanguages
	}
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(languages...).
		Build()

	return &Detector{detector: detector}
}

func (d *Detector) Detect(text string) (lingua.Language, bool) {
	if text == "" {
		return lingua.Unknown, false
	}
	return d.detector.DetectLanguageOf(text)
}

// DetectISO returns the upper-case ISO 639-1 code, e.g. "TE".
func (d *Detector) DetectISO(text string) (string, bool) {
	lang, ok := d.Detect(text)
	if !ok {
		return "", false
	}
	return lang.IsoCode639_1().String(), true
}
