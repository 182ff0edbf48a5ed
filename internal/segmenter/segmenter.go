// Package segmenter splits extracted document text into sentence-like units.
//
// Boundaries come from the Unicode sentence segmentation algorithm (UAX #29),
// which already understands quotes, closing brackets and decimal numbers. Legal
// text adds abbreviations ("Sec.", "No.", "v.") that UAX #29 treats as sentence
// ends; those segments are glued back onto the following one.
package segmenter

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/clipperhouse/uax29/v2/sentences"
	"golang.org/x/text/unicode/norm"
)

// DefaultMinLength is the minimum rune count of a normalised sentence.
// Shorter chunks (page numbers, stray headings) are dropped.
const DefaultMinLength = 10

// defaultAbbreviations are lower-cased tokens that end with a period but do
// not end a sentence in English legal writing.
var defaultAbbreviations = []string{
	"sec.", "secs.", "ss.", "nos.", "art.", "arts.", "cl.", "cls.",
	"para.", "paras.", "sch.", "ch.", "pt.", "reg.", "regs.",
	"v.", "vs.", "viz.", "i.e.", "e.g.", "cf.", "ibid.",
	"mr.", "mrs.", "ms.", "dr.", "sri.", "smt.", "shri.", "hon.", "hon'ble.",
	"ltd.", "pvt.", "co.", "corp.", "inc.", "bros.", "rs.", "govt.", "dept.",
	"u.s.", "a.p.", "t.s.", "ap.", "sr.", "jr.", "st.", "ft.", "approx.",
	"jan.", "feb.", "mar.", "apr.", "jun.", "jul.", "aug.", "sep.", "sept.",
	"oct.", "nov.", "dec.",
}

// Segmenter splits text into sentences. The zero value is not usable; build
// one with New.
type Segmenter struct {
	abbreviations map[string]struct{}
}

// Option configures a Segmenter.
type Option func(*Segmenter)

// WithAbbreviations adds extra non-terminal abbreviations (case-insensitive,
// including the trailing period).
func WithAbbreviations(abbrs ...string) Option {
	return func(s *Segmenter) {
		for _, a := range abbrs {
			s.abbreviations[strings.ToLower(a)] = struct{}{}
		}
	}
}

// New returns a Segmenter with the default legal abbreviation list.
func New(opts ...Option) *Segmenter {
	s := &Segmenter{abbreviations: make(map[string]struct{}, len(defaultAbbreviations))}
	for _, a := range defaultAbbreviations {
		s.abbreviations[a] = struct{}{}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Segment returns the sentences of text in document order. Segments are not
// deduplicated or filtered; whitespace-only segments are omitted. Single line
// breaks are layout and are read as spaces; blank lines end a paragraph and
// always end a sentence. Empty input yields an empty (nil) slice.
func (s *Segmenter) Segment(text string) []string {
	text = Unwrap(text)
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var raw []string
	tokens := sentences.FromString(text)
	for tokens.Next() {
		raw = append(raw, tokens.Value())
	}

	var out []string
	var pending strings.Builder
	for i, seg := range raw {
		pending.WriteString(seg)
		if i+1 < len(raw) && s.continues(seg, raw[i+1]) {
			continue
		}
		if strings.TrimSpace(pending.String()) != "" {
			out = append(out, pending.String())
		}
		pending.Reset()
	}
	if strings.TrimSpace(pending.String()) != "" {
		out = append(out, pending.String())
	}

	return out
}

var paragraphBreak = regexp.MustCompile(`\n[ \t\f\v]*\n\s*`)

// Unwrap folds the hard line wraps of extracted page text into spaces and
// keeps blank-line paragraph breaks. A word hyphenated across a wrap
// ("pay-\nment") is rejoined when the next line starts in lower case.
func Unwrap(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	paragraphs := paragraphBreak.Split(text, -1)
	for i, p := range paragraphs {
		paragraphs[i] = joinLines(p)
	}
	return strings.Join(paragraphs, "\n\n")
}

func joinLines(paragraph string) string {
	var buf []byte
	for _, line := range strings.Split(paragraph, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if len(buf) > 0 {
			if hyphenatedWrap(buf, line) {
				buf = buf[:len(buf)-1]
			} else {
				buf = append(buf, ' ')
			}
		}
		buf = append(buf, line...)
	}
	return string(buf)
}

// hyphenatedWrap reports whether prev ends in letter + "-" and next starts
// with a lower-case letter.
func hyphenatedWrap(prev []byte, next string) bool {
	if len(prev) < 2 || prev[len(prev)-1] != '-' {
		return false
	}
	before, _ := utf8.DecodeLastRune(prev[:len(prev)-1])
	first, _ := utf8.DecodeRuneInString(next)
	return unicode.IsLetter(before) && unicode.IsLower(first)
}

// ambiguousAbbreviations also occur as ordinary sentence-final words.
var ambiguousAbbreviations = map[string]struct{}{"no.": {}}

// labelWords precede a single capital used as a label rather than an
// initial: "Schedule A.", "Annexure B.".
var labelWords = map[string]struct{}{
	"schedule": {}, "annexure": {}, "exhibit": {}, "appendix": {}, "part": {},
	"form": {}, "item": {}, "table": {}, "plan": {}, "block": {}, "category": {},
	"class": {}, "grade": {}, "type": {}, "column": {}, "list": {}, "clause": {},
	"article": {}, "section": {}, "annex": {}, "tower": {}, "flat": {}, "plot": {},
}

var romanNumeral = regexp.MustCompile(`^[IVXLC]+\b`)

// continues reports whether seg ends in a non-terminal abbreviation and
// must be glued onto next.
func (s *Segmenter) continues(seg, next string) bool {
	trimmed := strings.TrimRightFunc(seg, unicode.IsSpace)
	if !strings.HasSuffix(trimmed, ".") {
		return false
	}
	if strings.ContainsRune(seg[len(trimmed):], '\n') {
		return false
	}

	idx := strings.LastIndexFunc(trimmed, unicode.IsSpace)
	last := strings.ToLower(strings.TrimLeft(trimmed[idx+1:], "(\"'["))
	if last == "" {
		return false
	}

	if _, ok := ambiguousAbbreviations[last]; ok {
		return startsContinuation(next)
	}
	if _, ok := s.abbreviations[last]; ok {
		return true
	}

	// Initials: "J." in "Justice J. Chelameswar".
	if utf8.RuneCountInString(last) == 2 {
		r, _ := utf8.DecodeRuneInString(trimmed[idx+1:])
		if !unicode.IsUpper(r) {
			return false
		}
		if _, ok := labelWords[strings.ToLower(previousWord(trimmed, idx))]; ok {
			return startsContinuation(next)
		}
		return true
	}
	return false
}

func previousWord(trimmed string, idx int) string {
	if idx <= 0 {
		return ""
	}
	fields := strings.Fields(trimmed[:idx])
	if len(fields) == 0 {
		return ""
	}
	return strings.Trim(fields[len(fields)-1], "(\"'[,;:")
}

// startsContinuation reports whether next reads as the rest of the current
// sentence: it starts with a lower-case letter, a digit or a roman numeral.
func startsContinuation(next string) bool {
	next = strings.TrimLeft(strings.TrimLeftFunc(next, unicode.IsSpace), "(\"'[")
	if next == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(next)
	if unicode.IsLower(r) || unicode.IsDigit(r) {
		return true
	}
	return romanNumeral.MatchString(next)
}

// Normalize collapses every whitespace run into a single space, trims the
// result and applies Unicode NFC.
func Normalize(sentence string) string {
	return norm.NFC.String(strings.Join(strings.Fields(sentence), " "))
}

// Retain normalises raw segments and drops those shorter than minLength
// runes. A non-positive minLength means DefaultMinLength.
func Retain(raw []string, minLength int) []string {
	if minLength <= 0 {
		minLength = DefaultMinLength
	}

	kept := make([]string, 0, len(raw))
	for _, r := range raw {
		n := Normalize(r)
		if utf8.RuneCountInString(n) < minLength {
			continue
		}
		kept = append(kept, n)
	}
	return kept
}
