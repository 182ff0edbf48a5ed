// Package glossary holds the mandatory English -> Telugu legal terminology
// and checks translations against it.
package glossary

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/text/unicode/norm"
)

// NoIssues is the rendered result of a compliant translation.
const NoIssues = "No glossary compliance issues found."

// Glossary maps English terms to required Telugu equivalents. Iteration
// follows insertion order, so issues are reported in glossary order.
type Glossary struct {
	terms *orderedmap.OrderedMap[string, string]
}

func New() *Glossary {
	return &Glossary{terms: orderedmap.New[string, string]()}
}

// FromPairs builds a glossary from alternating English, Telugu strings.
func FromPairs(pairs ...string) *Glossary {
	g := New()
	for i := 0; i+1 < len(pairs); i += 2 {
		g.Set(pairs[i], pairs[i+1])
	}
	return g
}

// Load reads a JSON object of term pairs. A missing file yields an empty
// glossary.
func Load(path string) (*Glossary, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read glossary: %w", err)
	}
	return Parse(data)
}

// Parse decodes a JSON object of term pairs, keeping key order.
func Parse(data []byte) (*Glossary, error) {
	terms := orderedmap.New[string, string]()
	if err := json.Unmarshal(data, &terms); err != nil {
		return nil, fmt.Errorf("failed to parse glossary: %w", err)
	}
	g := New()
	for en, te := range terms.FromOldest() {
		g.Set(en, te)
	}
	return g, nil
}

// Set adds or replaces a term. Blank terms are ignored.
func (g *Glossary) Set(english, telugu string) {
	english = norm.NFC.String(strings.TrimSpace(english))
	telugu = norm.NFC.String(strings.TrimSpace(telugu))
	if english == "" || telugu == "" {
		return
	}
	g.terms.Set(english, telugu)
}

// Merge appends terms not already present. Existing entries win.
func (g *Glossary) Merge(english, telugu string) {
	if _, ok := g.terms.Get(norm.NFC.String(strings.TrimSpace(english))); ok {
		return
	}
	g.Set(english, telugu)
}

func (g *Glossary) Len() int {
	if g == nil {
		return 0
	}
	return g.terms.Len()
}

// Each calls fn for every term in insertion order.
func (g *Glossary) Each(fn func(english, telugu string)) {
	if g == nil {
		return
	}
	for en, te := range g.terms.FromOldest() {
		fn(en, te)
	}
}

// MarshalJSON writes the glossary as an ordered JSON object.
func (g *Glossary) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.terms)
}

// Validate returns one issue per glossary term that occurs in source
// (case-insensitive substring) while its Telugu equivalent is absent from
// translation (exact substring). Issues follow glossary order.
func Validate(source, translation string, g *Glossary) []string {
	if g.Len() == 0 {
		return nil
	}

	lowerSource := strings.ToLower(source)
	normTranslation := norm.NFC.String(translation)

	var issues []string
	g.Each(func(en, te string) {
		if !strings.Contains(lowerSource, strings.ToLower(en)) {
			return
		}
		if strings.Contains(normTranslation, te) {
			return
		}
		issues = append(issues, fmt.Sprintf(
			"Term '%s' found in English but Telugu equivalent '%s' not found in translation.", en, te))
	})
	return issues
}

// Render formats issues as the text returned to the model.
func Render(issues []string) string {
	if len(issues) == 0 {
		return NoIssues
	}
	return strings.Join(issues, "\n")
}
