package tools

import (
	"context"
	"encoding/json"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"github.com/valpere/lexitran/internal"
	"github.com/valpere/lexitran/internal/critique"
	"github.com/valpere/lexitran/internal/glossary"
)

const (
	NameExamples = "get_examples"
	NameGlossary = "validate_translation_with_glossary"
	NameCritique = "critique_translation"
)

// ExampleRetriever returns the nearest stored translation pairs for a
// sentence. Implementations degrade to an empty result instead of failing.
type ExampleRetriever interface {
	Retrieve(ctx context.Context, text string) []internal.ExamplePair
}

type examplePair struct {
	English string `json:"english"`
	Telugu  string `json:"telugu"`
}

// pairSchema is the {original, translation} argument shape shared by the
// glossary and critique tools.
func pairSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"original":    {Type: "string", Description: "The English sentence."},
			"translation": {Type: "string", Description: "The Telugu translation."},
		},
		Required: []string{"original", "translation"},
	}
}

// Examples is the get_examples tool.
func Examples(r ExampleRetriever) Tool {
	return Tool{
		Name:        NameExamples,
		Description: "Useful to retrieve top-k similar legal sentence pairs (English-Telugu).",
		Schema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"sentence": {Type: "string", Description: "The English sentence to find examples for."},
			},
			Required: []string{"sentence"},
		},
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			sentence, err := stringArg(args, "sentence")
			if err != nil {
				return "", err
			}

			found := r.Retrieve(ctx, sentence)
			pairs := make([]examplePair, 0, len(found))
			for _, p := range found {
				pairs = append(pairs, examplePair{English: p.SourceText, Telugu: p.TargetText})
			}
			out, err := json.Marshal(pairs)
			if err != nil {
				return "", err
			}
			return string(out), nil
		},
	}
}

// GlossaryCheck is the validate_translation_with_glossary tool.
func GlossaryCheck(g *glossary.Glossary) Tool {
	return Tool{
		Name: NameGlossary,
		Description: "Checks if the Telugu translation correctly uses terms from a legal glossary. " +
			"Input should be a dict with 'original' (English sentence) and 'translation' (Telugu translation). " +
			"Returns a string of issues if any glossary terms are missing in the translation.",
		Schema: pairSchema(),
		Run: func(_ context.Context, args map[string]any) (string, error) {
			original, err := stringArg(args, "original")
			if err != nil {
				return "", err
			}
			translation, err := stringArg(args, "translation")
			if err != nil {
				return "", err
			}
			return glossary.Render(glossary.Validate(original, translation, g)), nil
		},
	}
}

// Critique is the critique_translation tool.
func Critique(gen critique.Generator) Tool {
	return Tool{
		Name: NameCritique,
		Description: "Provides a quality critique of the Telugu translation, including tone, clarity, and legal accuracy. " +
			"Input should be a dict with 'original' (English sentence) and 'translation' (Telugu translation). " +
			"Returns comments on how good the translation is and suggests how to make it better.",
		Schema: pairSchema(),
		Run: func(ctx context.Context, args map[string]any) (string, error) {
			original, err := stringArg(args, "original")
			if err != nil {
				return "", err
			}
			translation, err := stringArg(args, "translation")
			if err != nil {
				return "", err
			}
			return gen.Critique(ctx, original, translation)
		},
	}
}

// NewDefault builds the registry with the three translation tools.
func NewDefault(r ExampleRetriever, g *glossary.Glossary, gen critique.Generator, logger *zap.Logger) (*Registry, error) {
	return NewRegistry(logger, Examples(r), GlossaryCheck(g), Critique(gen))
}
