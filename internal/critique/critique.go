// Package critique asks the language model to review a Telugu translation of
// an English legal sentence.
package critique

import (
	"context"
	"fmt"

	"github.com/valpere/lexitran/internal/llm"
)

// Generator produces a free-text quality review of a translation.
type Generator interface {
	Critique(ctx context.Context, source, translation string) (string, error)
}

// Critic is a Generator backed by an llm.Model. It makes exactly one model
// call per review and returns the raw text; there are no retries.
type Critic struct {
	model llm.Model
}

func New(model llm.Model) *Critic {
	return &Critic{model: model}
}

func (c *Critic) Critique(ctx context.Context, source, translation string) (string, error) {
	resp, err := c.model.Generate(ctx, llm.Request{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: buildCritiquePrompt(source, translation)}},
	})
	if err != nil {
		return "", fmt.Errorf("critique request failed: %w", err)
	}
	return resp.Text, nil
}

func buildCritiquePrompt(source, translation string) string {
	return fmt.Sprintf(`
You are a legal translation quality reviewer.

Please critique the following Telugu translation of a legal sentence in English.

- Comment on tone, clarity, and formality.
- Note if the translation deviates from the meaning.
- Suggest improvements if necessary.
- Comment on whether the output is adding more to what it actually should translate.

English: %s
Telugu: %s
`, source, translation)
}
