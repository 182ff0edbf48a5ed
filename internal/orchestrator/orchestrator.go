// Package orchestrator runs the per-sentence tool-calling loop: the model
// receives the sentence, may call the registered tools any number of times
// up to an iteration cap, and finally answers with the Telugu text.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/valpere/lexitran/internal"
	"github.com/valpere/lexitran/internal/glossary"
	"github.com/valpere/lexitran/internal/llm"
	"github.com/valpere/lexitran/internal/postprocess"
	"github.com/valpere/lexitran/internal/tools"
)

// DefaultMaxIterations bounds the number of model calls per sentence.
const DefaultMaxIterations = 10

// UserPrefix is prepended to the sentence in the user turn.
const UserPrefix = "English: "

const SystemPrompt = `You are a legal translation assistant. Your job is to translate English legal sentences into formal Telugu using example translations.

**Important:** You will only translate the English text provided in the user's current input. Do not include any English explanatory text, prefixes, or suffixes like "Here is the translation:" or "The Telugu translation is:". Return only the pure Telugu text.`

var (
	ErrIterationLimit = errors.New("tool-calling iteration limit reached")
	ErrEmptyResponse  = errors.New("model returned an empty answer")
)

// SentenceError records why one sentence could not be translated.
type SentenceError struct {
	Index    int
	Sentence string
	Err      error
}

func (e *SentenceError) Error() string {
	return fmt.Sprintf("sentence %d: %v", e.Index, e.Err)
}

func (e *SentenceError) Unwrap() error { return e.Err }

// ErrorMarker is the in-band placeholder emitted for a failed sentence.
func ErrorMarker(sentence string) string {
	return "[Translation Error: " + sentence + "]"
}

// LanguageChecker returns an error when text is not Telugu output.
type LanguageChecker interface {
	Check(text string) error
}

// Dispatcher declares the available tools and runs one by name.
type Dispatcher interface {
	Specs() []llm.ToolSpec
	Call(ctx context.Context, name string, raw json.RawMessage) (string, error)
}

type Config struct {
	MaxIterations int
	// SentenceTimeout bounds the whole loop for one sentence. Zero means no
	// limit; an expired timeout fails the sentence.
	SentenceTimeout time.Duration
	// Sanitize strips model preambles, quotes and thinking blocks from the
	// final answer. Off by default.
	Sanitize bool
}

type Orchestrator struct {
	model    llm.Model
	registry Dispatcher
	checker  LanguageChecker
	config   Config
	logger   *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLanguageCheck enables the advisory output language check. A mismatch
// is logged; the translation is never altered.
func WithLanguageCheck(c LanguageChecker) Option {
	return func(o *Orchestrator) { o.checker = c }
}

func New(model llm.Model, registry Dispatcher, config Config, logger *zap.Logger, opts ...Option) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxIterations <= 0 {
		config.MaxIterations = DefaultMaxIterations
	}
	o := &Orchestrator{
		model:    model,
		registry: registry,
		config:   config,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ModelName reports the model used for translation.
func (o *Orchestrator) ModelName() string {
	return o.model.Name()
}

// Translate makes exactly one attempt at translating sentence. The returned
// result is always usable: on failure TranslatedSentence holds the error
// marker and the error is a *SentenceError.
func (o *Orchestrator) Translate(ctx context.Context, index int, sentence string) (internal.TranslationResult, error) {
	start := time.Now()
	res := internal.TranslationResult{
		Index:          index,
		SourceSentence: sentence,
		State:          internal.StateInProgress,
	}

	if o.config.SentenceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.config.SentenceTimeout)
		defer cancel()
	}

	text, err := o.loop(ctx, sentence, &res)
	res.Latency = time.Since(start)

	if err != nil {
		sErr := &SentenceError{Index: index, Sentence: sentence, Err: err}
		res.State = internal.StateFailed
		res.TranslatedSentence = ErrorMarker(sentence)
		res.Error = err.Error()
		o.logger.Warn("sentence translation failed",
			zap.Int("index", index),
			zap.Int("iterations", res.Iterations),
			zap.Error(err),
		)
		return res, sErr
	}

	if o.config.Sanitize {
		if cleaned := postprocess.Sanitize(text); cleaned.Text != "" && len(cleaned.Applied) > 0 {
			o.logger.Debug("sanitized model answer", zap.Int("index", index), zap.Strings("rules", cleaned.Applied))
			text = cleaned.Text
		}
	}
	res.TranslatedSentence = text
	res.State = internal.StateCompleted
	o.checkLanguage(index, text)

	o.logger.Debug("sentence translated",
		zap.Int("index", index),
		zap.Int("iterations", res.Iterations),
		zap.Strings("tools", res.ToolCalls),
		zap.Duration("latency", res.Latency),
	)
	return res, nil
}

func (o *Orchestrator) loop(ctx context.Context, sentence string, res *internal.TranslationResult) (string, error) {
	specs := o.registry.Specs()
	messages := []llm.Message{{Role: llm.RoleUser, Content: UserPrefix + sentence}}

	for iter := 1; iter <= o.config.MaxIterations; iter++ {
		res.Iterations = iter
		if err := ctx.Err(); err != nil {
			return "", err
		}

		resp, err := o.model.Generate(ctx, llm.Request{
			System:   SystemPrompt,
			Messages: messages,
			Tools:    specs,
		})
		if err != nil {
			return "", fmt.Errorf("model call: %w", err)
		}

		if len(resp.ToolCalls) == 0 {
			if strings.TrimSpace(resp.Text) == "" {
				return "", ErrEmptyResponse
			}
			return resp.Text, nil
		}

		messages = append(messages, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Text,
			ToolCalls: resp.ToolCalls,
		})
		for _, call := range resp.ToolCalls {
			messages = append(messages, o.runTool(ctx, call, res))
		}
	}

	return "", fmt.Errorf("%w (%d)", ErrIterationLimit, o.config.MaxIterations)
}

// runTool dispatches one call and turns the outcome into a tool message. A
// failing tool is reported to the model, not to the caller.
func (o *Orchestrator) runTool(ctx context.Context, call llm.ToolCall, res *internal.TranslationResult) llm.Message {
	res.ToolCalls = append(res.ToolCalls, call.Name)

	out, err := o.registry.Call(ctx, call.Name, call.Arguments)
	if err != nil {
		o.logger.Warn("tool call failed",
			zap.Int("index", res.Index),
			zap.String("tool", call.Name),
			zap.Error(err),
		)
	} else {
		switch call.Name {
		case tools.NameGlossary:
			res.GlossaryIssues = parseIssues(out)
		case tools.NameCritique:
			res.Critique = out
		}
	}

	return llm.Message{
		Role:       llm.RoleTool,
		ToolCallID: call.ID,
		ToolName:   call.Name,
		Content:    tools.Observation(out, err),
	}
}

func parseIssues(rendered string) []string {
	if rendered == glossary.NoIssues {
		return nil
	}
	var issues []string
	for _, line := range strings.Split(rendered, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			issues = append(issues, line)
		}
	}
	return issues
}

func (o *Orchestrator) checkLanguage(index int, text string) {
	if o.checker == nil {
		return
	}
	if err := o.checker.Check(text); err != nil {
		o.logger.Warn("translation does not look like Telugu",
			zap.Int("index", index),
			zap.Error(err),
		)
	}
}
