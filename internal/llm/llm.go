// Package llm is the provider-neutral interface to a tool-calling language
// model, with adapters for Gemini, OpenAI-compatible APIs, Anthropic and
// Ollama.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"
)

// ErrNoCandidates is returned when a provider answers with no usable choice.
var ErrNoCandidates = errors.New("model returned no candidates")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a model's request to run a named tool.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
	// Signature is an opaque provider token that must be echoed back with
	// the call (Gemini thought signatures).
	Signature []byte
}

// Message is one turn of the conversation. Tool results carry the ID and
// name of the call they answer.
type Message struct {
	Role       Role
	Content    string
	ToolCalls  []ToolCall
	ToolCallID string
	ToolName   string
}

// ToolSpec declares a tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

type Request struct {
	System   string
	Messages []Message
	Tools    []ToolSpec
}

// Response is either final text (no tool calls) or a set of tool calls.
type Response struct {
	Text      string
	ToolCalls []ToolCall
}

// Model generates the next assistant turn.
type Model interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Config selects and configures a provider.
type Config struct {
	Provider    string
	Name        string
	APIKey      string
	BaseURL     string
	Temperature float64
	MaxTokens   int
}

const openRouterBaseURL = "https://openrouter.ai/api/v1"

// New builds the Model named by cfg.Provider.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (Model, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Name == "" {
		return nil, errors.New("model name is required")
	}

	var (
		m   Model
		err error
	)
	switch cfg.Provider {
	case "", "gemini":
		m, err = NewGemini(ctx, cfg)
	case "openai":
		m, err = NewOpenAI(cfg)
	case "openrouter":
		if cfg.BaseURL == "" {
			cfg.BaseURL = openRouterBaseURL
		}
		m, err = NewOpenAI(cfg)
	case "anthropic":
		m, err = NewAnthropic(cfg)
	case "ollama":
		m, err = NewOllama(cfg)
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	logger.Debug("language model ready",
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Name),
		zap.Float64("temperature", cfg.Temperature),
	)
	return m, nil
}

// schemaMap converts a JSON schema into the generic map form most SDKs take.
func schemaMap(s *jsonschema.Schema) (map[string]any, error) {
	if s == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}, nil
	}
	var out map[string]any
	if err := jsonRoundtrip(s, &out); err != nil {
		return nil, fmt.Errorf("converting tool schema: %w", err)
	}
	return out, nil
}

func jsonRoundtrip(in, out any) error {
	buf, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(buf, out)
}

// argsMap decodes tool call arguments; malformed or empty input yields an
// empty map.
func argsMap(raw json.RawMessage) map[string]any {
	args := map[string]any{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &args)
	}
	return args
}
