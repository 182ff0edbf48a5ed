// Package tools is the closed set of capabilities the translation model may
// call during its reasoning loop. Tools are dispatched by name through a
// Registry; each declares a JSON schema that arguments are checked against
// before the tool runs.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"go.uber.org/zap"

	"github.com/valpere/lexitran/internal/llm"
)

var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrInvalidArguments = errors.New("invalid tool arguments")
)

// InvocationError reports a failed tool call. It is non-fatal: the message
// is fed back to the model as an observation.
type InvocationError struct {
	Tool string
	Err  error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("tool %s: %v", e.Tool, e.Err)
}

func (e *InvocationError) Unwrap() error { return e.Err }

// Handler runs a tool on already validated arguments and returns the
// observation text.
type Handler func(ctx context.Context, args map[string]any) (string, error)

// Tool is one entry of the dispatch table.
type Tool struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
	Run         Handler

	resolved *jsonschema.Resolved
}

// Registry maps tool names to tools and keeps registration order for the
// declarations sent to the model.
type Registry struct {
	tools  map[string]*Tool
	order  []string
	logger *zap.Logger
}

// NewRegistry resolves every tool schema up front; a schema that does not
// resolve or a duplicate name is a programming error reported here.
func NewRegistry(logger *zap.Logger, tools ...Tool) (*Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Registry{tools: make(map[string]*Tool, len(tools)), logger: logger}
	for i := range tools {
		t := tools[i]
		if _, dup := r.tools[t.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", t.Name)
		}
		if t.Schema != nil {
			resolved, err := t.Schema.Resolve(nil)
			if err != nil {
				return nil, fmt.Errorf("resolving schema for %s: %w", t.Name, err)
			}
			t.resolved = resolved
		}
		r.tools[t.Name] = &t
		r.order = append(r.order, t.Name)
	}
	return r, nil
}

// Specs returns the tool declarations in registration order.
func (r *Registry) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		t := r.tools[name]
		specs = append(specs, llm.ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Schema,
		})
	}
	return specs
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Call validates raw arguments and dispatches to the named tool. Every
// failure is returned as an *InvocationError.
func (r *Registry) Call(ctx context.Context, name string, raw json.RawMessage) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", &InvocationError{Tool: name, Err: ErrUnknownTool}
	}

	args := map[string]any{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &args); err != nil {
			return "", &InvocationError{Tool: name, Err: fmt.Errorf("%w: %v", ErrInvalidArguments, err)}
		}
	}
	if t.resolved != nil {
		if err := t.resolved.Validate(args); err != nil {
			return "", &InvocationError{Tool: name, Err: fmt.Errorf("%w: %v", ErrInvalidArguments, err)}
		}
	}

	out, err := t.Run(ctx, args)
	if err != nil {
		return "", &InvocationError{Tool: name, Err: err}
	}

	r.logger.Debug("tool call",
		zap.String("tool", name),
		zap.Int("observation_len", len(out)),
	)
	return out, nil
}

// Observation renders a tool outcome as the text fed back to the model.
func Observation(out string, err error) string {
	if err != nil {
		return "Error: " + err.Error()
	}
	return out
}

// stringArg reads a required string argument. Validation has already run,
// so a missing key only happens for tools without a schema.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok {
		return "", fmt.Errorf("%w: %q must be a string", ErrInvalidArguments, key)
	}
	return v, nil
}
