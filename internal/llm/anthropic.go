package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
)

const defaultAnthropicMaxTokens = 2048

// Anthropic talks to the Messages API.
type Anthropic struct {
	client anthropic.Client
	cfg    Config
}

func NewAnthropic(cfg Config) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY (or model.api_key) is required for anthropic")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Anthropic{client: anthropic.NewClient(opts...), cfg: cfg}, nil
}

func (a *Anthropic) Name() string { return a.cfg.Name }

func (a *Anthropic) Generate(ctx context.Context, req Request) (*Response, error) {
	maxTokens := int64(a.cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(a.cfg.Name),
		MaxTokens: maxTokens,
		Messages:  anthropicMessages(req.Messages),
	}
	params.Temperature = param.NewOpt(a.cfg.Temperature)
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		tools, err := anthropicTools(req.Tools)
		if err != nil {
			return nil, err
		}
		params.Tools = tools
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic messages: %w", err)
	}
	if len(msg.Content) == 0 {
		return nil, ErrNoCandidates
	}

	out := &Response{}
	var text strings.Builder
	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		case anthropic.ToolUseBlock:
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        b.ID,
				Name:      b.Name,
				Arguments: json.RawMessage(b.Input),
			})
		}
	}
	out.Text = text.String()
	return out, nil
}

// anthropicMessages converts the history. Consecutive tool results are
// grouped into a single user message following the tool_use turn.
func anthropicMessages(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for i := 0; i < len(messages); i++ {
		m := messages[i]
		switch m.Role {
		case RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    tc.ID,
						Name:  tc.Name,
						Input: argsMap(tc.Arguments),
					},
				})
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		case RoleTool:
			var results []anthropic.ContentBlockParamUnion
			for ; i < len(messages) && messages[i].Role == RoleTool; i++ {
				results = append(results, anthropic.NewToolResultBlock(messages[i].ToolCallID, messages[i].Content, false))
			}
			i--
			out = append(out, anthropic.NewUserMessage(results...))
		default:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}
	return out
}

func anthropicTools(specs []ToolSpec) ([]anthropic.ToolUnionParam, error) {
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		var schema anthropic.ToolInputSchemaParam
		if spec.Parameters != nil {
			if err := jsonRoundtrip(spec.Parameters, &schema); err != nil {
				return nil, fmt.Errorf("converting schema for %s: %w", spec.Name, err)
			}
		}
		tools = append(tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        spec.Name,
				Description: anthropic.String(spec.Description),
				InputSchema: schema,
			},
		})
	}
	return tools, nil
}
