package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
	"github.com/openai/openai-go/v3/shared"
)

// OpenAI talks to the Chat Completions API. Any compatible endpoint
// (OpenRouter, vLLM, LM Studio) works through BaseURL.
type OpenAI struct {
	client openai.Client
	cfg    Config
}

func NewOpenAI(cfg Config) (*OpenAI, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, errors.New("OPENAI_API_KEY (or model.api_key) is required for openai")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAI{client: openai.NewClient(opts...), cfg: cfg}, nil
}

func (o *OpenAI) Name() string { return o.cfg.Name }

func (o *OpenAI) Generate(ctx context.Context, req Request) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Model:    o.cfg.Name,
		Messages: openAIMessages(req),
	}
	params.Temperature = openai.Float(o.cfg.Temperature)
	if o.cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(o.cfg.MaxTokens))
	}
	if len(req.Tools) > 0 {
		tools, err := openAITools(req.Tools)
		if err != nil {
			return nil, err
		}
		params.Tools = tools
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrNoCandidates
	}

	msg := resp.Choices[0].Message
	out := &Response{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: []byte(tc.Function.Arguments),
		})
	}
	return out, nil
}

func openAIMessages(req Request) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		switch m.Role {
		case RoleAssistant:
			var assistant openai.ChatCompletionAssistantMessageParam
			if m.Content != "" {
				assistant.Content.OfString = param.NewOpt(m.Content)
			}
			for _, tc := range m.ToolCalls {
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: string(tc.Arguments),
						},
					},
				})
			}
			msgs = append(msgs, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})
		case RoleTool:
			tool := openai.ChatCompletionToolMessageParam{ToolCallID: m.ToolCallID}
			tool.Content.OfString = param.NewOpt(m.Content)
			msgs = append(msgs, openai.ChatCompletionMessageParamUnion{OfTool: &tool})
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	return msgs
}

func openAITools(specs []ToolSpec) ([]openai.ChatCompletionToolUnionParam, error) {
	tools := make([]openai.ChatCompletionToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		params, err := schemaMap(spec.Parameters)
		if err != nil {
			return nil, err
		}
		tools = append(tools, openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        spec.Name,
			Description: openai.String(spec.Description),
			Parameters:  shared.FunctionParameters(params),
		}))
	}
	return tools, nil
}
