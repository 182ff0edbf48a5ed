package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// Gemini calls the Gemini API generateContent method.
type Gemini struct {
	client *genai.Client
	cfg    Config
}

func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("GOOGLE_API_KEY (or model.api_key) is required for gemini")
	}
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	return &Gemini{client: client, cfg: cfg}, nil
}

func (g *Gemini) Name() string { return g.cfg.Name }

func (g *Gemini) Generate(ctx context.Context, req Request) (*Response, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(g.cfg.Temperature)),
	}
	if g.cfg.MaxTokens > 0 {
		config.MaxOutputTokens = int32(g.cfg.MaxTokens)
	}
	if req.System != "" {
		config.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if len(req.Tools) > 0 {
		tools, err := geminiTools(req.Tools)
		if err != nil {
			return nil, err
		}
		config.Tools = tools
		config.ToolConfig = &genai.ToolConfig{
			FunctionCallingConfig: &genai.FunctionCallingConfig{
				Mode: genai.FunctionCallingConfigModeAuto,
			},
		}
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Name, geminiContents(req.Messages), config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, ErrNoCandidates
	}

	return geminiResponse(resp.Candidates[0].Content), nil
}

func geminiTools(specs []ToolSpec) ([]*genai.Tool, error) {
	funcs := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, spec := range specs {
		var schema *genai.Schema
		if spec.Parameters != nil {
			if err := jsonRoundtrip(spec.Parameters, &schema); err != nil {
				return nil, fmt.Errorf("converting schema for %s: %w", spec.Name, err)
			}
		}
		funcs = append(funcs, &genai.FunctionDeclaration{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  schema,
		})
	}
	return []*genai.Tool{{FunctionDeclarations: funcs}}, nil
}

func geminiContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleTool:
			part := genai.NewPartFromFunctionResponse(msg.ToolName, map[string]any{
				"result": msg.Content,
			})
			part.FunctionResponse.ID = msg.ToolCallID
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		case RoleAssistant:
			var parts []*genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.NewPartFromText(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				fc := genai.NewPartFromFunctionCall(tc.Name, argsMap(tc.Arguments))
				fc.FunctionCall.ID = tc.ID
				fc.ThoughtSignature = tc.Signature
				parts = append(parts, fc)
			}
			if len(parts) > 0 {
				contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
			}
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	return contents
}

func geminiResponse(content *genai.Content) *Response {
	out := &Response{}
	var text strings.Builder
	for i, part := range content.Parts {
		switch {
		case part.FunctionCall != nil:
			args, _ := json.Marshal(part.FunctionCall.Args)
			id := part.FunctionCall.ID
			if id == "" {
				id = fmt.Sprintf("call_%d", i)
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        id,
				Name:      part.FunctionCall.Name,
				Arguments: args,
				Signature: part.ThoughtSignature,
			})
		case part.Text != "" && !part.Thought:
			text.WriteString(part.Text)
		}
	}
	out.Text = text.String()
	return out
}
