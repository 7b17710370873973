package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"google.golang.org/genai"
)

// Gemini content roles.
const (
	roleUser  = "user"
	roleModel = "model"
)

// Gemini calls the Gemini API through google.golang.org/genai.
type Gemini struct {
	client      *genai.Client
	model       string
	maxTokens   int32
	temperature float32
}

var _ Model = (*Gemini)(nil)

// NewGemini creates a Gemini model client.
func NewGemini(ctx context.Context, cfg Config) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	clientConfig := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientConfig.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Gemini{
		client:      client,
		model:       cfg.Model,
		maxTokens:   int32(cfg.MaxTokens),
		temperature: float32(cfg.Temperature),
	}, nil
}

func (g *Gemini) Provider() string { return ProviderGemini }
func (g *Gemini) Name() string     { return g.model }

// Generate sends the conversation to Gemini and converts the first candidate.
func (g *Gemini) Generate(ctx context.Context, req Request) (*AIMessage, error) {
	system, messages := splitSystem(req)

	config := &genai.GenerateContentConfig{
		Temperature:     ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{genai.NewPartFromText(system)}}
	}
	if len(req.Tools) > 0 {
		config.Tools = geminiTools(req.Tools)
		if req.DisableToolUse {
			config.ToolConfig = &genai.ToolConfig{
				FunctionCallingConfig: &genai.FunctionCallingConfig{Mode: genai.FunctionCallingConfigModeNone},
			}
		}
	}
	// Gemini rejects a JSON response MIME type next to function declarations.
	if req.JSONOutput && len(req.Tools) == 0 {
		config.ResponseMIMEType = "application/json"
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, geminiContents(messages), config)
	if err != nil {
		return nil, g.wrapError(err)
	}

	return geminiResponse(resp)
}

func (g *Gemini) wrapError(err error) error {
	pe := &ProviderError{Provider: ProviderGemini, Err: err}

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		pe.StatusCode = apiErr.Code
	case errors.As(err, &apiErrPtr):
		pe.StatusCode = apiErrPtr.Code
	}
	return pe
}

// geminiContents converts the log. Consecutive tool results are grouped into
// one user turn, which is how Gemini expects parallel function responses.
func geminiContents(messages []Message) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))

	for _, m := range messages {
		switch msg := m.(type) {
		case HumanMessage:
			contents = append(contents, &genai.Content{Role: roleUser, Parts: []*genai.Part{genai.NewPartFromText(msg.Content)}})

		case SystemMessage:
			contents = append(contents, &genai.Content{Role: roleUser, Parts: []*genai.Part{genai.NewPartFromText(msg.Content)}})

		case AIMessage:
			c := &genai.Content{Role: roleModel}
			if msg.Content != "" {
				c.Parts = append(c.Parts, genai.NewPartFromText(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				c.Parts = append(c.Parts, genai.NewPartFromFunctionCall(call.Name, call.Args))
			}
			if len(c.Parts) == 0 {
				c.Parts = append(c.Parts, genai.NewPartFromText(""))
			}
			contents = append(contents, c)

		case ToolMessage:
			part := genai.NewPartFromFunctionResponse(msg.Name, toolPayload(msg.Content))
			if n := len(contents); n > 0 && isFunctionResponseTurn(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, &genai.Content{Role: roleUser, Parts: []*genai.Part{part}})
		}
	}
	return contents
}

func isFunctionResponseTurn(c *genai.Content) bool {
	if c.Role != roleUser || len(c.Parts) == 0 {
		return false
	}
	return c.Parts[len(c.Parts)-1].FunctionResponse != nil
}

// toolPayload turns a tool result into the object Gemini wants as the
// function response.
func toolPayload(content string) map[string]any {
	payload := map[string]any{}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		return map[string]any{"result": content}
	}
	return payload
}

func geminiResponse(resp *genai.GenerateContentResponse) (*AIMessage, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, &ProviderError{Provider: ProviderGemini, Err: ErrEmptyResponse}
	}

	msg := &AIMessage{}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch {
		case part.Thought:
			continue
		case part.FunctionCall != nil:
			id := part.FunctionCall.ID
			if id == "" {
				id = uuid.NewString()
			}
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			msg.ToolCalls = append(msg.ToolCalls, ToolCall{ID: id, Name: part.FunctionCall.Name, Args: args})
		case part.Text != "":
			msg.Content += part.Text
		}
	}
	return msg, nil
}

func geminiTools(tools []ToolSpec) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  geminiSchema(t.Parameters),
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// geminiSchema converts a JSON Schema map into the OpenAPI subset Gemini
// accepts. Unsupported keywords are dropped.
func geminiSchema(js map[string]any) *genai.Schema {
	if js == nil {
		return &genai.Schema{Type: genai.TypeObject}
	}

	s := &genai.Schema{Type: geminiType(js["type"])}
	if d, ok := js["description"].(string); ok {
		s.Description = d
	}
	if f, ok := js["format"].(string); ok && (f == "date-time" || f == "enum") {
		s.Format = f
	}
	if enum, ok := js["enum"].([]any); ok {
		for _, e := range enum {
			if str, ok := e.(string); ok {
				s.Enum = append(s.Enum, str)
			}
		}
	}
	if v, ok := js["minimum"].(float64); ok {
		s.Minimum = ptr(v)
	}
	if v, ok := js["maximum"].(float64); ok {
		s.Maximum = ptr(v)
	}
	if props, ok := js["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, def := range props {
			if m, ok := def.(map[string]any); ok {
				s.Properties[name] = geminiSchema(m)
			}
		}
	}
	if required, ok := js["required"].([]any); ok {
		for _, r := range required {
			if str, ok := r.(string); ok {
				s.Required = append(s.Required, str)
			}
		}
	}
	if items, ok := js["items"].(map[string]any); ok {
		s.Items = geminiSchema(items)
	}
	return s
}

func geminiType(t any) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	default:
		return genai.TypeString
	}
}

func ptr[T any](v T) *T {
	return &v
}
