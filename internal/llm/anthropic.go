package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/google/uuid"
)

// Anthropic calls the Anthropic Messages API.
type Anthropic struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

var _ Model = (*Anthropic)(nil)

// NewAnthropic creates an Anthropic model client.
func NewAnthropic(cfg Config, opts ...option.RequestOption) (*Anthropic, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	clientOptions := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		clientOptions = append(clientOptions, option.WithBaseURL(cfg.BaseURL))
	}
	clientOptions = append(clientOptions, opts...)

	return &Anthropic{
		client:      anthropic.NewClient(clientOptions...),
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}, nil
}

func (a *Anthropic) Provider() string { return ProviderAnthropic }
func (a *Anthropic) Name() string     { return a.model }

// Generate sends the conversation to the Messages API.
func (a *Anthropic) Generate(ctx context.Context, req Request) (*AIMessage, error) {
	names := newToolNames(req.Tools)
	system, messages := splitSystem(req)

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(a.model),
		MaxTokens:   a.maxTokens,
		Temperature: anthropic.Float(a.temperature),
		Messages:    anthropicMessages(messages, names),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if len(req.Tools) > 0 {
		params.Tools = anthropicTools(req.Tools, names)
		if req.DisableToolUse {
			none := anthropic.NewToolChoiceNoneParam()
			params.ToolChoice = anthropic.ToolChoiceUnionParam{OfNone: &none}
		}
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return nil, a.wrapError(err)
	}
	if resp == nil || len(resp.Content) == 0 {
		return nil, &ProviderError{Provider: ProviderAnthropic, Err: ErrEmptyResponse}
	}

	msg := &AIMessage{}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			msg.Content += block.Text
		case "tool_use":
			args := map[string]any{}
			if len(block.Input) > 0 {
				_ = json.Unmarshal(block.Input, &args)
			}
			id := block.ID
			if id == "" {
				id = uuid.NewString()
			}
			msg.ToolCalls = append(msg.ToolCalls, ToolCall{ID: id, Name: names.original(block.Name), Args: args})
		}
	}
	return msg, nil
}

func (a *Anthropic) wrapError(err error) error {
	pe := &ProviderError{Provider: ProviderAnthropic, Err: err}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		pe.StatusCode = apiErr.StatusCode
	}
	return pe
}

// anthropicMessages converts the log. Tool results and human text that
// follow each other are merged into a single user turn, since the API wants
// every tool_result of an assistant turn in the next user message.
func anthropicMessages(messages []Message, names *toolNames) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))

	appendUser := func(block anthropic.ContentBlockParamUnion) {
		if n := len(out); n > 0 && out[n-1].Role == anthropic.MessageParamRoleUser {
			out[n-1].Content = append(out[n-1].Content, block)
			return
		}
		out = append(out, anthropic.NewUserMessage(block))
	}

	for _, m := range messages {
		switch msg := m.(type) {
		case HumanMessage:
			appendUser(anthropic.ContentBlockParamUnion{OfText: &anthropic.TextBlockParam{Text: msg.Content}})

		case SystemMessage:
			appendUser(anthropic.ContentBlockParamUnion{OfText: &anthropic.TextBlockParam{Text: msg.Content}})

		case AIMessage:
			var blocks []anthropic.ContentBlockParamUnion
			if msg.Content != "" {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{OfText: &anthropic.TextBlockParam{Text: msg.Content}})
			}
			for _, call := range msg.ToolCalls {
				input := call.Args
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    call.ID,
					Name:  names.wire(call.Name),
					Input: input,
				}})
			}
			if len(blocks) == 0 {
				continue
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))

		case ToolMessage:
			appendUser(anthropic.ContentBlockParamUnion{OfToolResult: &anthropic.ToolResultBlockParam{
				ToolUseID: msg.ToolCallID,
				Content: []anthropic.ToolResultBlockParamContentUnion{
					{OfText: &anthropic.TextBlockParam{Text: msg.Content}},
				},
				IsError: anthropic.Bool(isFailedToolResult(msg.Content)),
			}})
		}
	}
	return out
}

func anthropicTools(tools []ToolSpec, names *toolNames) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(tools))
	for _, t := range tools {
		schema := anthropic.ToolInputSchemaParam{}
		if props, ok := t.Parameters["properties"]; ok {
			schema.Properties = props
		}
		if req, ok := t.Parameters["required"].([]any); ok {
			for _, r := range req {
				if s, ok := r.(string); ok {
					schema.Required = append(schema.Required, s)
				}
			}
		}

		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        names.wire(t.Name),
			Description: anthropic.String(t.Description),
			InputSchema: schema,
		}})
	}
	return out
}

// isFailedToolResult reports whether content is a {"ok":false,...} envelope.
func isFailedToolResult(content string) bool {
	var env struct {
		OK *bool `json:"ok"`
	}
	if err := json.Unmarshal([]byte(content), &env); err != nil || env.OK == nil {
		return false
	}
	return !*env.OK
}
