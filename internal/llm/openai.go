package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAI calls the Chat Completions API. With BaseURL it also serves
// OpenAI-compatible servers such as Ollama.
type OpenAI struct {
	client      openai.Client
	model       string
	maxTokens   int64
	temperature float64
}

var _ Model = (*OpenAI)(nil)

// NewOpenAI creates an OpenAI model client.
func NewOpenAI(cfg Config, opts ...option.RequestOption) (*OpenAI, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	clientOptions := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		clientOptions = append(clientOptions, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		clientOptions = append(clientOptions, option.WithBaseURL(cfg.BaseURL))
	}
	clientOptions = append(clientOptions, opts...)

	return &OpenAI{
		client:      openai.NewClient(clientOptions...),
		model:       cfg.Model,
		maxTokens:   int64(cfg.MaxTokens),
		temperature: cfg.Temperature,
	}, nil
}

func (o *OpenAI) Provider() string { return ProviderOpenAI }
func (o *OpenAI) Name() string     { return o.model }

// Generate sends the conversation as a chat completion.
func (o *OpenAI) Generate(ctx context.Context, req Request) (*AIMessage, error) {
	names := newToolNames(req.Tools)

	params := openai.ChatCompletionNewParams{
		Model:       o.model,
		Messages:    openAIMessages(req, names),
		MaxTokens:   openai.Int(o.maxTokens),
		Temperature: openai.Float(o.temperature),
	}
	if len(req.Tools) > 0 {
		params.Tools = openAITools(req.Tools, names)
		if req.DisableToolUse {
			params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
				OfAuto: openai.String(string(openai.ChatCompletionToolChoiceOptionAutoNone)),
			}
		}
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, o.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return nil, &ProviderError{Provider: ProviderOpenAI, Err: ErrEmptyResponse}
	}

	choice := resp.Choices[0].Message
	msg := &AIMessage{Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		id := tc.ID
		if id == "" {
			id = uuid.NewString()
		}
		msg.ToolCalls = append(msg.ToolCalls, ToolCall{
			ID:   id,
			Name: names.original(tc.Function.Name),
			Args: decodeToolArgs(tc.Function.Arguments),
		})
	}
	return msg, nil
}

func (o *OpenAI) wrapError(err error) error {
	pe := &ProviderError{Provider: ProviderOpenAI, Err: err}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		pe.StatusCode = apiErr.StatusCode
	}
	return pe
}

func openAIMessages(req Request, names *toolNames) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, openai.SystemMessage(req.System))
	}

	for _, m := range req.Messages {
		switch msg := m.(type) {
		case SystemMessage:
			out = append(out, openai.SystemMessage(msg.Content))

		case HumanMessage:
			out = append(out, openai.UserMessage(msg.Content))

		case AIMessage:
			assistant := openai.ChatCompletionAssistantMessageParam{}
			if msg.Content != "" {
				assistant.Content.OfString = openai.String(msg.Content)
			}
			for _, call := range msg.ToolCalls {
				args, err := json.Marshal(call.Args)
				if err != nil || call.Args == nil {
					args = []byte("{}")
				}
				assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallParam{
					ID: call.ID,
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      names.wire(call.Name),
						Arguments: string(args),
					},
				})
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant})

		case ToolMessage:
			out = append(out, openai.ToolMessage(msg.Content, msg.ToolCallID))
		}
	}
	return out
}

func openAITools(tools []ToolSpec, names *toolNames) []openai.ChatCompletionToolParam {
	out := make([]openai.ChatCompletionToolParam, 0, len(tools))
	for _, t := range tools {
		out = append(out, openai.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        names.wire(t.Name),
				Description: openai.String(t.Description),
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

// decodeToolArgs parses the JSON argument string of a tool call. Malformed
// arguments become an empty map so the tool's own validation reports them.
func decodeToolArgs(raw string) map[string]any {
	args := map[string]any{}
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return map[string]any{}
	}
	return args
}
