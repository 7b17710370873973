// Package llm defines the conversation messages and the Model interface the
// agent talks to, plus provider implementations for Gemini
// (google.golang.org/genai), OpenAI and OpenAI-compatible servers
// (github.com/openai/openai-go) and Anthropic
// (github.com/anthropics/anthropic-sdk-go).
//
// Messages form a closed set: SystemMessage, HumanMessage, AIMessage and
// ToolMessage. A ToolMessage answers the ToolCall of the preceding AIMessage
// with the same ID.
//
// Providers that reject dots in function names see "tasks_list" instead of
// "tasks.list"; the mapping is reversed before tool calls reach the caller.
//
// New builds the configured provider and wraps it with WithRetry, which
// retries rate limits, server errors and transport failures with
// exponential backoff (github.com/cenkalti/backoff/v5).
package llm
