package llm

// Role identifies the author of a Message.
type Role string

const (
	RoleSystem Role = "system"
	RoleHuman  Role = "human"
	RoleAI     Role = "ai"
	RoleTool   Role = "tool"
)

// Message is one entry of a conversation. The set of implementations is
// closed: SystemMessage, HumanMessage, AIMessage and ToolMessage.
type Message interface {
	Role() Role
	isMessage()
}

// SystemMessage carries instructions or injected context.
type SystemMessage struct {
	Content string
}

// HumanMessage carries user input.
type HumanMessage struct {
	Content string
}

// AIMessage is a model response. It either requests tool calls, answers in
// Content, or both.
type AIMessage struct {
	Content   string
	ToolCalls []ToolCall
}

// ToolMessage answers the ToolCall with the same ID.
type ToolMessage struct {
	ToolCallID string
	Name       string
	Content    string
}

// ToolCall is a model-requested invocation of a named tool.
type ToolCall struct {
	ID   string
	Name string
	Args map[string]any
}

func (SystemMessage) Role() Role { return RoleSystem }
func (HumanMessage) Role() Role  { return RoleHuman }
func (AIMessage) Role() Role     { return RoleAI }
func (ToolMessage) Role() Role   { return RoleTool }

func (SystemMessage) isMessage() {}
func (HumanMessage) isMessage()  {}
func (AIMessage) isMessage()     {}
func (ToolMessage) isMessage()   {}

// HasToolCalls reports whether the model asked for any tool invocation.
func (m AIMessage) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}
