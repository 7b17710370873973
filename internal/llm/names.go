package llm

import "strings"

// toolNames maps tool names to a form accepted by providers that restrict
// function names to [a-zA-Z0-9_-], and back.
type toolNames struct {
	fromWire map[string]string
}

func newToolNames(tools []ToolSpec) *toolNames {
	n := &toolNames{fromWire: make(map[string]string, len(tools))}
	for _, t := range tools {
		n.fromWire[wireName(t.Name)] = t.Name
	}
	return n
}

func wireName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

// wire returns the provider-facing name.
func (n *toolNames) wire(name string) string {
	w := wireName(name)
	if _, ok := n.fromWire[w]; !ok {
		n.fromWire[w] = name
	}
	return w
}

// original maps a provider-facing name back. Unknown names pass through so
// the caller can report them.
func (n *toolNames) original(wire string) string {
	if name, ok := n.fromWire[wire]; ok {
		return name
	}
	return wire
}
