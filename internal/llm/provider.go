package llm

import (
	"context"
	"encoding/json"
)

// Message roles as carried on the wire
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleFunction  = "function"
)

// Tool-choice policies
const (
	ToolChoiceAuto = "auto"
	ToolChoiceNone = "none"
)

// Message is one turn of LLM input
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"` // tool name for function-result turns
}

// Schema is a JSON-schema fragment describing tool arguments. It marshals
// directly to the chat-completions wire format and converts to provider
// native forms.
type Schema struct {
	Type        string             `json:"type"`
	Description string             `json:"description,omitempty"`
	Properties  map[string]*Schema `json:"properties,omitempty"`
	Items       *Schema            `json:"items,omitempty"`
	Enum        []string           `json:"enum,omitempty"`
	Required    []string           `json:"required,omitempty"`
}

// Tool describes a callable function the model may request
type Tool struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Parameters  *Schema `json:"parameters,omitempty"`
}

// ToolCall is a structured invocation request returned by the model
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// ChatRequest contains a full completion request
type ChatRequest struct {
	Messages    []Message
	Tools       []Tool
	ToolChoice  string // ToolChoiceAuto or ToolChoiceNone; empty means auto
	Temperature float64
	MaxTokens   int
}

// ChatResponse contains the assistant message of a completion
type ChatResponse struct {
	Content    string
	ToolCalls  []ToolCall
	Model      string
	TokensUsed int
}

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider identifier
	Name() string

	// AvailableModels returns list of supported models
	AvailableModels() []string

	// DefaultModel returns the default model
	DefaultModel() string

	// IsConfigured checks if provider has valid credentials
	IsConfigured() bool

	// Chat runs one completion over the supplied messages and tool palette
	Chat(ctx context.Context, req ChatRequest, model string) (*ChatResponse, error)
}
