package llm

import "context"

// Chat roles shared by both provider wire formats.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Registered provider names. ProviderAuto is not a real provider: it asks
// the router to try the local runtime first and fall back to the cloud API.
const (
	ProviderOllama     = "ollama"
	ProviderOpenRouter = "openrouter"
	ProviderAuto       = "auto"
)

// Message is a single prompt turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the provider-agnostic completion request.
type ChatRequest struct {
	Model       string
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Reply is a completed assistant turn together with accounting data.
// Provider and Model record which backend actually answered, which matters
// in auto mode.
type Reply struct {
	Content          string
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
}

// ModelInfo describes one servable model from a provider catalog.
type ModelInfo struct {
	ID            string `json:"id"`
	Provider      string `json:"provider"`
	Name          string `json:"name"`
	ContextLength int    `json:"context_length,omitempty"`
}

// Provider is a minimal abstraction for chat-based LLM backends used by the
// domain. It intentionally hides concrete providers to preserve dependency
// direction.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req ChatRequest) (Reply, error)
	Models(ctx context.Context) ([]ModelInfo, error)
	Ping(ctx context.Context) error
}
