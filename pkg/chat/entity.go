package chat

import (
	"time"

	"github.com/google/uuid"
)

// Message statuses. Fallback marks assistant turns that carry the configured
// fallback text because the provider could not answer.
const (
	StatusComplete = "complete"
	StatusFallback = "fallback"
)

// DefaultChannel labels conversations started from the web frontend.
const DefaultChannel = "web"

// Conversation is a chat thread owned by a user.
type Conversation struct {
	ID           uuid.UUID  `json:"id"`
	OwnerID      uuid.UUID  `json:"ownerId"`
	Title        string     `json:"title"`
	Provider     string     `json:"provider"`
	Model        string     `json:"model,omitempty"`
	Channel      string     `json:"channel"`
	Locale       string     `json:"locale"`
	SystemPrompt string     `json:"systemPrompt,omitempty"`
	Fallbacks    int        `json:"fallbacks"`
	MessageCount int        `json:"messageCount"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	EndedAt      *time.Time `json:"endedAt,omitempty"`
}

// Archived reports whether the conversation stopped accepting messages.
func (c Conversation) Archived() bool { return c.EndedAt != nil }

// Message is a single persisted conversation turn. Provider, Model and the
// token counters are only set on assistant turns; Intent carries the
// detected intent key on user turns and on canned intent answers.
type Message struct {
	ID               uuid.UUID `json:"id"`
	ConversationID   uuid.UUID `json:"conversationId"`
	Role             string    `json:"role"`
	Content          string    `json:"content"`
	Provider         string    `json:"provider,omitempty"`
	Model            string    `json:"model,omitempty"`
	Intent           string    `json:"intent,omitempty"`
	PromptTokens     int       `json:"promptTokens,omitempty"`
	CompletionTokens int       `json:"completionTokens,omitempty"`
	LatencyMS        int64     `json:"latencyMs,omitempty"`
	Status           string    `json:"status"`
	CreatedAt        time.Time `json:"createdAt"`
}
