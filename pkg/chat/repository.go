package chat

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a conversation does not exist or belongs
	// to another user.
	ErrNotFound = errors.New("conversation not found")
	// ErrArchived is returned when a message is sent to an ended conversation.
	ErrArchived = errors.New("conversation is archived")
)

// ConversationRepository persists conversations.
type ConversationRepository interface {
	Create(ctx context.Context, conversation Conversation) error
	GetByID(ctx context.Context, id uuid.UUID) (Conversation, error)
	GetByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (Conversation, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]Conversation, error)
	ListAll(ctx context.Context, limit, offset int) ([]Conversation, error)
	Update(ctx context.Context, conversation Conversation) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// MessageRepository persists conversation turns.
type MessageRepository interface {
	Insert(ctx context.Context, message Message) error
	GetByID(ctx context.Context, conversationID, messageID uuid.UUID) (Message, error)
	// ListByConversation returns turns in chronological order.
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]Message, error)
	// Tail returns the last n turns in chronological order.
	Tail(ctx context.Context, conversationID uuid.UUID, n int) ([]Message, error)
	DeleteByConversation(ctx context.Context, conversationID uuid.UUID) error
}

// FeedbackPurger removes feedback left on a conversation that is being deleted.
type FeedbackPurger interface {
	DeleteByConversation(ctx context.Context, conversationID uuid.UUID) error
}
