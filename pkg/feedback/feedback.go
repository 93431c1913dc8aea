package feedback

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Ratings: -1 thumbs down, 0 cleared, 1 thumbs up.
const (
	RatingDown    = -1
	RatingCleared = 0
	RatingUp      = 1
)

// ErrNotFound is returned when the rated message does not exist in the
// conversation.
var ErrNotFound = errors.New("message not found")

// Feedback is one author's rating of an assistant message. An author has at
// most one rating per message; submitting again overwrites it.
type Feedback struct {
	ID             uuid.UUID `json:"id"`
	ConversationID uuid.UUID `json:"conversationId"`
	MessageID      uuid.UUID `json:"messageId"`
	AuthorID       uuid.UUID `json:"authorId"`
	Rating         int       `json:"rating"`
	Comment        string    `json:"comment,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// Repository persists feedback.
type Repository interface {
	// Upsert stores the rating, replacing the author's previous rating of the
	// same message if present. The stored row is returned.
	Upsert(ctx context.Context, feedback Feedback) (Feedback, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]Feedback, error)
	DeleteByConversation(ctx context.Context, conversationID uuid.UUID) error
}
