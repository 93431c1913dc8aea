package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/thinkthread/thinkthread/pkg/chat"
	"github.com/thinkthread/thinkthread/pkg/llm"
)

const maxCommentRunes = 1000

// ErrValidation is returned for invalid feedback input.
type ErrValidation string

func (e ErrValidation) Error() string { return string(e) }

// ConversationGuard checks that the author owns the conversation.
type ConversationGuard interface {
	GetByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (chat.Conversation, error)
}

// MessageSource looks up the rated turn inside the conversation.
type MessageSource interface {
	GetByID(ctx context.Context, conversationID, messageID uuid.UUID) (chat.Message, error)
}

// RateInput is a rating submitted for an assistant turn.
type RateInput struct {
	Rating  int
	Comment string
}

// UseCase records and lists message feedback.
type UseCase interface {
	Rate(ctx context.Context, authorID, conversationID, messageID uuid.UUID, in RateInput) (Feedback, error)
	List(ctx context.Context, ownerID, conversationID uuid.UUID, limit, offset int) ([]Feedback, error)
}

type service struct {
	repo          Repository
	conversations ConversationGuard
	messages      MessageSource
}

// NewService wires the feedback use case.
func NewService(repo Repository, conversations ConversationGuard, messages MessageSource) UseCase {
	return &service{repo: repo, conversations: conversations, messages: messages}
}

func (s *service) Rate(ctx context.Context, authorID, conversationID, messageID uuid.UUID, in RateInput) (Feedback, error) {
	switch in.Rating {
	case RatingDown, RatingCleared, RatingUp:
	default:
		return Feedback{}, ErrValidation("rating must be -1, 0 or 1")
	}

	comment := strings.TrimSpace(in.Comment)
	if utf8.RuneCountInString(comment) > maxCommentRunes {
		return Feedback{}, ErrValidation("comment exceeds 1000 characters")
	}

	if _, err := s.conversations.GetByIDForOwner(ctx, authorID, conversationID); err != nil {
		return Feedback{}, err
	}

	message, err := s.messages.GetByID(ctx, conversationID, messageID)
	if err != nil {
		return Feedback{}, err
	}
	if message.Role != llm.RoleAssistant {
		return Feedback{}, ErrValidation("only assistant messages can be rated")
	}

	now := time.Now().UTC()
	stored, err := s.repo.Upsert(ctx, Feedback{
		ID:             uuid.New(),
		ConversationID: conversationID,
		MessageID:      messageID,
		AuthorID:       authorID,
		Rating:         in.Rating,
		Comment:        comment,
		CreatedAt:      now,
		UpdatedAt:      now,
	})
	if err != nil {
		return Feedback{}, fmt.Errorf("store feedback: %w", err)
	}
	return stored, nil
}

func (s *service) List(ctx context.Context, ownerID, conversationID uuid.UUID, limit, offset int) ([]Feedback, error) {
	if _, err := s.conversations.GetByIDForOwner(ctx, ownerID, conversationID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByConversation(ctx, conversationID, limit, offset)
}
