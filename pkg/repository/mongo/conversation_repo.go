package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/thinkthread/thinkthread/pkg/chat"
)

// ConversationRepository implements chat.ConversationRepository backed by
// MongoDB.
type ConversationRepository struct {
	col *mongo.Collection
}

func NewConversationRepository(db *mongo.Database) (*ConversationRepository, error) {
	repo := &ConversationRepository{col: db.Collection("conversations")}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *ConversationRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "updated_at", Value: -1}},
	})
	return err
}

type conversationDoc struct {
	ID           string     `bson:"_id"`
	OwnerID      string     `bson:"owner_id"`
	Title        string     `bson:"title,omitempty"`
	Provider     string     `bson:"provider"`
	Model        string     `bson:"model,omitempty"`
	Channel      string     `bson:"channel"`
	Locale       string     `bson:"locale"`
	SystemPrompt string     `bson:"system_prompt,omitempty"`
	Fallbacks    int        `bson:"fallbacks"`
	MessageCount int        `bson:"message_count"`
	CreatedAt    time.Time  `bson:"created_at"`
	UpdatedAt    time.Time  `bson:"updated_at"`
	EndedAt      *time.Time `bson:"ended_at,omitempty"`
}

func (r *ConversationRepository) Create(ctx context.Context, conversation chat.Conversation) error {
	_, err := r.col.InsertOne(ctx, toConversationDoc(conversation))
	return err
}

func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (chat.Conversation, error) {
	return r.findOne(ctx, bson.M{"_id": id.String()})
}

func (r *ConversationRepository) GetByIDForOwner(ctx context.Context, ownerID, id uuid.UUID) (chat.Conversation, error) {
	return r.findOne(ctx, bson.M{"_id": id.String(), "owner_id": ownerID.String()})
}

func (r *ConversationRepository) findOne(ctx context.Context, filter bson.M) (chat.Conversation, error) {
	var doc conversationDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return chat.Conversation{}, chat.ErrNotFound
		}
		return chat.Conversation{}, err
	}
	return doc.domain()
}

func (r *ConversationRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]chat.Conversation, error) {
	return r.list(ctx, bson.M{"owner_id": ownerID.String()}, limit, offset)
}

func (r *ConversationRepository) ListAll(ctx context.Context, limit, offset int) ([]chat.Conversation, error) {
	return r.list(ctx, bson.M{}, limit, offset)
}

func (r *ConversationRepository) list(ctx context.Context, filter bson.M, limit, offset int) ([]chat.Conversation, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []chat.Conversation
	for cursor.Next(ctx) {
		var doc conversationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		conversation, err := doc.domain()
		if err != nil {
			return nil, err
		}
		out = append(out, conversation)
	}
	return out, cursor.Err()
}

func (r *ConversationRepository) Update(ctx context.Context, conversation chat.Conversation) error {
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": conversation.ID.String()}, toConversationDoc(conversation))
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return chat.ErrNotFound
	}
	return nil
}

func (r *ConversationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return chat.ErrNotFound
	}
	return nil
}

func toConversationDoc(c chat.Conversation) conversationDoc {
	return conversationDoc{
		ID:           c.ID.String(),
		OwnerID:      c.OwnerID.String(),
		Title:        c.Title,
		Provider:     c.Provider,
		Model:        c.Model,
		Channel:      c.Channel,
		Locale:       c.Locale,
		SystemPrompt: c.SystemPrompt,
		Fallbacks:    c.Fallbacks,
		MessageCount: c.MessageCount,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		EndedAt:      c.EndedAt,
	}
}

func (d conversationDoc) domain() (chat.Conversation, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return chat.Conversation{}, fmt.Errorf("parse conversation id: %w", err)
	}
	ownerID, err := uuid.Parse(d.OwnerID)
	if err != nil {
		return chat.Conversation{}, fmt.Errorf("parse owner id: %w", err)
	}
	conversation := chat.Conversation{
		ID:           id,
		OwnerID:      ownerID,
		Title:        d.Title,
		Provider:     d.Provider,
		Model:        d.Model,
		Channel:      d.Channel,
		Locale:       d.Locale,
		SystemPrompt: d.SystemPrompt,
		Fallbacks:    d.Fallbacks,
		MessageCount: d.MessageCount,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
	if d.EndedAt != nil {
		ended := d.EndedAt.UTC()
		conversation.EndedAt = &ended
	}
	return conversation, nil
}
