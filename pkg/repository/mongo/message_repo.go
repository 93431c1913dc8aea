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

// MessageRepository implements chat.MessageRepository backed by MongoDB.
type MessageRepository struct {
	col *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) (*MessageRepository, error) {
	repo := &MessageRepository{col: db.Collection("messages")}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *MessageRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	return err
}

type messageDoc struct {
	ID               string    `bson:"_id"`
	ConversationID   string    `bson:"conversation_id"`
	Role             string    `bson:"role"`
	Content          string    `bson:"content"`
	Provider         string    `bson:"provider,omitempty"`
	Model            string    `bson:"model,omitempty"`
	Intent           string    `bson:"intent,omitempty"`
	PromptTokens     int       `bson:"prompt_tokens,omitempty"`
	CompletionTokens int       `bson:"completion_tokens,omitempty"`
	LatencyMS        int64     `bson:"latency_ms,omitempty"`
	Status           string    `bson:"status"`
	CreatedAt        time.Time `bson:"created_at"`
}

func (r *MessageRepository) Insert(ctx context.Context, message chat.Message) error {
	doc := messageDoc{
		ID:               message.ID.String(),
		ConversationID:   message.ConversationID.String(),
		Role:             message.Role,
		Content:          message.Content,
		Provider:         message.Provider,
		Model:            message.Model,
		Intent:           message.Intent,
		PromptTokens:     message.PromptTokens,
		CompletionTokens: message.CompletionTokens,
		LatencyMS:        message.LatencyMS,
		Status:           message.Status,
		CreatedAt:        message.CreatedAt,
	}
	_, err := r.col.InsertOne(ctx, doc)
	return err
}

func (r *MessageRepository) GetByID(ctx context.Context, conversationID, messageID uuid.UUID) (chat.Message, error) {
	var doc messageDoc
	filter := bson.M{"_id": messageID.String(), "conversation_id": conversationID.String()}
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return chat.Message{}, chat.ErrNotFound
		}
		return chat.Message{}, err
	}
	return doc.domain()
}

func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]chat.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	return r.find(ctx, bson.M{"conversation_id": conversationID.String()}, opts)
}

// Tail fetches the newest n turns and flips them back into chronological
// order for prompt assembly.
func (r *MessageRepository) Tail(ctx context.Context, conversationID uuid.UUID, n int) ([]chat.Message, error) {
	if n <= 0 {
		return nil, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(n))
	out, err := r.find(ctx, bson.M{"conversation_id": conversationID.String()}, opts)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *MessageRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]chat.Message, error) {
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []chat.Message
	for cursor.Next(ctx) {
		var doc messageDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		message, err := doc.domain()
		if err != nil {
			return nil, err
		}
		out = append(out, message)
	}
	return out, cursor.Err()
}

func (r *MessageRepository) DeleteByConversation(ctx context.Context, conversationID uuid.UUID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"conversation_id": conversationID.String()})
	return err
}

func (d messageDoc) domain() (chat.Message, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return chat.Message{}, fmt.Errorf("parse message id: %w", err)
	}
	conversationID, err := uuid.Parse(d.ConversationID)
	if err != nil {
		return chat.Message{}, fmt.Errorf("parse conversation id: %w", err)
	}
	return chat.Message{
		ID:               id,
		ConversationID:   conversationID,
		Role:             d.Role,
		Content:          d.Content,
		Provider:         d.Provider,
		Model:            d.Model,
		Intent:           d.Intent,
		PromptTokens:     d.PromptTokens,
		CompletionTokens: d.CompletionTokens,
		LatencyMS:        d.LatencyMS,
		Status:           d.Status,
		CreatedAt:        d.CreatedAt.UTC(),
	}, nil
}
