package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/thinkthread/thinkthread/pkg/feedback"
)

// FeedbackRepository implements feedback.Repository backed by MongoDB.
type FeedbackRepository struct {
	col *mongo.Collection
}

func NewFeedbackRepository(db *mongo.Database) (*FeedbackRepository, error) {
	repo := &FeedbackRepository{col: db.Collection("feedback")}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *FeedbackRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "message_id", Value: 1}, {Key: "author_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: 1}},
		},
	})
	return err
}

type feedbackDoc struct {
	ID             string    `bson:"_id"`
	ConversationID string    `bson:"conversation_id"`
	MessageID      string    `bson:"message_id"`
	AuthorID       string    `bson:"author_id"`
	Rating         int       `bson:"rating"`
	Comment        string    `bson:"comment,omitempty"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

// Upsert keys ratings by (message, author): rating again overwrites the
// stored row in place, keeping its id and created_at.
func (r *FeedbackRepository) Upsert(ctx context.Context, f feedback.Feedback) (feedback.Feedback, error) {
	filter := bson.M{
		"message_id": f.MessageID.String(),
		"author_id":  f.AuthorID.String(),
	}
	update := bson.M{
		"$set": bson.M{
			"conversation_id": f.ConversationID.String(),
			"rating":          f.Rating,
			"comment":         f.Comment,
			"updated_at":      f.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":        f.ID.String(),
			"created_at": f.CreatedAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc feedbackDoc
	if err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return feedback.Feedback{}, err
	}
	return doc.domain()
}

func (r *FeedbackRepository) ListByConversation(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]feedback.Feedback, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, bson.M{"conversation_id": conversationID.String()}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []feedback.Feedback
	for cursor.Next(ctx) {
		var doc feedbackDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		f, err := doc.domain()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, cursor.Err()
}

func (r *FeedbackRepository) DeleteByConversation(ctx context.Context, conversationID uuid.UUID) error {
	_, err := r.col.DeleteMany(ctx, bson.M{"conversation_id": conversationID.String()})
	return err
}

func (d feedbackDoc) domain() (feedback.Feedback, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return feedback.Feedback{}, fmt.Errorf("parse feedback id: %w", err)
	}
	conversationID, err := uuid.Parse(d.ConversationID)
	if err != nil {
		return feedback.Feedback{}, fmt.Errorf("parse conversation id: %w", err)
	}
	messageID, err := uuid.Parse(d.MessageID)
	if err != nil {
		return feedback.Feedback{}, fmt.Errorf("parse message id: %w", err)
	}
	authorID, err := uuid.Parse(d.AuthorID)
	if err != nil {
		return feedback.Feedback{}, fmt.Errorf("parse author id: %w", err)
	}
	return feedback.Feedback{
		ID:             id,
		ConversationID: conversationID,
		MessageID:      messageID,
		AuthorID:       authorID,
		Rating:         d.Rating,
		Comment:        d.Comment,
		CreatedAt:      d.CreatedAt.UTC(),
		UpdatedAt:      d.UpdatedAt.UTC(),
	}, nil
}
