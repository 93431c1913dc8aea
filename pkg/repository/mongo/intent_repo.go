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

	"github.com/thinkthread/thinkthread/pkg/intent"
)

// IntentRepository implements intent.Repository backed by MongoDB.
type IntentRepository struct {
	col *mongo.Collection
}

func NewIntentRepository(db *mongo.Database) (*IntentRepository, error) {
	repo := &IntentRepository{col: db.Collection("intents")}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *IntentRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "key", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

type intentDoc struct {
	ID              string    `bson:"_id"`
	Key             string    `bson:"key"`
	Name            string    `bson:"name"`
	Description     string    `bson:"description,omitempty"`
	TrainingPhrases []string  `bson:"training_phrases"`
	Responses       []string  `bson:"responses,omitempty"`
	IsActive        bool      `bson:"is_active"`
	UpdatedAt       time.Time `bson:"updated_at"`
}

// Upsert stores the intent under its key; saving an existing key keeps the
// stored id.
func (r *IntentRepository) Upsert(ctx context.Context, in intent.Intent) (intent.Intent, error) {
	update := bson.M{
		"$set": bson.M{
			"name":             in.Name,
			"description":      in.Description,
			"training_phrases": in.TrainingPhrases,
			"responses":        in.Responses,
			"is_active":        in.IsActive,
			"updated_at":       in.UpdatedAt,
		},
		"$setOnInsert": bson.M{"_id": in.ID.String()},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var doc intentDoc
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"key": in.Key}, update, opts).Decode(&doc); err != nil {
		return intent.Intent{}, err
	}
	return doc.domain()
}

func (r *IntentRepository) GetByKey(ctx context.Context, key string) (intent.Intent, error) {
	var doc intentDoc
	if err := r.col.FindOne(ctx, bson.M{"key": key}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return intent.Intent{}, intent.ErrNotFound
		}
		return intent.Intent{}, err
	}
	return doc.domain()
}

func (r *IntentRepository) List(ctx context.Context) ([]intent.Intent, error) {
	return r.find(ctx, bson.M{})
}

func (r *IntentRepository) ListActive(ctx context.Context) ([]intent.Intent, error) {
	return r.find(ctx, bson.M{"is_active": true})
}

func (r *IntentRepository) find(ctx context.Context, filter bson.M) ([]intent.Intent, error) {
	opts := options.Find().SetSort(bson.D{{Key: "key", Value: 1}})
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []intent.Intent
	for cursor.Next(ctx) {
		var doc intentDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		in, err := doc.domain()
		if err != nil {
			return nil, err
		}
		out = append(out, in)
	}
	return out, cursor.Err()
}

func (r *IntentRepository) Delete(ctx context.Context, key string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"key": key})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return intent.ErrNotFound
	}
	return nil
}

func (d intentDoc) domain() (intent.Intent, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return intent.Intent{}, fmt.Errorf("parse intent id: %w", err)
	}
	return intent.Intent{
		ID:              id,
		Key:             d.Key,
		Name:            d.Name,
		Description:     d.Description,
		TrainingPhrases: d.TrainingPhrases,
		Responses:       d.Responses,
		IsActive:        d.IsActive,
		UpdatedAt:       d.UpdatedAt.UTC(),
	}, nil
}
