package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/thinkthread/thinkthread/pkg/audit"
)

// AuditRepository implements audit.Repository backed by MongoDB.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) (*AuditRepository, error) {
	repo := &AuditRepository{col: db.Collection("audit_logs")}
	if err := repo.ensureIndexes(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *AuditRepository) ensureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	return err
}

type auditDoc struct {
	ID        string            `bson:"_id"`
	ActorID   string            `bson:"actor_id"`
	Action    string            `bson:"action"`
	Context   map[string]string `bson:"context,omitempty"`
	CreatedAt time.Time         `bson:"created_at"`
}

func (r *AuditRepository) Insert(ctx context.Context, e audit.Entry) error {
	doc := auditDoc{
		ID:        e.ID.String(),
		ActorID:   e.ActorID.String(),
		Action:    e.Action,
		Context:   e.Context,
		CreatedAt: e.CreatedAt,
	}
	_, err := r.col.InsertOne(ctx, doc)
	return err
}

// List returns entries newest first.
func (r *AuditRepository) List(ctx context.Context, limit, offset int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))
	cursor, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []audit.Entry
	for cursor.Next(ctx) {
		var doc auditDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		entry, err := doc.domain()
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, cursor.Err()
}

func (d auditDoc) domain() (audit.Entry, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return audit.Entry{}, fmt.Errorf("parse audit id: %w", err)
	}
	actorID, err := uuid.Parse(d.ActorID)
	if err != nil {
		return audit.Entry{}, fmt.Errorf("parse actor id: %w", err)
	}
	return audit.Entry{
		ID:        id,
		ActorID:   actorID,
		Action:    d.Action,
		Context:   d.Context,
		CreatedAt: d.CreatedAt.UTC(),
	}, nil
}
