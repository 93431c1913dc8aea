package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/thinkthread/thinkthread/pkg/settings"
)

// The bot settings live in a single well-known document.
const settingsDocID = "global"

// SettingsRepository implements settings.Repository backed by MongoDB.
type SettingsRepository struct {
	col *mongo.Collection
}

func NewSettingsRepository(db *mongo.Database) *SettingsRepository {
	return &SettingsRepository{col: db.Collection("settings")}
}

type settingsDoc struct {
	ID               string    `bson:"_id"`
	Greeting         string    `bson:"greeting"`
	FallbackMessage  string    `bson:"fallback_message"`
	HandoffThreshold int       `bson:"handoff_threshold"`
	SystemPrompt     string    `bson:"system_prompt"`
	DefaultProvider  string    `bson:"default_provider"`
	DefaultModel     string    `bson:"default_model"`
	AllowedLocales   []string  `bson:"allowed_locales,omitempty"`
	MaxContext       int       `bson:"max_context"`
	UpdatedAt        time.Time `bson:"updated_at"`
}

func (r *SettingsRepository) Get(ctx context.Context) (settings.Settings, error) {
	var doc settingsDoc
	err := r.col.FindOne(ctx, bson.M{"_id": settingsDocID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return settings.Settings{}, settings.ErrNotFound
		}
		return settings.Settings{}, err
	}
	return settings.Settings{
		Greeting:         doc.Greeting,
		FallbackMessage:  doc.FallbackMessage,
		HandoffThreshold: doc.HandoffThreshold,
		SystemPrompt:     doc.SystemPrompt,
		DefaultProvider:  doc.DefaultProvider,
		DefaultModel:     doc.DefaultModel,
		AllowedLocales:   doc.AllowedLocales,
		MaxContext:       doc.MaxContext,
		UpdatedAt:        doc.UpdatedAt.UTC(),
	}, nil
}

func (r *SettingsRepository) Upsert(ctx context.Context, s settings.Settings) error {
	doc := settingsDoc{
		ID:               settingsDocID,
		Greeting:         s.Greeting,
		FallbackMessage:  s.FallbackMessage,
		HandoffThreshold: s.HandoffThreshold,
		SystemPrompt:     s.SystemPrompt,
		DefaultProvider:  s.DefaultProvider,
		DefaultModel:     s.DefaultModel,
		AllowedLocales:   s.AllowedLocales,
		MaxContext:       s.MaxContext,
		UpdatedAt:        s.UpdatedAt,
	}
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": settingsDocID}, doc, opts)
	return err
}
