package intent

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no intent exists under the given key.
var ErrNotFound = errors.New("intent not found")

// Intent is a recognizable user goal ("greeting", "opening_hours", ...)
// with the training phrases it is matched against. Intents that carry
// templated responses answer the user directly without calling a model
// provider; tag-only intents (no responses) are just recorded on the
// message for analytics.
type Intent struct {
	ID              uuid.UUID `json:"id"`
	Key             string    `json:"key"`
	Name            string    `json:"name"`
	Description     string    `json:"description,omitempty"`
	TrainingPhrases []string  `json:"trainingPhrases"`
	Responses       []string  `json:"responses,omitempty"`
	IsActive        bool      `json:"isActive"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// Detection is the result of matching user text against the active intents.
// Response is empty for tag-only intents.
type Detection struct {
	Key      string
	Score    float64
	Response string
}

// Repository persists intents.
type Repository interface {
	// Upsert stores the intent under its key, keeping the existing id when
	// the key is already taken. The stored row is returned.
	Upsert(ctx context.Context, in Intent) (Intent, error)
	GetByKey(ctx context.Context, key string) (Intent, error)
	List(ctx context.Context) ([]Intent, error)
	ListActive(ctx context.Context) ([]Intent, error)
	Delete(ctx context.Context, key string) error
}
