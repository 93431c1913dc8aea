package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Entry records a sensitive action (registration, deletions, settings
// changes) for later review.
type Entry struct {
	ID        uuid.UUID         `json:"id"`
	ActorID   uuid.UUID         `json:"actorId"`
	Action    string            `json:"action"`
	Context   map[string]string `json:"context,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Recorder is the write-side port embedded in other use cases.
type Recorder interface {
	Record(ctx context.Context, actorID uuid.UUID, action string, details map[string]string) error
}

// Repository persists and lists entries.
type Repository interface {
	Insert(ctx context.Context, e Entry) error
	List(ctx context.Context, limit, offset int) ([]Entry, error)
}

// UseCase exposes the trail to admin endpoints in addition to recording.
type UseCase interface {
	Recorder
	List(ctx context.Context, limit, offset int) ([]Entry, error)
}

type service struct {
	repo Repository
}

func NewService(repo Repository) UseCase { return &service{repo: repo} }

func (s *service) Record(ctx context.Context, actorID uuid.UUID, action string, details map[string]string) error {
	e := Entry{
		ID:        uuid.New(),
		ActorID:   actorID,
		Action:    action,
		Context:   details,
		CreatedAt: time.Now().UTC(),
	}
	return s.repo.Insert(ctx, e)
}

func (s *service) List(ctx context.Context, limit, offset int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.List(ctx, limit, offset)
}
