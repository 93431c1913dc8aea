package settings

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thinkthread/thinkthread/pkg/audit"
	"github.com/thinkthread/thinkthread/pkg/llm"
)

// UseCase reads and updates the deployment-wide bot settings.
type UseCase interface {
	Get(ctx context.Context) (Settings, error)
	Update(ctx context.Context, actorID uuid.UUID, s Settings) (Settings, error)
}

// ErrValidation is a simple validation error.
type ErrValidation string

func (e ErrValidation) Error() string { return string(e) }

type service struct {
	repo     Repository
	audit    audit.Recorder
	defaults Settings
}

// NewService wires the settings repository. The audit recorder may be nil.
func NewService(repo Repository, recorder audit.Recorder, defaults Settings) UseCase {
	return &service{repo: repo, audit: recorder, defaults: defaults}
}

func (s *service) Get(ctx context.Context) (Settings, error) {
	stored, err := s.repo.Get(ctx)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return s.defaults, nil
		}
		return Settings{}, err
	}
	// Older documents may predate some fields; backfill from defaults.
	if stored.HandoffThreshold <= 0 {
		stored.HandoffThreshold = s.defaults.HandoffThreshold
	}
	if stored.MaxContext <= 0 {
		stored.MaxContext = s.defaults.MaxContext
	}
	if stored.DefaultProvider == "" {
		stored.DefaultProvider = s.defaults.DefaultProvider
	}
	return stored, nil
}

func (s *service) Update(ctx context.Context, actorID uuid.UUID, in Settings) (Settings, error) {
	in.Greeting = strings.TrimSpace(in.Greeting)
	in.FallbackMessage = strings.TrimSpace(in.FallbackMessage)
	in.SystemPrompt = strings.TrimSpace(in.SystemPrompt)
	in.DefaultModel = strings.TrimSpace(in.DefaultModel)
	in.DefaultProvider = strings.TrimSpace(in.DefaultProvider)

	if in.HandoffThreshold < 1 {
		return Settings{}, ErrValidation("handoffThreshold must be at least 1")
	}
	if in.MaxContext < 1 || in.MaxContext > 100 {
		return Settings{}, ErrValidation("maxContext must be between 1 and 100")
	}
	switch in.DefaultProvider {
	case llm.ProviderAuto, llm.ProviderOllama, llm.ProviderOpenRouter:
	case "":
		in.DefaultProvider = s.defaults.DefaultProvider
	default:
		return Settings{}, ErrValidation("defaultProvider must be auto, ollama or openrouter")
	}
	locales := make([]string, 0, len(in.AllowedLocales))
	for _, l := range in.AllowedLocales {
		l = strings.TrimSpace(strings.ToLower(l))
		if l != "" {
			locales = append(locales, l)
		}
	}
	in.AllowedLocales = locales
	in.UpdatedAt = time.Now().UTC()

	if err := s.repo.Upsert(ctx, in); err != nil {
		return Settings{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, actorID, "settings.update", map[string]string{
			"defaultProvider": in.DefaultProvider,
			"defaultModel":    in.DefaultModel,
		})
	}
	return in, nil
}
