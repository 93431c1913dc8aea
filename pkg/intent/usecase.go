package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/thinkthread/thinkthread/pkg/audit"
	"github.com/thinkthread/thinkthread/pkg/cache"
	"github.com/thinkthread/thinkthread/pkg/nlp"
)

const (
	activeCacheKey = "intents:active"
	activeCacheTTL = time.Minute

	// matchThreshold is the minimum score for a detection to count. A
	// whole-phrase hit scores 1.0; token overlap has to cover at least
	// three quarters of a training phrase.
	matchThreshold = 0.75

	maxPhrases   = 50
	maxResponses = 20
)

var keyPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,63}$`)

// ErrValidation is returned for invalid intent input.
type ErrValidation string

func (e ErrValidation) Error() string { return string(e) }

// UseCase manages the intent registry and matches user text against it.
type UseCase interface {
	List(ctx context.Context) ([]Intent, error)
	Upsert(ctx context.Context, actorID uuid.UUID, in Intent) (Intent, error)
	Delete(ctx context.Context, actorID uuid.UUID, key string) error
	Detect(ctx context.Context, content string) (Detection, bool, error)
}

type service struct {
	repo    Repository
	store   cache.Store
	auditor audit.Recorder
}

// NewService wires the intent use case. The audit recorder may be nil.
func NewService(repo Repository, store cache.Store, recorder audit.Recorder) UseCase {
	return &service{repo: repo, store: store, auditor: recorder}
}

func (s *service) List(ctx context.Context) ([]Intent, error) {
	return s.repo.List(ctx)
}

func (s *service) Upsert(ctx context.Context, actorID uuid.UUID, in Intent) (Intent, error) {
	in.Key = strings.TrimSpace(strings.ToLower(in.Key))
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	in.TrainingPhrases = cleanList(in.TrainingPhrases)
	in.Responses = cleanList(in.Responses)

	if !keyPattern.MatchString(in.Key) {
		return Intent{}, ErrValidation("key must be a slug: lowercase letters, digits, '-' or '_'")
	}
	if in.Name == "" {
		return Intent{}, ErrValidation("name is required")
	}
	if in.IsActive && len(in.TrainingPhrases) == 0 {
		return Intent{}, ErrValidation("an active intent needs at least one training phrase")
	}
	if len(in.TrainingPhrases) > maxPhrases {
		return Intent{}, ErrValidation("too many training phrases")
	}
	if len(in.Responses) > maxResponses {
		return Intent{}, ErrValidation("too many responses")
	}

	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	in.UpdatedAt = time.Now().UTC()

	stored, err := s.repo.Upsert(ctx, in)
	if err != nil {
		return Intent{}, fmt.Errorf("store intent: %w", err)
	}
	_ = s.store.Delete(ctx, activeCacheKey)

	if s.auditor != nil {
		_ = s.auditor.Record(ctx, actorID, "intent.upsert", map[string]string{"key": stored.Key})
	}
	return stored, nil
}

func (s *service) Delete(ctx context.Context, actorID uuid.UUID, key string) error {
	key = strings.TrimSpace(strings.ToLower(key))
	if err := s.repo.Delete(ctx, key); err != nil {
		return err
	}
	_ = s.store.Delete(ctx, activeCacheKey)

	if s.auditor != nil {
		_ = s.auditor.Record(ctx, actorID, "intent.delete", map[string]string{"key": key})
	}
	return nil
}

// Detect matches user text against the active intents. The boolean reports
// whether any intent scored at or above the threshold.
func (s *service) Detect(ctx context.Context, content string) (Detection, bool, error) {
	intents, err := s.activeIntents(ctx)
	if err != nil {
		return Detection{}, false, err
	}
	if len(intents) == 0 {
		return Detection{}, false, nil
	}

	normalized := nlp.Normalize(content)
	if normalized == "" {
		return Detection{}, false, nil
	}
	tokens := nlp.Tokens(normalized)

	var best Detection
	for _, in := range intents {
		score := matchScore(normalized, tokens, in.TrainingPhrases)
		if score > best.Score {
			best = Detection{Key: in.Key, Score: score}
			if len(in.Responses) > 0 {
				// Templates are ordered by preference; the first one answers.
				best.Response = in.Responses[0]
			}
		}
	}
	if best.Score < matchThreshold {
		return Detection{}, false, nil
	}
	return best, true, nil
}

// activeIntents serves the active set from cache when fresh, hitting the
// repository otherwise. Upsert and Delete invalidate the key.
func (s *service) activeIntents(ctx context.Context) ([]Intent, error) {
	if cached, err := s.store.Get(ctx, activeCacheKey); err == nil {
		var intents []Intent
		if err := json.Unmarshal(cached, &intents); err == nil {
			return intents, nil
		}
	}
	intents, err := s.repo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active intents: %w", err)
	}
	if encoded, err := json.Marshal(intents); err == nil {
		_ = s.store.Set(ctx, activeCacheKey, encoded, activeCacheTTL)
	}
	return intents, nil
}

// matchScore is the best score across the training phrases: 1.0 for a
// whole-phrase hit, otherwise the token coverage of the phrase.
func matchScore(normalized string, tokens map[string]struct{}, phrases []string) float64 {
	var best float64
	for _, phrase := range phrases {
		p := nlp.Normalize(phrase)
		if p == "" {
			continue
		}
		if nlp.ContainsPhrase(normalized, p) {
			return 1.0
		}
		if overlap := nlp.Overlap(tokens, p); overlap > best {
			best = overlap
		}
	}
	return best
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
