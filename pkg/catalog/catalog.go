// Package catalog aggregates the model lists and liveness of the configured
// providers, caching results so browsing the picker does not hammer upstreams.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/thinkthread/thinkthread/pkg/cache"
	"github.com/thinkthread/thinkthread/pkg/llm"
)

const (
	modelsCacheKey = "catalog:models"
	statusCacheKey = "catalog:status"

	statusTTL       = 30 * time.Second
	probeTimeout    = 3 * time.Second
	degradedAfter   = 2 * time.Second
	defaultModelTTL = 5 * time.Minute
)

// Provider states reported by Status.
const (
	StateHealthy  = "healthy"
	StateDegraded = "degraded"
	StateDown     = "down"
)

// ErrNoModels is returned when every provider failed to list models.
var ErrNoModels = errors.New("no models available from any provider")

// ProviderStatus is the probe result for one provider.
type ProviderStatus struct {
	Name      string `json:"name"`
	State     string `json:"state"`
	LatencyMS int64  `json:"latencyMs"`
	Error     string `json:"error,omitempty"`
}

// ProviderSet exposes the configured providers in registration order.
type ProviderSet interface {
	Names() []string
	Provider(name string) (llm.Provider, error)
}

// UseCase serves the merged model catalog and provider health.
type UseCase interface {
	Models(ctx context.Context) ([]llm.ModelInfo, error)
	Status(ctx context.Context) ([]ProviderStatus, error)
}

type service struct {
	providers ProviderSet
	store     cache.Store
	modelTTL  time.Duration
}

// NewService wires the catalog use case. ttl bounds how long the merged model
// list is cached; zero falls back to five minutes.
func NewService(providers ProviderSet, store cache.Store, ttl time.Duration) UseCase {
	if ttl <= 0 {
		ttl = defaultModelTTL
	}
	return &service{providers: providers, store: store, modelTTL: ttl}
}

func (s *service) Models(ctx context.Context) ([]llm.ModelInfo, error) {
	if cached, err := s.store.Get(ctx, modelsCacheKey); err == nil {
		var models []llm.ModelInfo
		if err := json.Unmarshal(cached, &models); err == nil {
			return models, nil
		}
	}

	var (
		models  []llm.ModelInfo
		lastErr error
	)
	for _, name := range s.providers.Names() {
		provider, err := s.providers.Provider(name)
		if err != nil {
			continue
		}
		listed, err := provider.Models(ctx)
		if err != nil {
			lastErr = err
			continue
		}
		models = append(models, listed...)
	}
	if len(models) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("list models: %w", lastErr)
		}
		return nil, ErrNoModels
	}

	sort.SliceStable(models, func(i, j int) bool {
		if models[i].Provider != models[j].Provider {
			return models[i].Provider < models[j].Provider
		}
		return models[i].ID < models[j].ID
	})

	if encoded, err := json.Marshal(models); err == nil {
		_ = s.store.Set(ctx, modelsCacheKey, encoded, s.modelTTL)
	}
	return models, nil
}

func (s *service) Status(ctx context.Context) ([]ProviderStatus, error) {
	if cached, err := s.store.Get(ctx, statusCacheKey); err == nil {
		var statuses []ProviderStatus
		if err := json.Unmarshal(cached, &statuses); err == nil {
			return statuses, nil
		}
	}

	names := s.providers.Names()
	statuses := make([]ProviderStatus, len(names))

	var wg sync.WaitGroup
	for i, name := range names {
		provider, err := s.providers.Provider(name)
		if err != nil {
			continue
		}
		wg.Add(1)
		go func(i int, provider llm.Provider) {
			defer wg.Done()
			statuses[i] = probe(ctx, provider)
		}(i, provider)
	}
	wg.Wait()

	if encoded, err := json.Marshal(statuses); err == nil {
		_ = s.store.Set(ctx, statusCacheKey, encoded, statusTTL)
	}
	return statuses, nil
}

func probe(ctx context.Context, provider llm.Provider) ProviderStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	started := time.Now()
	err := provider.Ping(ctx)
	latency := time.Since(started)

	status := ProviderStatus{Name: provider.Name(), LatencyMS: latency.Milliseconds()}
	switch {
	case err != nil:
		status.State = StateDown
		status.Error = err.Error()
	case latency > degradedAfter:
		status.State = StateDegraded
	default:
		status.State = StateHealthy
	}
	return status
}
