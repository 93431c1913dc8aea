package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/thinkthread/thinkthread/pkg/cache"
	"github.com/thinkthread/thinkthread/pkg/llm"
)

// stubProvider is a scriptable provider for catalog tests.
type stubProvider struct {
	name       string
	models     []llm.ModelInfo
	modelsErr  error
	modelCalls int
	pingErr    error
	pingDelay  time.Duration
	pingCalls  int
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Chat(context.Context, llm.ChatRequest) (llm.Reply, error) {
	return llm.Reply{}, errors.New("not used")
}

func (p *stubProvider) Models(context.Context) ([]llm.ModelInfo, error) {
	p.modelCalls++
	return p.models, p.modelsErr
}

func (p *stubProvider) Ping(ctx context.Context) error {
	p.pingCalls++
	if p.pingDelay > 0 {
		select {
		case <-time.After(p.pingDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return p.pingErr
}

// stubSet serves providers in the order they were given.
type stubSet struct {
	providers []llm.Provider
}

func (s *stubSet) Names() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name())
	}
	return names
}

func (s *stubSet) Provider(name string) (llm.Provider, error) {
	for _, p := range s.providers {
		if p.Name() == name {
			return p, nil
		}
	}
	return nil, llm.ErrUnknownProvider
}

func newCatalog(providers ...llm.Provider) (UseCase, *stubSet) {
	set := &stubSet{providers: providers}
	return NewService(set, cache.NewMemoryStore(), time.Minute), set
}

// ---------------------------------------------------------------------------
// Models
// ---------------------------------------------------------------------------

func TestModels_MergeAndSort(t *testing.T) {
	local := &stubProvider{name: llm.ProviderOllama, models: []llm.ModelInfo{
		{ID: "mistral", Provider: llm.ProviderOllama, Name: "mistral"},
		{ID: "llama3.2", Provider: llm.ProviderOllama, Name: "llama3.2"},
	}}
	cloud := &stubProvider{name: llm.ProviderOpenRouter, models: []llm.ModelInfo{
		{ID: "z-ai/glm-4", Provider: llm.ProviderOpenRouter, Name: "GLM 4"},
		{ID: "anthropic/claude-sonnet-4", Provider: llm.ProviderOpenRouter, Name: "Claude Sonnet 4"},
	}}
	uc, _ := newCatalog(local, cloud)

	models, err := uc.Models(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 4)

	// Sorted by provider, then id.
	require.Equal(t, "llama3.2", models[0].ID)
	require.Equal(t, "mistral", models[1].ID)
	require.Equal(t, "anthropic/claude-sonnet-4", models[2].ID)
	require.Equal(t, "z-ai/glm-4", models[3].ID)
}

func TestModels_CachedOnSecondCall(t *testing.T) {
	local := &stubProvider{name: llm.ProviderOllama, models: []llm.ModelInfo{
		{ID: "llama3.2", Provider: llm.ProviderOllama},
	}}
	uc, _ := newCatalog(local)

	_, err := uc.Models(context.Background())
	require.NoError(t, err)
	_, err = uc.Models(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, local.modelCalls, "second call must come from the cache")
}

func TestModels_PartialFailure(t *testing.T) {
	local := &stubProvider{name: llm.ProviderOllama, modelsErr: errors.New("connection refused")}
	cloud := &stubProvider{name: llm.ProviderOpenRouter, models: []llm.ModelInfo{
		{ID: "anthropic/claude-sonnet-4", Provider: llm.ProviderOpenRouter},
	}}
	uc, _ := newCatalog(local, cloud)

	models, err := uc.Models(context.Background())
	require.NoError(t, err, "one healthy provider is enough")
	require.Len(t, models, 1)
	require.Equal(t, llm.ProviderOpenRouter, models[0].Provider)
}

func TestModels_AllProvidersFail(t *testing.T) {
	local := &stubProvider{name: llm.ProviderOllama, modelsErr: errors.New("connection refused")}
	cloud := &stubProvider{name: llm.ProviderOpenRouter, modelsErr: errors.New("invalid key")}
	uc, _ := newCatalog(local, cloud)

	_, err := uc.Models(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "list models")
}

func TestModels_NoProviders(t *testing.T) {
	uc, _ := newCatalog()

	_, err := uc.Models(context.Background())
	require.ErrorIs(t, err, ErrNoModels)
}

// ---------------------------------------------------------------------------
// Status
// ---------------------------------------------------------------------------

func TestStatus_HealthyAndDown(t *testing.T) {
	local := &stubProvider{name: llm.ProviderOllama}
	cloud := &stubProvider{name: llm.ProviderOpenRouter, pingErr: errors.New("401 invalid key")}
	uc, _ := newCatalog(local, cloud)

	statuses, err := uc.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	require.Equal(t, llm.ProviderOllama, statuses[0].Name)
	require.Equal(t, StateHealthy, statuses[0].State)
	require.Empty(t, statuses[0].Error)

	require.Equal(t, llm.ProviderOpenRouter, statuses[1].Name)
	require.Equal(t, StateDown, statuses[1].State)
	require.Contains(t, statuses[1].Error, "invalid key")
}

func TestStatus_DegradedWhenSlow(t *testing.T) {
	slow := &stubProvider{name: llm.ProviderOllama, pingDelay: degradedAfter + 100*time.Millisecond}
	uc, _ := newCatalog(slow)

	statuses, err := uc.Status(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.Equal(t, StateDegraded, statuses[0].State)
	require.GreaterOrEqual(t, statuses[0].LatencyMS, degradedAfter.Milliseconds())
}

func TestStatus_CachedOnSecondCall(t *testing.T) {
	local := &stubProvider{name: llm.ProviderOllama}
	uc, _ := newCatalog(local)

	_, err := uc.Status(context.Background())
	require.NoError(t, err)
	_, err = uc.Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, local.pingCalls, "second call must come from the cache")
}
