package settings

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// fakeRepo stores the singleton document in memory.
type fakeRepo struct {
	stored    *Settings
	getErr    error
	upsertErr error
}

func (f *fakeRepo) Get(context.Context) (Settings, error) {
	if f.getErr != nil {
		return Settings{}, f.getErr
	}
	if f.stored == nil {
		return Settings{}, ErrNotFound
	}
	return *f.stored, nil
}

func (f *fakeRepo) Upsert(_ context.Context, s Settings) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.stored = &s
	return nil
}

// stubRecorder collects audit actions.
type stubRecorder struct {
	actions []string
}

func (r *stubRecorder) Record(_ context.Context, _ uuid.UUID, action string, _ map[string]string) error {
	r.actions = append(r.actions, action)
	return nil
}

func defaults() Settings {
	return Defaults("auto", "llama3.2")
}

// ---------------------------------------------------------------------------
// Get
// ---------------------------------------------------------------------------

func TestGet_DefaultsUntilFirstSave(t *testing.T) {
	uc := NewService(&fakeRepo{}, nil, defaults())

	got, err := uc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "auto", got.DefaultProvider)
	require.Equal(t, 2, got.HandoffThreshold)
	require.Equal(t, 20, got.MaxContext)
	require.NotEmpty(t, got.Greeting)
	require.NotEmpty(t, got.FallbackMessage)
}

func TestGet_StoredDocumentWins(t *testing.T) {
	repo := &fakeRepo{stored: &Settings{
		Greeting:         "Welcome back",
		FallbackMessage:  "down for maintenance",
		HandoffThreshold: 5,
		MaxContext:       10,
		DefaultProvider:  "openrouter",
	}}
	uc := NewService(repo, nil, defaults())

	got, err := uc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Welcome back", got.Greeting)
	require.Equal(t, 5, got.HandoffThreshold)
	require.Equal(t, "openrouter", got.DefaultProvider)
}

func TestGet_BackfillsMissingFields(t *testing.T) {
	// A document written before handoff and context limits existed.
	repo := &fakeRepo{stored: &Settings{Greeting: "hey"}}
	uc := NewService(repo, nil, defaults())

	got, err := uc.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, got.HandoffThreshold)
	require.Equal(t, 20, got.MaxContext)
	require.Equal(t, "auto", got.DefaultProvider)
	require.Equal(t, "hey", got.Greeting)
}

func TestGet_RepoError(t *testing.T) {
	uc := NewService(&fakeRepo{getErr: errors.New("mongo down")}, nil, defaults())

	_, err := uc.Get(context.Background())
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func validUpdate() Settings {
	return Settings{
		Greeting:         "  Hello there  ",
		FallbackMessage:  "try later",
		HandoffThreshold: 3,
		SystemPrompt:     "Be brief.",
		DefaultProvider:  "ollama",
		DefaultModel:     "llama3.2",
		AllowedLocales:   []string{" EN ", "NE", ""},
		MaxContext:       15,
	}
}

func TestUpdate_NormalizesAndPersists(t *testing.T) {
	repo := &fakeRepo{}
	recorder := &stubRecorder{}
	uc := NewService(repo, recorder, defaults())

	got, err := uc.Update(context.Background(), uuid.New(), validUpdate())
	require.NoError(t, err)
	require.Equal(t, "Hello there", got.Greeting)
	require.Equal(t, []string{"en", "ne"}, got.AllowedLocales)
	require.False(t, got.UpdatedAt.IsZero())

	require.NotNil(t, repo.stored)
	require.Equal(t, "ollama", repo.stored.DefaultProvider)
	require.Equal(t, []string{"settings.update"}, recorder.actions)
}

func TestUpdate_HandoffThresholdTooLow(t *testing.T) {
	uc := NewService(&fakeRepo{}, nil, defaults())

	in := validUpdate()
	in.HandoffThreshold = 0
	_, err := uc.Update(context.Background(), uuid.New(), in)
	require.Error(t, err)
	require.Contains(t, err.Error(), "handoffThreshold")
}

func TestUpdate_MaxContextBounds(t *testing.T) {
	uc := NewService(&fakeRepo{}, nil, defaults())

	in := validUpdate()
	in.MaxContext = 0
	_, err := uc.Update(context.Background(), uuid.New(), in)
	require.Error(t, err)

	in.MaxContext = 101
	_, err = uc.Update(context.Background(), uuid.New(), in)
	require.Error(t, err)
	require.Contains(t, err.Error(), "maxContext")
}

func TestUpdate_ProviderValidation(t *testing.T) {
	uc := NewService(&fakeRepo{}, nil, defaults())

	in := validUpdate()
	in.DefaultProvider = "gpt4all"
	_, err := uc.Update(context.Background(), uuid.New(), in)
	require.Error(t, err)
	require.Contains(t, err.Error(), "defaultProvider")

	// Empty falls back to the deployment default.
	in.DefaultProvider = ""
	got, err := uc.Update(context.Background(), uuid.New(), in)
	require.NoError(t, err)
	require.Equal(t, "auto", got.DefaultProvider)
}

func TestUpdate_RepoError(t *testing.T) {
	uc := NewService(&fakeRepo{upsertErr: errors.New("mongo down")}, nil, defaults())

	_, err := uc.Update(context.Background(), uuid.New(), validUpdate())
	require.Error(t, err)
}

// ---------------------------------------------------------------------------
// LocaleAllowed
// ---------------------------------------------------------------------------

func TestLocaleAllowed(t *testing.T) {
	s := Settings{}
	require.True(t, s.LocaleAllowed("xx"), "empty list allows everything")

	s.AllowedLocales = []string{"en", "ne"}
	require.True(t, s.LocaleAllowed("ne"))
	require.False(t, s.LocaleAllowed("fr"))
}
