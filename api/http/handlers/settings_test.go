package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/thinkthread/thinkthread/pkg/settings"
)

type stubSettingsUC struct {
	cfg settings.Settings
	err error

	updated settings.Settings
}

func (s *stubSettingsUC) Get(context.Context) (settings.Settings, error) {
	return s.cfg, s.err
}

func (s *stubSettingsUC) Update(_ context.Context, _ uuid.UUID, in settings.Settings) (settings.Settings, error) {
	s.updated = in
	return in, s.err
}

func newSettingsApp(uc settings.UseCase) *fiber.App {
	app := fiber.New()
	h := NewSettingsHandler(uc)
	app.Get("/settings", asUser(uuid.New(), false), h.Get)
	app.Put("/settings", asUser(uuid.New(), true), h.Update)
	return app
}

func TestGetSettings(t *testing.T) {
	uc := &stubSettingsUC{cfg: settings.Defaults("auto", "llama3.2")}
	app := newSettingsApp(uc)

	resp := doTest(t, app, jsonRequest(http.MethodGet, "/settings", ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cfg := decodeBody[settings.Settings](t, resp)
	require.Equal(t, "auto", cfg.DefaultProvider)
	require.Equal(t, 2, cfg.HandoffThreshold)
}

func TestUpdateSettings(t *testing.T) {
	uc := &stubSettingsUC{}
	app := newSettingsApp(uc)

	payload := `{
		"greeting": "Namaste!",
		"fallbackMessage": "try again later",
		"handoffThreshold": 3,
		"systemPrompt": "Be concise.",
		"defaultProvider": "openrouter",
		"defaultModel": "meta-llama/llama-3.3-70b-instruct",
		"allowedLocales": ["en", "ne"],
		"maxContext": 30
	}`
	resp := doTest(t, app, jsonRequest(http.MethodPut, "/settings", payload))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "Namaste!", uc.updated.Greeting)
	require.Equal(t, 3, uc.updated.HandoffThreshold)
	require.Equal(t, []string{"en", "ne"}, uc.updated.AllowedLocales)
	require.Equal(t, 30, uc.updated.MaxContext)
}

func TestUpdateSettings_Validation(t *testing.T) {
	uc := &stubSettingsUC{err: settings.ErrValidation("maxContext must be between 1 and 100")}
	app := newSettingsApp(uc)

	resp := doTest(t, app, jsonRequest(http.MethodPut, "/settings", `{"handoffThreshold":1,"maxContext":9000}`))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, errorMessage(t, resp), "maxContext")
}

func TestUpdateSettings_InvalidJSON(t *testing.T) {
	app := newSettingsApp(&stubSettingsUC{})

	resp := doTest(t, app, jsonRequest(http.MethodPut, "/settings", `{"greeting":`))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
