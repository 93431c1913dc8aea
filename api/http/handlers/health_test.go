package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
)

type stubReadiness struct {
	err error
}

func (s *stubReadiness) Ready(context.Context) error { return s.err }

func newHealthApp(err error) *fiber.App {
	app := fiber.New()
	h := NewHealthHandler(&stubReadiness{err: err})
	app.Get("/health", h.Health)
	app.Get("/ready", h.Ready)
	return app
}

func TestHealth(t *testing.T) {
	resp := doTest(t, newHealthApp(nil), jsonRequest(http.MethodGet, "/health", ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ok", decodeBody[map[string]string](t, resp)["status"])
}

func TestReady(t *testing.T) {
	resp := doTest(t, newHealthApp(nil), jsonRequest(http.MethodGet, "/ready", ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "ready", decodeBody[map[string]string](t, resp)["status"])
}

func TestReady_DependencyDown(t *testing.T) {
	resp := doTest(t, newHealthApp(errors.New("mongo: connection refused")), jsonRequest(http.MethodGet, "/ready", ""))
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body := decodeBody[map[string]string](t, resp)
	require.Equal(t, "not_ready", body["status"])
	require.Contains(t, body["details"], "mongo")
}
