package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/thinkthread/thinkthread/pkg/intent"
)

type stubIntentUC struct {
	intents []intent.Intent
	stored  intent.Intent
	err     error

	upserted   intent.Intent
	deletedKey string
}

func (s *stubIntentUC) List(context.Context) ([]intent.Intent, error) {
	return s.intents, s.err
}

func (s *stubIntentUC) Upsert(_ context.Context, _ uuid.UUID, in intent.Intent) (intent.Intent, error) {
	s.upserted = in
	return s.stored, s.err
}

func (s *stubIntentUC) Delete(_ context.Context, _ uuid.UUID, key string) error {
	s.deletedKey = key
	return s.err
}

func (s *stubIntentUC) Detect(context.Context, string) (intent.Detection, bool, error) {
	return intent.Detection{}, false, nil
}

func newIntentApp(uc intent.UseCase) *fiber.App {
	app := fiber.New()
	h := NewIntentHandler(uc)
	g := app.Group("/admin/intents", asUser(uuid.New(), true))
	g.Get("/", h.List)
	g.Put("/:key", h.Upsert)
	g.Delete("/:key", h.Delete)
	return app
}

func TestListIntents(t *testing.T) {
	uc := &stubIntentUC{intents: []intent.Intent{{Key: "opening_hours"}, {Key: "pricing"}}}
	app := newIntentApp(uc)

	resp := doTest(t, app, jsonRequest(http.MethodGet, "/admin/intents", ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decodeBody[[]intent.Intent](t, resp), 2)
}

func TestUpsertIntent(t *testing.T) {
	uc := &stubIntentUC{stored: intent.Intent{Key: "opening_hours", Name: "Opening hours"}}
	app := newIntentApp(uc)

	payload := `{
		"name": "Opening hours",
		"trainingPhrases": ["when are you open", "opening hours"],
		"responses": ["We are open 9-17, Mon-Fri."],
		"isActive": true
	}`
	resp := doTest(t, app, jsonRequest(http.MethodPut, "/admin/intents/opening_hours", payload))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The key comes from the path, not the body.
	require.Equal(t, "opening_hours", uc.upserted.Key)
	require.Equal(t, []string{"when are you open", "opening hours"}, uc.upserted.TrainingPhrases)
	require.True(t, uc.upserted.IsActive)
}

func TestUpsertIntent_Validation(t *testing.T) {
	uc := &stubIntentUC{err: intent.ErrValidation("at least one training phrase is required")}
	app := newIntentApp(uc)

	resp := doTest(t, app, jsonRequest(http.MethodPut, "/admin/intents/empty", `{"name":"Empty"}`))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, errorMessage(t, resp), "training phrase")
}

func TestDeleteIntent(t *testing.T) {
	uc := &stubIntentUC{}
	app := newIntentApp(uc)

	resp := doTest(t, app, jsonRequest(http.MethodDelete, "/admin/intents/opening_hours", ""))
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "opening_hours", uc.deletedKey)
}

func TestDeleteIntent_NotFound(t *testing.T) {
	uc := &stubIntentUC{err: intent.ErrNotFound}
	app := newIntentApp(uc)

	resp := doTest(t, app, jsonRequest(http.MethodDelete, "/admin/intents/ghost", ""))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
