package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/thinkthread/thinkthread/pkg/chat"
	"github.com/thinkthread/thinkthread/pkg/feedback"
)

type stubFeedbackUC struct {
	stored feedback.Feedback
	items  []feedback.Feedback
	err    error

	rateInput feedback.RateInput
}

func (s *stubFeedbackUC) Rate(_ context.Context, _, _, _ uuid.UUID, in feedback.RateInput) (feedback.Feedback, error) {
	s.rateInput = in
	return s.stored, s.err
}

func (s *stubFeedbackUC) List(context.Context, uuid.UUID, uuid.UUID, int, int) ([]feedback.Feedback, error) {
	return s.items, s.err
}

func newFeedbackApp(uc feedback.UseCase) *fiber.App {
	app := fiber.New()
	h := NewFeedbackHandler(uc)
	g := app.Group("/conversations", asUser(uuid.New(), false))
	g.Post("/:id/messages/:messageId/feedback", h.Rate)
	g.Get("/:id/feedback", h.List)
	return app
}

func feedbackPath(conv, msg uuid.UUID) string {
	return "/conversations/" + conv.String() + "/messages/" + msg.String() + "/feedback"
}

// ---------------------------------------------------------------------------
// Rate
// ---------------------------------------------------------------------------

func TestRateMessage(t *testing.T) {
	uc := &stubFeedbackUC{stored: feedback.Feedback{ID: uuid.New(), Rating: feedback.RatingUp, Comment: "helpful"}}
	app := newFeedbackApp(uc)

	resp := doTest(t, app, jsonRequest(http.MethodPost, feedbackPath(uuid.New(), uuid.New()), `{"rating":1,"comment":"helpful"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 1, uc.rateInput.Rating)
	require.Equal(t, "helpful", uc.rateInput.Comment)

	stored := decodeBody[feedback.Feedback](t, resp)
	require.Equal(t, feedback.RatingUp, stored.Rating)
}

func TestRateMessage_InvalidRating(t *testing.T) {
	uc := &stubFeedbackUC{err: feedback.ErrValidation("rating must be -1, 0 or 1")}
	app := newFeedbackApp(uc)

	resp := doTest(t, app, jsonRequest(http.MethodPost, feedbackPath(uuid.New(), uuid.New()), `{"rating":7}`))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Contains(t, errorMessage(t, resp), "rating must be")
}

func TestRateMessage_UnknownMessage(t *testing.T) {
	uc := &stubFeedbackUC{err: feedback.ErrNotFound}
	app := newFeedbackApp(uc)

	resp := doTest(t, app, jsonRequest(http.MethodPost, feedbackPath(uuid.New(), uuid.New()), `{"rating":1}`))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Contains(t, errorMessage(t, resp), "message not found")
}

func TestRateMessage_ForeignConversation(t *testing.T) {
	uc := &stubFeedbackUC{err: chat.ErrNotFound}
	app := newFeedbackApp(uc)

	resp := doTest(t, app, jsonRequest(http.MethodPost, feedbackPath(uuid.New(), uuid.New()), `{"rating":1}`))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRateMessage_BadMessageID(t *testing.T) {
	app := newFeedbackApp(&stubFeedbackUC{})

	resp := doTest(t, app, jsonRequest(http.MethodPost, "/conversations/"+uuid.NewString()+"/messages/oops/feedback", `{"rating":1}`))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestListFeedback(t *testing.T) {
	uc := &stubFeedbackUC{items: []feedback.Feedback{{ID: uuid.New()}}}
	app := newFeedbackApp(uc)

	resp := doTest(t, app, jsonRequest(http.MethodGet, "/conversations/"+uuid.NewString()+"/feedback", ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decodeBody[[]feedback.Feedback](t, resp), 1)
}

func TestListFeedback_ForeignConversation(t *testing.T) {
	uc := &stubFeedbackUC{err: chat.ErrNotFound}
	app := newFeedbackApp(uc)

	resp := doTest(t, app, jsonRequest(http.MethodGet, "/conversations/"+uuid.NewString()+"/feedback", ""))
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
