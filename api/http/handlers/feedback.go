package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/thinkthread/thinkthread/api/http/presenter"
	"github.com/thinkthread/thinkthread/pkg/chat"
	"github.com/thinkthread/thinkthread/pkg/feedback"
)

type FeedbackHandler struct {
	uc feedback.UseCase
}

func NewFeedbackHandler(uc feedback.UseCase) *FeedbackHandler {
	return &FeedbackHandler{uc: uc}
}

type rateRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// @Summary Rate an assistant message
// @Description Stores a thumbs up (1), thumbs down (-1) or clears a rating (0). Rating the same message again overwrites the previous rating.
// @Tags    feedback
// @Accept  json
// @Produce json
// @Param   id        path string      true "conversation id (UUID)"
// @Param   messageId path string      true "message id (UUID)"
// @Param   input     body rateRequest true "rating payload"
// @Security BearerAuth
// @Success 200 {object} feedback.Feedback
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /conversations/{id}/messages/{messageId}/feedback [post]
func (h *FeedbackHandler) Rate(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "could not identify user")
	}
	conversationID, err := parseIDParam(c, "id")
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid conversation id")
	}
	messageID, err := parseIDParam(c, "messageId")
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid message id")
	}
	var req rateRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}

	stored, err := h.uc.Rate(c.Context(), userID, conversationID, messageID, feedback.RateInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		var verr feedback.ErrValidation
		switch {
		case errors.As(err, &verr):
			return presenter.Error(c, http.StatusBadRequest, verr.Error())
		case errors.Is(err, chat.ErrNotFound), errors.Is(err, feedback.ErrNotFound):
			return presenter.Error(c, http.StatusNotFound, "message not found")
		default:
			return presenter.Error(c, http.StatusInternalServerError, "failed to store feedback")
		}
	}
	return presenter.JSON(c, http.StatusOK, stored)
}

// @Summary List conversation feedback
// @Tags    feedback
// @Produce json
// @Param   id     path  string true  "conversation id (UUID)"
// @Param   limit  query int    false "page size (max 200)"
// @Param   offset query int    false "page offset"
// @Security BearerAuth
// @Success 200 {array} feedback.Feedback
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /conversations/{id}/feedback [get]
func (h *FeedbackHandler) List(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "could not identify user")
	}
	conversationID, err := parseIDParam(c, "id")
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid conversation id")
	}
	limit, offset := parseLimitOffset(c, 50)
	items, err := h.uc.List(c.Context(), userID, conversationID, limit, offset)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return presenter.Error(c, http.StatusNotFound, "conversation not found")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to list feedback")
	}
	return presenter.JSON(c, http.StatusOK, items)
}
