package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/thinkthread/thinkthread/api/http/presenter"
	"github.com/thinkthread/thinkthread/pkg/intent"
)

type IntentHandler struct {
	uc intent.UseCase
}

func NewIntentHandler(uc intent.UseCase) *IntentHandler {
	return &IntentHandler{uc: uc}
}

// @Summary List intents
// @Description Returns every intent, active or not. Admin only.
// @Tags    intents
// @Produce json
// @Security BearerAuth
// @Success 200 {array} intent.Intent
// @Failure 403 {object} presenter.ErrorResponse
// @Router  /admin/intents [get]
func (h *IntentHandler) List(c *fiber.Ctx) error {
	intents, err := h.uc.List(c.Context())
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "failed to list intents")
	}
	return presenter.JSON(c, http.StatusOK, intents)
}

type upsertIntentRequest struct {
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	TrainingPhrases []string `json:"trainingPhrases"`
	Responses       []string `json:"responses"`
	IsActive        bool     `json:"isActive"`
}

// @Summary Create or replace an intent
// @Description Saves the intent under the key in the path. Active intents take part in detection immediately.
// @Tags    intents
// @Accept  json
// @Produce json
// @Param   key   path string              true "intent key (slug)"
// @Param   input body upsertIntentRequest true "intent definition"
// @Security BearerAuth
// @Success 200 {object} intent.Intent
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 403 {object} presenter.ErrorResponse
// @Router  /admin/intents/{key} [put]
func (h *IntentHandler) Upsert(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "could not identify user")
	}
	var req upsertIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}

	stored, err := h.uc.Upsert(c.Context(), userID, intent.Intent{
		Key:             c.Params("key"),
		Name:            req.Name,
		Description:     req.Description,
		TrainingPhrases: req.TrainingPhrases,
		Responses:       req.Responses,
		IsActive:        req.IsActive,
	})
	if err != nil {
		var verr intent.ErrValidation
		if errors.As(err, &verr) {
			return presenter.Error(c, http.StatusBadRequest, verr.Error())
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to save intent")
	}
	return presenter.JSON(c, http.StatusOK, stored)
}

// @Summary Delete an intent
// @Tags    intents
// @Produce json
// @Param   key path string true "intent key (slug)"
// @Security BearerAuth
// @Success 204 {object} nil
// @Failure 403 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /admin/intents/{key} [delete]
func (h *IntentHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "could not identify user")
	}
	if err := h.uc.Delete(c.Context(), userID, c.Params("key")); err != nil {
		if errors.Is(err, intent.ErrNotFound) {
			return presenter.Error(c, http.StatusNotFound, "intent not found")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to delete intent")
	}
	return c.SendStatus(http.StatusNoContent)
}
