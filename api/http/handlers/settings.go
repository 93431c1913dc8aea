package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/thinkthread/thinkthread/api/http/presenter"
	"github.com/thinkthread/thinkthread/pkg/settings"
)

type SettingsHandler struct {
	uc settings.UseCase
}

func NewSettingsHandler(uc settings.UseCase) *SettingsHandler {
	return &SettingsHandler{uc: uc}
}

// @Summary Get bot settings
// @Description Returns the effective settings; deployment defaults apply until an admin saves the first version.
// @Tags    settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} settings.Settings
// @Router  /settings [get]
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	cfg, err := h.uc.Get(c.Context())
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "failed to load settings")
	}
	return presenter.JSON(c, http.StatusOK, cfg)
}

type updateSettingsRequest struct {
	Greeting         string   `json:"greeting"`
	FallbackMessage  string   `json:"fallbackMessage"`
	HandoffThreshold int      `json:"handoffThreshold"`
	SystemPrompt     string   `json:"systemPrompt"`
	DefaultProvider  string   `json:"defaultProvider"`
	DefaultModel     string   `json:"defaultModel"`
	AllowedLocales   []string `json:"allowedLocales"`
	MaxContext       int      `json:"maxContext"`
}

// @Summary Update bot settings
// @Description Replaces the deployment-wide bot settings. Admin only.
// @Tags    settings
// @Accept  json
// @Produce json
// @Param   input body updateSettingsRequest true "settings document"
// @Security BearerAuth
// @Success 200 {object} settings.Settings
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 403 {object} presenter.ErrorResponse
// @Router  /settings [put]
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "could not identify user")
	}
	var req updateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}

	updated, err := h.uc.Update(c.Context(), userID, settings.Settings{
		Greeting:         req.Greeting,
		FallbackMessage:  req.FallbackMessage,
		HandoffThreshold: req.HandoffThreshold,
		SystemPrompt:     req.SystemPrompt,
		DefaultProvider:  req.DefaultProvider,
		DefaultModel:     req.DefaultModel,
		AllowedLocales:   req.AllowedLocales,
		MaxContext:       req.MaxContext,
	})
	if err != nil {
		var verr settings.ErrValidation
		if errors.As(err, &verr) {
			return presenter.Error(c, http.StatusBadRequest, verr.Error())
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to update settings")
	}
	return presenter.JSON(c, http.StatusOK, updated)
}
