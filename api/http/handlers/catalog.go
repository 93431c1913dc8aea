package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/thinkthread/thinkthread/api/http/presenter"
	"github.com/thinkthread/thinkthread/pkg/catalog"
)

type CatalogHandler struct {
	uc catalog.UseCase
}

func NewCatalogHandler(uc catalog.UseCase) *CatalogHandler {
	return &CatalogHandler{uc: uc}
}

// @Summary List available models
// @Description Returns the merged model catalog of every configured provider. The list is cached briefly, so a model pulled into the local runtime may take a moment to appear.
// @Tags    catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {array} llm.ModelInfo
// @Failure 502 {object} presenter.ErrorResponse
// @Router  /models [get]
func (h *CatalogHandler) Models(c *fiber.Ctx) error {
	models, err := h.uc.Models(c.Context())
	if err != nil {
		return presenter.Error(c, http.StatusBadGateway, "no provider could list models")
	}
	return presenter.JSON(c, http.StatusOK, models)
}

// @Summary Provider health
// @Description Probes every configured provider and reports healthy, degraded or down per provider.
// @Tags    catalog
// @Produce json
// @Security BearerAuth
// @Success 200 {array} catalog.ProviderStatus
// @Router  /providers/status [get]
func (h *CatalogHandler) Status(c *fiber.Ctx) error {
	statuses, err := h.uc.Status(c.Context())
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "failed to probe providers")
	}
	return presenter.JSON(c, http.StatusOK, statuses)
}
