package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/thinkthread/thinkthread/api/http/presenter"
	"github.com/thinkthread/thinkthread/pkg/audit"
	"github.com/thinkthread/thinkthread/pkg/chat"
)

// AdminHandler serves the review endpoints behind the admin guard.
type AdminHandler struct {
	audit audit.UseCase
	chats chat.UseCase
}

func NewAdminHandler(auditUC audit.UseCase, chats chat.UseCase) *AdminHandler {
	return &AdminHandler{audit: auditUC, chats: chats}
}

// @Summary Audit trail
// @Description Lists recorded sensitive actions, newest first. Admin only.
// @Tags    admin
// @Produce json
// @Param   limit  query int false "page size (max 200)"
// @Param   offset query int false "page offset"
// @Security BearerAuth
// @Success 200 {array} audit.Entry
// @Failure 403 {object} presenter.ErrorResponse
// @Router  /admin/audit [get]
func (h *AdminHandler) Audit(c *fiber.Ctx) error {
	limit, offset := parseLimitOffset(c, 50)
	entries, err := h.audit.List(c.Context(), limit, offset)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "failed to list audit entries")
	}
	return presenter.JSON(c, http.StatusOK, entries)
}

// @Summary All conversations
// @Description Lists conversations across every user, most recently active first. Admin only.
// @Tags    admin
// @Produce json
// @Param   limit  query int false "page size (max 200)"
// @Param   offset query int false "page offset"
// @Security BearerAuth
// @Success 200 {array} chat.Conversation
// @Failure 403 {object} presenter.ErrorResponse
// @Router  /admin/conversations [get]
func (h *AdminHandler) Conversations(c *fiber.Ctx) error {
	limit, offset := parseLimitOffset(c, 50)
	conversations, err := h.chats.ListAll(c.Context(), limit, offset)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "failed to list conversations")
	}
	return presenter.JSON(c, http.StatusOK, conversations)
}
