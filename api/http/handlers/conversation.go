package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/thinkthread/thinkthread/api/http/presenter"
	"github.com/thinkthread/thinkthread/pkg/chat"
)

type ConversationHandler struct {
	uc chat.UseCase
}

func NewConversationHandler(uc chat.UseCase) *ConversationHandler {
	return &ConversationHandler{uc: uc}
}

type createConversationRequest struct {
	Title        string `json:"title"`
	Provider     string `json:"provider"`
	Model        string `json:"model"`
	Channel      string `json:"channel"`
	Locale       string `json:"locale"`
	SystemPrompt string `json:"systemPrompt"`
}

// @Summary Start a conversation
// @Description Creates a conversation and returns it together with the opening greeting, if one is configured.
// @Tags    conversations
// @Accept  json
// @Produce json
// @Param   input body createConversationRequest false "conversation overrides"
// @Security BearerAuth
// @Success 201 {object} map[string]any
// @Failure 400 {object} presenter.ErrorResponse
// @Router  /conversations [post]
func (h *ConversationHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "could not identify user")
	}
	var req createConversationRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
		}
	}

	conversation, opening, err := h.uc.Start(c.Context(), userID, chat.StartInput{
		Title:        req.Title,
		Provider:     req.Provider,
		Model:        req.Model,
		Channel:      req.Channel,
		Locale:       req.Locale,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		var verr chat.ErrValidation
		if errors.As(err, &verr) {
			return presenter.Error(c, http.StatusBadRequest, verr.Error())
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to start conversation")
	}

	return presenter.JSON(c, http.StatusCreated, fiber.Map{
		"conversation": conversation,
		"messages":     opening,
	})
}

// @Summary List own conversations
// @Tags    conversations
// @Produce json
// @Param   limit  query int false "page size (max 200)"
// @Param   offset query int false "page offset"
// @Security BearerAuth
// @Success 200 {array} chat.Conversation
// @Router  /conversations [get]
func (h *ConversationHandler) List(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "could not identify user")
	}
	limit, offset := parseLimitOffset(c, 50)
	conversations, err := h.uc.List(c.Context(), userID, limit, offset)
	if err != nil {
		return presenter.Error(c, http.StatusInternalServerError, "failed to list conversations")
	}
	return presenter.JSON(c, http.StatusOK, conversations)
}

// @Summary Get a conversation
// @Tags    conversations
// @Produce json
// @Param   id path string true "conversation id (UUID)"
// @Security BearerAuth
// @Success 200 {object} chat.Conversation
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /conversations/{id} [get]
func (h *ConversationHandler) Get(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "could not identify user")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid conversation id")
	}
	conversation, err := h.uc.Get(c.Context(), userID, id)
	if err != nil {
		return presenter.Error(c, http.StatusNotFound, "conversation not found")
	}
	return presenter.JSON(c, http.StatusOK, conversation)
}

type updateConversationRequest struct {
	Title        *string `json:"title"`
	Provider     *string `json:"provider"`
	Model        *string `json:"model"`
	SystemPrompt *string `json:"systemPrompt"`
}

// @Summary Rename or repoint a conversation
// @Description Updates title, pinned provider/model or the system prompt. Omitted fields stay unchanged.
// @Tags    conversations
// @Accept  json
// @Produce json
// @Param   id    path string                    true "conversation id (UUID)"
// @Param   input body updateConversationRequest true "fields to change"
// @Security BearerAuth
// @Success 200 {object} chat.Conversation
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /conversations/{id} [patch]
func (h *ConversationHandler) Update(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "could not identify user")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid conversation id")
	}
	var req updateConversationRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}

	conversation, err := h.uc.Update(c.Context(), userID, id, chat.UpdateInput{
		Title:        req.Title,
		Provider:     req.Provider,
		Model:        req.Model,
		SystemPrompt: req.SystemPrompt,
	})
	if err != nil {
		var verr chat.ErrValidation
		switch {
		case errors.As(err, &verr):
			return presenter.Error(c, http.StatusBadRequest, verr.Error())
		case errors.Is(err, chat.ErrNotFound):
			return presenter.Error(c, http.StatusNotFound, "conversation not found")
		default:
			return presenter.Error(c, http.StatusInternalServerError, "failed to update conversation")
		}
	}
	return presenter.JSON(c, http.StatusOK, conversation)
}

// @Summary Archive a conversation
// @Description Ends the conversation; archived conversations reject new messages. Archiving twice is a no-op.
// @Tags    conversations
// @Produce json
// @Param   id path string true "conversation id (UUID)"
// @Security BearerAuth
// @Success 200 {object} chat.Conversation
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /conversations/{id}/archive [post]
func (h *ConversationHandler) Archive(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "could not identify user")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid conversation id")
	}
	conversation, err := h.uc.Archive(c.Context(), userID, id)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return presenter.Error(c, http.StatusNotFound, "conversation not found")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to archive conversation")
	}
	return presenter.JSON(c, http.StatusOK, conversation)
}

// @Summary Delete a conversation
// @Description Removes the conversation with its messages and feedback. Admins may delete any conversation.
// @Tags    conversations
// @Produce json
// @Param   id path string true "conversation id (UUID)"
// @Security BearerAuth
// @Success 204 {object} nil
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /conversations/{id} [delete]
func (h *ConversationHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "could not identify user")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid conversation id")
	}
	if err := h.uc.Delete(c.Context(), userID, id, isAdmin(c)); err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return presenter.Error(c, http.StatusNotFound, "conversation not found")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to delete conversation")
	}
	return c.SendStatus(http.StatusNoContent)
}

// @Summary List conversation messages
// @Tags    conversations
// @Produce json
// @Param   id     path  string true  "conversation id (UUID)"
// @Param   limit  query int    false "page size (max 200)"
// @Param   offset query int    false "page offset"
// @Security BearerAuth
// @Success 200 {array} chat.Message
// @Failure 404 {object} presenter.ErrorResponse
// @Router  /conversations/{id}/messages [get]
func (h *ConversationHandler) Messages(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "could not identify user")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid conversation id")
	}
	limit, offset := parseLimitOffset(c, 50)
	messages, err := h.uc.Messages(c.Context(), userID, id, limit, offset)
	if err != nil {
		if errors.Is(err, chat.ErrNotFound) {
			return presenter.Error(c, http.StatusNotFound, "conversation not found")
		}
		return presenter.Error(c, http.StatusInternalServerError, "failed to list messages")
	}
	return presenter.JSON(c, http.StatusOK, messages)
}

type sendMessageRequest struct {
	Content string `json:"content"`
	Model   string `json:"model"`
}

// @Summary Send a message
// @Description Stores the user turn and answers it: with a canned intent response, a model completion, or the configured fallback text when every provider is down.
// @Tags    conversations
// @Accept  json
// @Produce json
// @Param   id    path string             true "conversation id (UUID)"
// @Param   input body sendMessageRequest true "message payload"
// @Security BearerAuth
// @Success 200 {object} map[string]any
// @Failure 400 {object} presenter.ErrorResponse
// @Failure 404 {object} presenter.ErrorResponse
// @Failure 409 {object} presenter.ErrorResponse
// @Failure 429 {object} presenter.ErrorResponse
// @Failure 502 {object} presenter.ErrorResponse
// @Router  /conversations/{id}/messages [post]
func (h *ConversationHandler) Send(c *fiber.Ctx) error {
	userID, err := currentUserID(c)
	if err != nil {
		return presenter.Error(c, http.StatusUnauthorized, "could not identify user")
	}
	id, err := parseIDParam(c, "id")
	if err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid conversation id")
	}
	var req sendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return presenter.Error(c, http.StatusBadRequest, "invalid JSON payload")
	}

	result, err := h.uc.Send(c.Context(), userID, id, chat.SendInput{
		Content: req.Content,
		Model:   req.Model,
	})
	if err != nil {
		var verr chat.ErrValidation
		switch {
		case errors.As(err, &verr):
			return presenter.Error(c, http.StatusBadRequest, verr.Error())
		case errors.Is(err, chat.ErrNotFound):
			return presenter.Error(c, http.StatusNotFound, "conversation not found")
		case errors.Is(err, chat.ErrArchived):
			return presenter.Error(c, http.StatusConflict, "conversation is archived")
		case errors.Is(err, chat.ErrRateLimited):
			return presenter.Error(c, http.StatusTooManyRequests, "model provider rate limited, retry later")
		case errors.Is(err, chat.ErrUpstream):
			return presenter.Error(c, http.StatusBadGateway, "model provider unavailable")
		default:
			return presenter.Error(c, http.StatusInternalServerError, "failed to send message")
		}
	}

	return presenter.JSON(c, http.StatusOK, fiber.Map{
		"userMessage": result.UserMessage,
		"reply":       result.Reply,
		"handoff":     result.Handoff,
	})
}
