package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/thinkthread/thinkthread/pkg/audit"
	"github.com/thinkthread/thinkthread/pkg/chat"
)

type stubAuditUC struct {
	entries []audit.Entry
	err     error
}

func (s *stubAuditUC) Record(context.Context, uuid.UUID, string, map[string]string) error {
	return nil
}

func (s *stubAuditUC) List(context.Context, int, int) ([]audit.Entry, error) {
	return s.entries, s.err
}

func newAdminApp(auditUC audit.UseCase, chats chat.UseCase) *fiber.App {
	app := fiber.New()
	h := NewAdminHandler(auditUC, chats)
	g := app.Group("/admin", asUser(uuid.New(), true))
	g.Get("/audit", h.Audit)
	g.Get("/conversations", h.Conversations)
	return app
}

func TestAdminAudit(t *testing.T) {
	uc := &stubAuditUC{entries: []audit.Entry{
		{ID: uuid.New(), Action: "conversation.delete"},
		{ID: uuid.New(), Action: "settings.update"},
	}}
	app := newAdminApp(uc, &stubChatUC{})

	resp := doTest(t, app, jsonRequest(http.MethodGet, "/admin/audit", ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	entries := decodeBody[[]audit.Entry](t, resp)
	require.Len(t, entries, 2)
	require.Equal(t, "conversation.delete", entries[0].Action)
}

func TestAdminConversations(t *testing.T) {
	chats := &stubChatUC{conversations: []chat.Conversation{
		{ID: uuid.New(), OwnerID: uuid.New()},
		{ID: uuid.New(), OwnerID: uuid.New()},
	}}
	app := newAdminApp(&stubAuditUC{}, chats)

	resp := doTest(t, app, jsonRequest(http.MethodGet, "/admin/conversations?limit=100", ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, decodeBody[[]chat.Conversation](t, resp), 2)
}
