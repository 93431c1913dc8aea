package jwt

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/thinkthread/thinkthread/pkg/auth"
)

const (
	testSecret = "test-secret"
	testIssuer = "thinkthread"
)

func signToken(t *testing.T, user auth.User, secret, issuer string, ttl time.Duration) string {
	t.Helper()
	token, err := NewGenerator(secret, issuer, ttl).Generate(context.Background(), user)
	require.NoError(t, err)
	return token
}

// newProtectedApp mounts the middleware in front of a probe that echoes the
// request locals.
func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Get("/protected", NewAuthMiddleware(testSecret, testIssuer), func(c *fiber.Ctx) error {
		isAdmin, _ := c.Locals("isAdmin").(bool)
		return c.JSON(fiber.Map{
			"userId":  c.Locals("userId"),
			"isAdmin": isAdmin,
		})
	})
	app.Get("/admin", NewAuthMiddleware(testSecret, testIssuer), RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, path, authHeader string) (*http.Response, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	body := map[string]any{}
	if len(raw) > 0 && resp.Header.Get("Content-Type") != "" {
		_ = json.Unmarshal(raw, &body)
	}
	return resp, body
}

// ---------------------------------------------------------------------------
// Generator
// ---------------------------------------------------------------------------

func TestGenerator_ClaimsRoundTrip(t *testing.T) {
	user := auth.User{ID: uuid.New(), IsAdmin: true}
	token := signToken(t, user, testSecret, testIssuer, time.Hour)

	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(*jwtlib.Token) (any, error) {
		return []byte(testSecret), nil
	})
	require.NoError(t, err)
	require.True(t, parsed.Valid)

	claims := parsed.Claims.(*Claims)
	require.Equal(t, user.ID.String(), claims.Subject)
	require.Equal(t, testIssuer, claims.Issuer)
	require.True(t, claims.IsAdmin)
	require.True(t, claims.ExpiresAt.After(time.Now()))
}

// ---------------------------------------------------------------------------
// Auth middleware
// ---------------------------------------------------------------------------

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	resp, body := doRequest(t, newProtectedApp(), "/protected", "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, body["message"], "missing Authorization")
}

func TestAuthMiddleware_GarbageToken(t *testing.T) {
	resp, body := doRequest(t, newProtectedApp(), "/protected", "Bearer not-a-jwt")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, body["message"], "invalid or expired")
}

func TestAuthMiddleware_ValidBearerToken(t *testing.T) {
	user := auth.User{ID: uuid.New()}
	token := signToken(t, user, testSecret, testIssuer, time.Hour)

	resp, body := doRequest(t, newProtectedApp(), "/protected", "Bearer "+token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, user.ID.String(), body["userId"])
	require.Equal(t, false, body["isAdmin"])
}

func TestAuthMiddleware_BareTokenAccepted(t *testing.T) {
	user := auth.User{ID: uuid.New()}
	token := signToken(t, user, testSecret, testIssuer, time.Hour)

	resp, body := doRequest(t, newProtectedApp(), "/protected", token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, user.ID.String(), body["userId"])
}

func TestAuthMiddleware_AdminFlag(t *testing.T) {
	user := auth.User{ID: uuid.New(), IsAdmin: true}
	token := signToken(t, user, testSecret, testIssuer, time.Hour)

	resp, body := doRequest(t, newProtectedApp(), "/protected", "Bearer "+token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, true, body["isAdmin"])
}

func TestAuthMiddleware_ExpiredToken(t *testing.T) {
	user := auth.User{ID: uuid.New()}
	token := signToken(t, user, testSecret, testIssuer, -time.Minute)

	resp, _ := doRequest(t, newProtectedApp(), "/protected", "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAuthMiddleware_WrongIssuer(t *testing.T) {
	user := auth.User{ID: uuid.New()}
	token := signToken(t, user, testSecret, "someone-else", time.Hour)

	resp, body := doRequest(t, newProtectedApp(), "/protected", "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Contains(t, body["message"], "issuer")
}

func TestAuthMiddleware_WrongSecret(t *testing.T) {
	user := auth.User{ID: uuid.New()}
	token := signToken(t, user, "other-secret", testIssuer, time.Hour)

	resp, _ := doRequest(t, newProtectedApp(), "/protected", "Bearer "+token)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

// ---------------------------------------------------------------------------
// RequireAdmin
// ---------------------------------------------------------------------------

func TestRequireAdmin_ForbiddenForRegularUser(t *testing.T) {
	user := auth.User{ID: uuid.New()}
	token := signToken(t, user, testSecret, testIssuer, time.Hour)

	resp, body := doRequest(t, newProtectedApp(), "/admin", "Bearer "+token)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	require.Contains(t, body["message"], "admin access required")
}

func TestRequireAdmin_AllowsAdmin(t *testing.T) {
	user := auth.User{ID: uuid.New(), IsAdmin: true}
	token := signToken(t, user, testSecret, testIssuer, time.Hour)

	resp, _ := doRequest(t, newProtectedApp(), "/admin", "Bearer "+token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}
