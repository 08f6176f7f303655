package http_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/ticketd/ticketd/internal/api/http"
	"github.com/ticketd/ticketd/internal/auth"
	"github.com/ticketd/ticketd/internal/domain"
	"github.com/ticketd/ticketd/internal/observability"
)

// stubUsers serves a fixed set of accounts to the auth middleware.
type stubUsers struct {
	users map[string]*domain.User
}

func (s *stubUsers) Create(context.Context, *domain.User) error { return nil }

func (s *stubUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (s *stubUsers) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, pgx.ErrNoRows
}

func newGuardedApp(t *testing.T) (*fiber.App, *auth.TokenManager) {
	t.Helper()
	users := &stubUsers{users: map[string]*domain.User{
		"user-1":  {ID: "user-1", Name: "Plain User", Email: "plain@example.com"},
		"admin-1": {ID: "admin-1", Name: "Admin", Email: "admin@example.com", IsAdmin: true},
	}}
	tm := auth.NewTokenManager("test-secret", 60)
	mw := auth.NewAuthMiddleware(tm, users)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 0)
	app.Get("/admin/ping", mw.Handle, auth.RequireAdmin(), func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
	app.Get("/user/ping", mw.Handle, auth.RequireUser(), func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})
	return app, tm
}

func bearerRequest(t *testing.T, tm *auth.TokenManager, path, userID string, admin bool) *http.Request {
	t.Helper()
	token, _, err := tm.GenerateToken(userID, admin)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, path, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func decodeErrorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Error.Code
}

func TestAdminGuardRejectsNonAdmin(t *testing.T) {
	app, tm := newGuardedApp(t)

	resp, err := app.Test(bearerRequest(t, tm, "/admin/ping", "user-1", false))
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", decodeErrorCode(t, resp))
}

func TestAdminGuardAllowsAdmin(t *testing.T) {
	app, tm := newGuardedApp(t)

	resp, err := app.Test(bearerRequest(t, tm, "/admin/ping", "admin-1", true))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGuardsRejectMissingToken(t *testing.T) {
	app, _ := newGuardedApp(t)

	for _, path := range []string{"/admin/ping", "/user/ping"} {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		assert.Equal(t, "UNAUTHORIZED", decodeErrorCode(t, resp))
	}
}

func TestUserGuardAllowsAuthenticated(t *testing.T) {
	app, tm := newGuardedApp(t)

	resp, err := app.Test(bearerRequest(t, tm, "/user/ping", "user-1", false))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
