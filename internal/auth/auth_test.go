package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pense-backend/internal/config"
	"pense-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.MinCost)
	require.NoError(t, err)
	return &config.Config{
		JWTSecret: testSecret,
		Users: []models.User{
			{Username: "admin", PasswordHash: string(hash), Role: models.RoleFull},
			{Username: "agent", PasswordHash: string(hash), Role: models.RoleLimited},
		},
	}
}

func newTestApp() *fiber.App {
	return fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
}

func doLogin(t *testing.T, app *fiber.App, username, password string) *http.Response {
	t.Helper()
	body, err := json.Marshal(LoginRequest{Username: username, Password: password})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestLoginSuccess(t *testing.T) {
	cfg := testConfig(t)
	app := newTestApp()
	app.Post("/api/auth/login", LoginHandler(cfg))

	resp := doLogin(t, app, "admin", "1234")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
		User  struct {
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "admin", body.User.Username)
	assert.Equal(t, "full", body.User.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	cfg := testConfig(t)
	app := newTestApp()
	app.Post("/api/auth/login", LoginHandler(cfg))

	resp := doLogin(t, app, "admin", "wrong")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Invalid username or password", body["error"])
}

func TestLoginUnknownUserSameMessage(t *testing.T) {
	cfg := testConfig(t)
	app := newTestApp()
	app.Post("/api/auth/login", LoginHandler(cfg))

	resp := doLogin(t, app, "nobody", "1234")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Invalid username or password", body["error"])
}

func TestJWTMiddlewareAndMe(t *testing.T) {
	cfg := testConfig(t)
	app := newTestApp()
	app.Post("/api/auth/login", LoginHandler(cfg))
	app.Use(JWTMiddleware(cfg.JWTSecret))
	app.Get("/api/auth/me", MeHandler())

	resp := doLogin(t, app, "agent", "1234")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+login.Token)
	meResp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, meResp.StatusCode)

	var me map[string]string
	require.NoError(t, json.NewDecoder(meResp.Body).Decode(&me))
	assert.Equal(t, "agent", me["username"])
	assert.Equal(t, "limited", me["role"])
}

func TestJWTMiddlewareRejectsMissingAndBadTokens(t *testing.T) {
	app := newTestApp()
	app.Use(JWTMiddleware(testSecret))
	app.Get("/api/auth/me", MeHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// token signed with a different secret
	otherToken, err := GenerateToken("another-secret-another-secret-xx", models.User{Username: "admin", Role: models.RoleFull})
	require.NoError(t, err)
	req = httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+otherToken)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireRoleGatesLimitedUser(t *testing.T) {
	cfg := testConfig(t)
	app := newTestApp()
	app.Post("/api/auth/login", LoginHandler(cfg))
	app.Use(JWTMiddleware(cfg.JWTSecret))
	app.Get("/api/dashboard", RequireRole(models.RoleFull), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	token := func(username string) string {
		resp := doLogin(t, app, username, "1234")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var login struct {
			Token string `json:"token"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&login))
		return login.Token
	}

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token("agent"))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard", nil)
	req.Header.Set("Authorization", "Bearer "+token("admin"))
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
