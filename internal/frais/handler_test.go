package frais

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"pense-backend/internal/audit"
	"pense-backend/internal/auth"
	"pense-backend/internal/store/local"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	st, err := local.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	require.NoError(t, err)
	rec := audit.NewGormRecorder(st.DB())

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{"error": e.Message})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		},
	})
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(auth.CtxUsernameKey, "admin")
		return c.Next()
	})

	app.Get("/api/frais", ListFraisHandler(st))
	app.Post("/api/frais", CreateFraisHandler(st, rec))
	app.Put("/api/frais/:id", UpdateFraisHandler(st, rec))
	app.Delete("/api/frais/:id", DeleteFraisHandler(st, rec))

	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path string, payload any) *http.Response {
	t.Helper()
	var raw []byte
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp
}

func TestCreateAndListFrais(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/frais", FraisRequest{
		Date:        "2026-03-15",
		Description: "Transport",
		Prix:        250,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created FraisResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Transport", created.Description)
	assert.Equal(t, 250.0, created.Prix)
	assert.Contains(t, created.Date, "2026-03-15")

	resp = doJSON(t, app, http.MethodGet, "/api/frais", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []FraisResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	require.Len(t, all, 1)
	assert.Equal(t, created.ID, all[0].ID)
}

func TestCreateFraisRejectsBadInput(t *testing.T) {
	app := newTestApp(t)

	cases := []struct {
		name    string
		payload FraisRequest
		wantMsg string
	}{
		{"empty description", FraisRequest{Description: "  ", Prix: 10}, "Description is required"},
		{"zero prix", FraisRequest{Description: "Loyer", Prix: 0}, "Prix must be greater than 0"},
		{"negative prix", FraisRequest{Description: "Loyer", Prix: -5}, "Prix must be greater than 0"},
		{"bad date", FraisRequest{Description: "Loyer", Prix: 10, Date: "15/03/2026"}, "Date must be 'YYYY-MM-DD'"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON(t, app, http.MethodPost, "/api/frais", tc.payload)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var body map[string]string
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tc.wantMsg, body["error"])
		})
	}
}

func TestUpdateFrais(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/frais", FraisRequest{
		Description: "Essence", Prix: 100,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created FraisResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	resp = doJSON(t, app, http.MethodPut, "/api/frais/"+created.ID, FraisRequest{
		Description: "Essence et peage", Prix: 140,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated FraisResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Essence et peage", updated.Description)
	assert.Equal(t, 140.0, updated.Prix)
}

func TestUpdateAndDeleteFraisNotFound(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodPut, "/api/frais/missing", FraisRequest{
		Description: "Loyer", Prix: 10,
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, app, http.MethodDelete, "/api/frais/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteFrais(t *testing.T) {
	app := newTestApp(t)

	resp := doJSON(t, app, http.MethodPost, "/api/frais", FraisRequest{
		Description: "Sacs", Prix: 60,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created FraisResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	resp = doJSON(t, app, http.MethodDelete, "/api/frais/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/api/frais", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []FraisResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&all))
	assert.Empty(t, all)
}
