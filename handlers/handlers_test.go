package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"nolife/config"
	"nolife/handlers"
	"nolife/quotes"
	"nolife/routes"
)

// testRouter wires the handler package with no media or newsletter
// collaborators, which is enough to exercise the validation and auth paths
// that never reach MongoDB or Cloudinary.
func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.DefaultCost)
	require.NoError(t, err)

	cfg := &config.Config{
		JWTSecret:     "test-secret",
		AdminUser:     "admin",
		AdminPassHash: string(hash),
	}

	quoteSvc := quotes.NewServiceWithFetcher(
		filepath.Join(t.TempDir(), "quote.json"),
		func(context.Context) (quotes.Quote, error) {
			return quotes.Quote{Content: "test quote"}, nil
		})

	handlers.Init(cfg, nil, nil, quoteSvc)
	return routes.SetupRouter(cfg.JWTSecret)
}

func postJSON(r *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	data, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAdminLogin(t *testing.T) {
	r := testRouter(t)

	w := postJSON(r, "/api/admin/login", gin.H{"username": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = postJSON(r, "/api/admin/login", gin.H{"username": "admin", "password": "correct horse"})
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])
}

func TestMutatingRoutesRequireAuth(t *testing.T) {
	r := testRouter(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/posts"},
		{http.MethodPatch, "/posts/652f1a2b3c4d5e6f7a8b9c0d"},
		{http.MethodDelete, "/posts/652f1a2b3c4d5e6f7a8b9c0d"},
		{http.MethodPost, "/quotes/refresh"},
		{http.MethodPost, "/api/newsletter/campaign"},
	} {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestSubscribeValidation(t *testing.T) {
	r := testRouter(t)

	w := postJSON(r, "/api/newsletter/subscribe", gin.H{"name": "", "email": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/api/newsletter/subscribe", gin.H{"name": "Fan", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = postJSON(r, "/api/newsletter/subscribe", gin.H{"name": "F", "email": "fan@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Valid input reaches the mailer, which is not configured in tests.
	w = postJSON(r, "/api/newsletter/subscribe", gin.H{"name": "Fan", "email": "fan@example.com"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCampaignValidation(t *testing.T) {
	r := testRouter(t)

	token := loginToken(t, r)

	data, _ := json.Marshal(gin.H{"title": "", "slug": ""})
	req := httptest.NewRequest(http.MethodPost, "/api/newsletter/campaign", bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDailyQuote(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/quotes/daily", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "test quote")

	req = httptest.NewRequest(http.MethodGet, "/quotes/status", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"needsUpdate":false`)
}

func TestVapidKeyUnconfigured(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/vapid-public-key", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUnknownAPIRouteReturnsJSON404(t *testing.T) {
	r := testRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/posts/nope/nope/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func loginToken(t *testing.T, r *gin.Engine) string {
	t.Helper()
	w := postJSON(r, "/api/admin/login", gin.H{"username": "admin", "password": "correct horse"})
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["token"]
}
