package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"townsquare/internal/config"
	"townsquare/internal/models"
	"townsquare/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testPassword = "correct-horse-battery"

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:               "test-secret-that-is-at-least-32-characters",
		Port:                    "0",
		AllowedOrigins:          "http://localhost:5173",
		FeatureFlags:            "",
		BlocklistCacheMode:      config.BlocklistCacheMemory,
		FeedDefaultLimit:        20,
		ReportAutoHideThreshold: 3,
	}
}

type testEnv struct {
	srv *Server
	app *fiber.App
}

func newTestEnv(t *testing.T, rdb *redis.Client) *testEnv {
	t.Helper()
	srv, err := NewServerWithDeps(testConfig(), testutil.NewSQLiteDB(t), rdb)
	require.NoError(t, err)
	return &testEnv{srv: srv, app: srv.NewApp()}
}

// user inserts an account with the given role and returns it with a token.
func (e *testEnv) user(t *testing.T, username, role string) (*models.User, string) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	u := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: string(hash),
		Role:     role,
	}
	require.NoError(t, e.srv.userRepo.Create(context.Background(), u))

	token, err := e.srv.generateToken(u.ID, u.Username)
	require.NoError(t, err)
	return u, token
}

func (e *testEnv) do(t *testing.T, method, path string, body any, token string) (int, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, raw
}

func decode[T any](t *testing.T, raw []byte) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(raw, &out), string(raw))
	return out
}

func TestNewServerWithDeps_RequiresDatabase(t *testing.T) {
	_, err := NewServerWithDeps(testConfig(), nil, nil)
	assert.Error(t, err)
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t, nil)

	status, _ := env.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, http.StatusOK, status)

	status, raw := env.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, status)

	body := decode[struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}](t, raw)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"])
	assert.Equal(t, "unavailable", body.Checks["redis"])
}

func TestReadinessRequiresRedisForRedisBlocklist(t *testing.T) {
	cfg := testConfig()
	cfg.BlocklistCacheMode = config.BlocklistCacheRedis
	srv, err := NewServerWithDeps(cfg, testutil.NewSQLiteDB(t), nil)
	require.NoError(t, err)
	env := &testEnv{srv: srv, app: srv.NewApp()}

	status, _ := env.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp, err := env.app.Test(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.NotEmpty(t, resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestUnknownRouteReturnsJSONError(t *testing.T) {
	env := newTestEnv(t, nil)

	status, raw := env.do(t, http.MethodGet, "/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, models.CodeNotFound, decode[models.ErrorResponse](t, raw).Code)
}

func TestRoleGuards(t *testing.T) {
	env := newTestEnv(t, nil)
	_, member := env.user(t, "member", models.RoleMember)
	_, staff := env.user(t, "staff", models.RoleStaff)
	_, admin := env.user(t, "admin", models.RoleAdmin)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"member cannot list blocked words", http.MethodGet, "/api/admin/blocked-words", member, http.StatusForbidden},
		{"staff cannot list blocked words", http.MethodGet, "/api/admin/blocked-words", staff, http.StatusForbidden},
		{"admin lists blocked words", http.MethodGet, "/api/admin/blocked-words", admin, http.StatusOK},
		{"member cannot list reports", http.MethodGet, "/api/reports", member, http.StatusForbidden},
		{"staff lists reports", http.MethodGet, "/api/reports", staff, http.StatusOK},
		{"staff cannot dismiss", http.MethodPatch, "/api/reports/1/dismiss", staff, http.StatusForbidden},
		{"member cannot hide posts", http.MethodPatch, "/api/posts/1/hide", member, http.StatusForbidden},
		{"anonymous cannot post", http.MethodPost, "/api/posts", "", http.StatusUnauthorized},
		{"admin reads analytics", http.MethodGet, "/api/admin/analytics/safety", admin, http.StatusOK},
		{"admin reads feature flags", http.MethodGet, "/api/admin/feature-flags", admin, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := env.do(t, tt.method, tt.path, nil, tt.token)
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestFeatureFlagsEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	_, admin := env.user(t, "admin", models.RoleAdmin)

	status, raw := env.do(t, http.MethodGet, "/api/admin/feature-flags", nil, admin)
	require.Equal(t, http.StatusOK, status)

	body := decode[struct {
		Raw       map[string]string `json:"raw"`
		Evaluated map[string]bool   `json:"evaluated"`
	}](t, raw)
	assert.True(t, body.Evaluated["report_auto_hide"])
	assert.Equal(t, "on", body.Raw["feed_offset_pages"])
}
