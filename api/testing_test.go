package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rpupo63/verbavista-backend/auth"
	"github.com/rpupo63/verbavista-backend/database"
	"github.com/rpupo63/verbavista-backend/services"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testAPI struct {
	t         *testing.T
	server    *httptest.Server
	tokens    *auth.TokenManager
	uploadDir string
}

// setupTestDatabase opens a migrated in-memory SQLite database.
func setupTestDatabase(t *testing.T) database.Database {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	store := database.New(db)
	if err := store.Migrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return store
}

// setupTestAPI serves the full router over an in-memory SQLite database and
// a local image store in a temp dir.
func setupTestAPI(t *testing.T) *testAPI {
	t.Helper()

	store := setupTestDatabase(t)

	tokens, err := auth.NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to create token manager: %v", err)
	}

	uploadDir := t.TempDir()
	images, err := services.NewLocalImageStore(uploadDir, "")
	if err != nil {
		t.Fatalf("failed to create image store: %v", err)
	}

	c := map[string]string{
		"AUTH_RATE_PER_MINUTE": "6000",
		"AUTH_RATE_BURST":      "100",
	}
	server := httptest.NewServer(newRouter(store, tokens, images, withConfig(c)))
	t.Cleanup(server.Close)

	return &testAPI{t: t, server: server, tokens: tokens, uploadDir: uploadDir}
}

// do sends body as JSON (when non-nil) and returns the status and raw body.
func (a *testAPI) do(method, path, token string, body any) (int, []byte) {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, a.server.URL+path, reader)
	if err != nil {
		a.t.Fatalf("build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return a.send(req)
}

func (a *testAPI) send(req *http.Request) (int, []byte) {
	a.t.Helper()

	resp, err := a.server.Client().Do(req)
	if err != nil {
		a.t.Fatalf("%s %s: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		a.t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, raw
}

// doJSON is do plus decoding of a 2xx body into out.
func (a *testAPI) doJSON(method, path, token string, body, out any) int {
	a.t.Helper()

	status, raw := a.do(method, path, token, body)
	if out != nil && status < 300 {
		if err := json.Unmarshal(raw, out); err != nil {
			a.t.Fatalf("decode %s %s: %v (%s)", method, path, err, raw)
		}
	}
	return status
}

// register creates an account and returns its token.
func (a *testAPI) register(name, email, password string) AuthResponse {
	a.t.Helper()

	var resp AuthResponse
	status := a.doJSON(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": password,
	}, &resp)
	if status != http.StatusCreated {
		a.t.Fatalf("register %s: status %d", email, status)
	}
	return resp
}

func (a *testAPI) createPost(token string, req BlogPostRequest) BlogPostResponse {
	a.t.Helper()

	var post BlogPostResponse
	if status := a.doJSON(http.MethodPost, "/api/blogs", token, req, &post); status != http.StatusCreated {
		a.t.Fatalf("create post: status %d", status)
	}
	return post
}

func decodeError(t *testing.T, raw []byte) ErrorResponse {
	t.Helper()

	var resp ErrorResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, raw)
	}
	return resp
}
