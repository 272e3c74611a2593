package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rpupo63/verbavista-backend/errs"
)

type fakeVerifier struct {
	userID uuid.UUID
	err    error
	calls  int
}

func (f *fakeVerifier) Verify(string) (uuid.UUID, error) {
	f.calls++
	return f.userID, f.err
}

func TestAuthenticate(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name      string
		header    string
		verifyErr error
		status    int
		verified  bool
	}{
		{"missing header", "", nil, http.StatusUnauthorized, false},
		{"wrong scheme", "Basic abc", nil, http.StatusUnauthorized, false},
		{"empty bearer", "Bearer   ", nil, http.StatusUnauthorized, false},
		{"expired", "Bearer tok", errs.NewExpiredTokenError(), http.StatusUnauthorized, true},
		{"ok", "Bearer tok", nil, http.StatusNoContent, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := &fakeVerifier{userID: userID, err: tt.verifyErr}
			var seen uuid.UUID
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = ctxGetUserID(r.Context())
				w.WriteHeader(http.StatusNoContent)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			newAuthMiddleware(verifier).authenticate(next).ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if (verifier.calls > 0) != tt.verified {
				t.Errorf("verifier called %d times", verifier.calls)
			}
			if tt.status == http.StatusNoContent && seen != userID {
				t.Errorf("user id in context = %s, want %s", seen, userID)
			}
		})
	}
}

func TestIPRateLimiter(t *testing.T) {
	limiter := newIPRateLimiter(1, 2)
	handler := limiter.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	hit := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		if rec := hit("10.0.0.1:1234"); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	rec := hit("10.0.0.1:5678")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}

	if rec := hit("10.0.0.2:1234"); rec.Code != http.StatusOK {
		t.Errorf("other client: status = %d, want 200", rec.Code)
	}
}

func TestLogInternalServerErrorsRecoversPanics(t *testing.T) {
	handler := LogInternalServerErrors(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "error" || !strings.Contains(body.Error, "internal server error") {
		t.Errorf("body = %+v", body)
	}
}

func TestCORS(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	t.Run("listed origin", func(t *testing.T) {
		handler := corsMiddleware([]string{"https://blog.example"})(ok)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://blog.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://blog.example" {
			t.Errorf("allow origin = %q", got)
		}
	})

	t.Run("unlisted origin", func(t *testing.T) {
		handler := corsMiddleware([]string{"https://blog.example"})(ok)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
			t.Errorf("allow origin = %q, want none", got)
		}
	})

	t.Run("no list allows any", func(t *testing.T) {
		handler := corsMiddleware(nil)(ok)
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://anything.example")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
			t.Errorf("allow origin = %q, want *", got)
		}
	})
}
