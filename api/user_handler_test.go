package api

import (
	"net/http"
	"testing"
)

func TestProfile(t *testing.T) {
	a := setupTestAPI(t)
	token := a.register("Ada", "ada@example.com", "pw").Token

	var user UserResponse
	if status := a.doJSON(http.MethodGet, "/api/users/profile", token, nil, &user); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if user.Email != "ada@example.com" {
		t.Errorf("email = %q", user.Email)
	}

	if status := a.doJSON(http.MethodPut, "/api/users/profile", token, map[string]string{"name": " Ada L. "}, &user); status != http.StatusOK {
		t.Fatalf("update status = %d", status)
	}
	if user.Name != "Ada L." {
		t.Errorf("name = %q, want trimmed", user.Name)
	}

	if status, _ := a.do(http.MethodPut, "/api/users/profile", token, map[string]string{"name": ""}); status != http.StatusBadRequest {
		t.Errorf("blank name: status = %d, want 400", status)
	}
}

func TestChangePassword(t *testing.T) {
	a := setupTestAPI(t)
	token := a.register("Ada", "ada@example.com", "old").Token

	tests := []struct {
		name   string
		body   map[string]string
		status int
		field  string
	}{
		{"missing current", map[string]string{"newPassword": "new"}, http.StatusBadRequest, "currentPassword"},
		{"missing new", map[string]string{"currentPassword": "old"}, http.StatusBadRequest, "newPassword"},
		{"wrong current", map[string]string{"currentPassword": "nope", "newPassword": "new"}, http.StatusBadRequest, "currentPassword"},
		{"ok", map[string]string{"currentPassword": "old", "newPassword": "new"}, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, raw := a.do(http.MethodPut, "/api/users/change-password", token, tt.body)
			if status != tt.status {
				t.Fatalf("status = %d, want %d (%s)", status, tt.status, raw)
			}
			if tt.field != "" {
				if got := decodeError(t, raw).Field; got != tt.field {
					t.Errorf("field = %q, want %q", got, tt.field)
				}
			}
		})
	}

	login := func(password string) int {
		status, _ := a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": password})
		return status
	}
	if got := login("old"); got != http.StatusUnauthorized {
		t.Errorf("login with old password: %d, want 401", got)
	}
	if got := login("new"); got != http.StatusOK {
		t.Errorf("login with new password: %d, want 200", got)
	}
}

func TestDeleteAccount(t *testing.T) {
	a := setupTestAPI(t)
	token := a.register("Ada", "ada@example.com", "pw").Token
	post := a.createPost(token, BlogPostRequest{Title: "T"})

	if status, _ := a.do(http.MethodDelete, "/api/users", token, nil); status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}

	// the token is still well formed but owns nothing now
	if status, _ := a.do(http.MethodGet, "/api/blogs/"+post.ID.String(), token, nil); status != http.StatusNotFound {
		t.Errorf("post after delete: status = %d, want 404", status)
	}
	if status, _ := a.do(http.MethodGet, "/api/auth/verify", token, nil); status != http.StatusUnauthorized {
		t.Errorf("verify after delete: status = %d, want 401", status)
	}

	// the e-mail is free again
	a.register("Ada", "ada@example.com", "pw")
}
