package api

import (
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rpupo63/verbavista-backend/models"
)

func TestCreateBlogPost(t *testing.T) {
	a := setupTestAPI(t)
	token := a.register("Ada", "ada@example.com", "pw").Token

	t.Run("defaults to draft and sanitizes content", func(t *testing.T) {
		post := a.createPost(token, BlogPostRequest{
			Title:   "  React basics ",
			Content: `<p>Hello</p><script>alert(1)</script>`,
			Tags:    []string{" react ", "", "frontend", "react"},
		})
		if post.Status != models.StatusDraft {
			t.Errorf("status = %q, want draft", post.Status)
		}
		if post.Title != "React basics" {
			t.Errorf("title = %q", post.Title)
		}
		if strings.Contains(post.Content, "script") || !strings.Contains(post.Content, "<p>Hello</p>") {
			t.Errorf("content = %q, want script stripped", post.Content)
		}
		if !equalStrings(post.Tags, []string{"react", "frontend", "react"}) {
			t.Errorf("tags = %v", post.Tags)
		}
	})

	t.Run("forced status routes", func(t *testing.T) {
		var post BlogPostResponse
		body := BlogPostRequest{Title: "T", Content: "C", Status: models.StatusDraft}
		if status := a.doJSON(http.MethodPost, "/api/blogs/publish", token, body, &post); status != http.StatusCreated {
			t.Fatalf("publish status = %d", status)
		}
		if post.Status != models.StatusPublished {
			t.Errorf("status = %q, want published", post.Status)
		}

		body.Status = models.StatusPublished
		if status := a.doJSON(http.MethodPost, "/api/blogs/save-draft", token, body, &post); status != http.StatusCreated {
			t.Fatalf("save-draft status = %d", status)
		}
		if post.Status != models.StatusDraft {
			t.Errorf("status = %q, want draft", post.Status)
		}
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name  string
			path  string
			body  BlogPostRequest
			field string
		}{
			{"empty draft", "/api/blogs", BlogPostRequest{Title: "  "}, "title"},
			{"publish without content", "/api/blogs/publish", BlogPostRequest{Title: "T"}, "content"},
			{"publish without title", "/api/blogs", BlogPostRequest{Content: "C", Status: models.StatusPublished}, "title"},
			{"content sanitized to nothing", "/api/blogs/publish", BlogPostRequest{Title: "T", Content: "<script>x</script>"}, "content"},
			{"unknown status", "/api/blogs", BlogPostRequest{Title: "T", Status: "archived"}, "status"},
			{"malformed category id", "/api/blogs", BlogPostRequest{Title: "T", Categories: []string{"nope"}}, "categories"},
			{"category of nobody", "/api/blogs", BlogPostRequest{Title: "T", Categories: []string{uuid.NewString()}}, "categories"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				status, raw := a.do(http.MethodPost, tt.path, token, tt.body)
				if status != http.StatusBadRequest {
					t.Fatalf("status = %d, want 400 (%s)", status, raw)
				}
				if got := decodeError(t, raw).Field; got != tt.field {
					t.Errorf("field = %q, want %q", got, tt.field)
				}
			})
		}
	})

	t.Run("requires a token", func(t *testing.T) {
		if status, _ := a.do(http.MethodPost, "/api/blogs", "", BlogPostRequest{Title: "T"}); status != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", status)
		}
	})

	t.Run("malformed JSON", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, a.server.URL+"/api/blogs", strings.NewReader("{"))
		req.Header.Set("Authorization", "Bearer "+token)
		if status, _ := a.send(req); status != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", status)
		}
	})
}

func TestUpdateBlogPost(t *testing.T) {
	a := setupTestAPI(t)
	token := a.register("Ada", "ada@example.com", "pw").Token

	var published BlogPostResponse
	if status := a.doJSON(http.MethodPost, "/api/blogs/publish", token, BlogPostRequest{Title: "T", Content: "C"}, &published); status != http.StatusCreated {
		t.Fatalf("publish status = %d", status)
	}
	path := "/api/blogs/" + published.ID.String()

	t.Run("omitted status keeps published", func(t *testing.T) {
		var post BlogPostResponse
		status := a.doJSON(http.MethodPut, path, token, BlogPostRequest{Title: "T2", Content: "C2", Tags: []string{"x"}}, &post)
		if status != http.StatusOK {
			t.Fatalf("status = %d", status)
		}
		if post.Status != models.StatusPublished || post.Title != "T2" || post.ID != published.ID {
			t.Errorf("post = %+v", post)
		}
		if !equalStrings(post.Tags, []string{"x"}) {
			t.Errorf("tags = %v", post.Tags)
		}
	})

	t.Run("published post still needs content", func(t *testing.T) {
		status, raw := a.do(http.MethodPut, path, token, BlogPostRequest{Title: "T2"})
		if status != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", status)
		}
		if got := decodeError(t, raw).Field; got != "content" {
			t.Errorf("field = %q, want content", got)
		}
	})

	t.Run("back to draft", func(t *testing.T) {
		var post BlogPostResponse
		status := a.doJSON(http.MethodPut, path, token, BlogPostRequest{Title: "T3", Status: models.StatusDraft}, &post)
		if status != http.StatusOK || post.Status != models.StatusDraft {
			t.Errorf("status = %d, post status = %q", status, post.Status)
		}
	})

	t.Run("not found", func(t *testing.T) {
		other := a.register("Bob", "bob@example.com", "pw").Token
		for _, tc := range []struct {
			name, token, path string
		}{
			{"other owner", other, path},
			{"unknown id", token, "/api/blogs/" + uuid.NewString()},
			{"malformed id", token, "/api/blogs/not-a-uuid"},
		} {
			if status, _ := a.do(http.MethodPut, tc.path, tc.token, BlogPostRequest{Title: "X"}); status != http.StatusNotFound {
				t.Errorf("%s: status = %d, want 404", tc.name, status)
			}
		}
	})
}

func TestListGetDeleteBlogPosts(t *testing.T) {
	a := setupTestAPI(t)
	token := a.register("Ada", "ada@example.com", "pw").Token
	other := a.register("Bob", "bob@example.com", "pw").Token

	first := a.createPost(token, BlogPostRequest{Title: "first"})
	second := a.createPost(token, BlogPostRequest{Title: "second"})
	a.createPost(other, BlogPostRequest{Title: "bob's"})

	var posts []BlogPostResponse
	if status := a.doJSON(http.MethodGet, "/api/blogs", token, nil, &posts); status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	if len(posts) != 2 {
		t.Fatalf("got %d posts, want 2", len(posts))
	}
	for _, p := range posts {
		if p.ID != first.ID && p.ID != second.ID {
			t.Errorf("unexpected post %q in list", p.Title)
		}
	}

	var got BlogPostResponse
	if status := a.doJSON(http.MethodGet, "/api/blogs/"+first.ID.String(), token, nil, &got); status != http.StatusOK || got.Title != "first" {
		t.Errorf("get: status = %d, title = %q", status, got.Title)
	}
	if status, _ := a.do(http.MethodGet, "/api/blogs/"+first.ID.String(), other, nil); status != http.StatusNotFound {
		t.Errorf("get by other owner: status = %d, want 404", status)
	}

	if status, _ := a.do(http.MethodDelete, "/api/blogs/"+first.ID.String(), other, nil); status != http.StatusNotFound {
		t.Errorf("delete by other owner: status = %d, want 404", status)
	}
	if status, _ := a.do(http.MethodDelete, "/api/blogs/"+first.ID.String(), token, nil); status != http.StatusOK {
		t.Errorf("delete: status = %d, want 200", status)
	}
	if status, _ := a.do(http.MethodGet, "/api/blogs/"+first.ID.String(), token, nil); status != http.StatusNotFound {
		t.Errorf("get after delete: status = %d, want 404", status)
	}
}

func TestSearchBlogPostsAndTags(t *testing.T) {
	a := setupTestAPI(t)
	token := a.register("Ada", "ada@example.com", "pw").Token
	other := a.register("Bob", "bob@example.com", "pw").Token

	a.createPost(token, BlogPostRequest{Title: "Learning React", Tags: []string{"frontend"}})
	a.createPost(token, BlogPostRequest{Title: "Go services", Tags: []string{"backend", "go"}})
	a.createPost(other, BlogPostRequest{Title: "React for Bob", Tags: []string{"bob"}})

	t.Run("empty query", func(t *testing.T) {
		status, raw := a.do(http.MethodGet, "/api/blogs/search?q=%20", token, nil)
		if status != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", status)
		}
		if got := decodeError(t, raw).Field; got != "q" {
			t.Errorf("field = %q, want q", got)
		}
	})

	tests := []struct {
		query string
		want  []string
	}{
		{"react", []string{"Learning React"}},
		{"BACKEND", []string{"Go services"}},
		{"nothing", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var posts []BlogPostResponse
			if status := a.doJSON(http.MethodGet, "/api/blogs/search?q="+tt.query, token, nil, &posts); status != http.StatusOK {
				t.Fatalf("status = %d", status)
			}
			var titles []string
			for _, p := range posts {
				titles = append(titles, p.Title)
			}
			if !equalStrings(titles, tt.want) {
				t.Errorf("titles = %v, want %v", titles, tt.want)
			}
		})
	}

	t.Run("tags", func(t *testing.T) {
		var tags []string
		if status := a.doJSON(http.MethodGet, "/api/tags", token, nil, &tags); status != http.StatusOK {
			t.Fatalf("status = %d", status)
		}
		seen := map[string]bool{}
		for _, tag := range tags {
			seen[tag] = true
		}
		if len(tags) != 3 || !seen["frontend"] || !seen["backend"] || !seen["go"] {
			t.Errorf("tags = %v", tags)
		}
	})
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
