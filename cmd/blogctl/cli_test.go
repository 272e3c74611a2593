package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/rpupo63/verbavista-backend/api"
	"github.com/rpupo63/verbavista-backend/auth"
	"github.com/rpupo63/verbavista-backend/database"
	"github.com/rpupo63/verbavista-backend/services"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type cliHarness struct {
	t         *testing.T
	apiURL    string
	credsPath string
	dir       string
}

// newCLIHarness runs the real API over an in-memory database.
func newCLIHarness(t *testing.T) *cliHarness {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatal(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatal(err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	store := database.New(db)
	if err := store.Migrate(); err != nil {
		t.Fatal(err)
	}
	tokens, err := auth.NewTokenManager("cli-test-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	images, err := services.NewLocalImageStore(t.TempDir(), "")
	if err != nil {
		t.Fatal(err)
	}
	server, err := api.NewServer(store, nil, tokens, images)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	dir := t.TempDir()
	return &cliHarness{t: t, apiURL: ts.URL, credsPath: filepath.Join(dir, "credentials.json"), dir: dir}
}

func (h *cliHarness) run(stdin string, args ...string) (string, error) {
	h.t.Helper()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--api-url", h.apiURL, "--credentials", h.credsPath}, args...))

	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *cliHarness) mustRun(args ...string) string {
	h.t.Helper()

	out, err := h.run("", args...)
	if err != nil {
		h.t.Fatalf("blogctl %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func (h *cliHarness) writeFile(name, content string) string {
	h.t.Helper()

	path := filepath.Join(h.dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		h.t.Fatal(err)
	}
	return path
}

func TestCLIWorkflow(t *testing.T) {
	h := newCLIHarness(t)

	if _, err := h.run("", "posts", "list"); !errors.Is(err, errNotLoggedIn) {
		t.Fatalf("posts list before login: err = %v", err)
	}

	// password read from stdin
	out, err := h.run("pw\n", "register", "--name", "Ada", "--email", "ada@example.com")
	if err != nil {
		t.Fatalf("register: %v\n%s", err, out)
	}
	if _, err := os.Stat(h.credsPath); err != nil {
		t.Fatalf("credentials not saved: %v", err)
	}

	if out := h.mustRun("whoami"); !strings.Contains(out, "ada@example.com") {
		t.Errorf("whoami = %q", out)
	}

	h.mustRun("categories", "add", "Web")

	file := h.writeFile("post.md", "title: Hello\ntags: go, web\ncategories: web\n---\n")
	if _, err := h.run("", "publish", file); err == nil {
		t.Error("publish without content should fail")
	}

	out = h.mustRun("save", file)
	if !strings.Contains(out, "created draft post") {
		t.Fatalf("save output = %q", out)
	}
	id := strings.TrimSpace(out[strings.LastIndex(out, " "):])

	h.writeFile("post.md", "title: Hello\ntags: go\ncategories: Web\n---\n<p>Body</p>\n")
	out = h.mustRun("publish", file, "--id", id)
	if !strings.Contains(out, "updated published post "+id) {
		t.Errorf("publish output = %q", out)
	}

	out = h.mustRun("posts", "list")
	if !strings.Contains(out, id) || !strings.Contains(out, "published") || strings.Count(out, "\n") != 2 {
		t.Errorf("posts list = %q", out)
	}

	out = h.mustRun("posts", "show", id)
	doc, err := parseDocument(out)
	if err != nil {
		t.Fatalf("show output does not parse: %v\n%s", err, out)
	}
	if doc.Title != "Hello" || doc.Content != "<p>Body</p>" || doc.Tags != "go" || len(doc.Categories) != 1 || doc.Categories[0] != "Web" {
		t.Errorf("show = %+v", doc)
	}

	if out := h.mustRun("posts", "search", "body"); !strings.Contains(out, id) {
		t.Errorf("search = %q", out)
	}
	if out := h.mustRun("tags"); strings.TrimSpace(out) != "go" {
		t.Errorf("tags = %q", out)
	}

	h.mustRun("logout")
	if _, err := os.Stat(h.credsPath); !os.IsNotExist(err) {
		t.Errorf("credentials still present after logout: %v", err)
	}
	if _, err := h.run("", "whoami"); !errors.Is(err, errNotLoggedIn) {
		t.Errorf("whoami after logout: err = %v", err)
	}

	// log back in with the password flag
	h.mustRun("login", "--email", "ada@example.com", "--password", "pw")
	h.mustRun("posts", "delete", id)
	if out := h.mustRun("posts", "list"); !strings.Contains(out, "no posts") {
		t.Errorf("posts list after delete = %q", out)
	}
}

func TestCLIDropsRejectedCredentials(t *testing.T) {
	h := newCLIHarness(t)
	if err := saveCredentials(h.credsPath, credentials{APIURL: h.apiURL, Token: "forged"}); err != nil {
		t.Fatal(err)
	}

	if _, err := h.run("", "whoami"); err == nil {
		t.Fatal("whoami with a forged token should fail")
	}
	if _, err := os.Stat(h.credsPath); !os.IsNotExist(err) {
		t.Errorf("credentials kept after 401: %v", err)
	}
}
