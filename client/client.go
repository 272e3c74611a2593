// Package client is a typed HTTP client for the blog API. It satisfies
// draft.Persister so an edit session can save through it.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/rpupo63/verbavista-backend/draft"
	"github.com/rpupo63/verbavista-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	logger     zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func New(baseURL string, session *Session, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		session:    session,
		logger:     log.With().Str("component", "apiClient").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the credentials the client sends.
func (c *Client) Session() *Session {
	return c.session
}

var _ draft.Persister = (*Client)(nil)

// Register creates an account and signs the session in.
func (c *Client) Register(ctx context.Context, name, email, password string) (*User, error) {
	return c.authenticate(ctx, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

// Login exchanges credentials for a token and signs the session in.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	return c.authenticate(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, body map[string]string) (*User, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, errs.NewInvalidTokenError()
	}
	c.session.SignIn(resp.Token, &resp.User)
	return &resp.User, nil
}

// Logout drops the credentials. Tokens are stateless so the server is not told.
func (c *Client) Logout() {
	c.session.Clear()
}

// Verify asks the server who the current token belongs to.
func (c *Client) Verify(ctx context.Context) (*User, error) {
	var resp struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/auth/verify", nil, &resp); err != nil {
		return nil, err
	}
	c.session.SignIn(c.session.Token(), &resp.User)
	return &resp.User, nil
}

func (c *Client) ListPosts(ctx context.Context) ([]Post, error) {
	var posts []Post
	err := c.do(ctx, http.MethodGet, "/api/blogs", nil, &posts)
	return posts, err
}

// SearchPosts matches query against title, content and tags. An empty query
// is rejected locally: clearing a search is the caller's business.
func (c *Client) SearchPosts(ctx context.Context, query string) ([]Post, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errs.NewMissingRequiredFieldError("q")
	}
	var posts []Post
	err := c.do(ctx, http.MethodGet, "/api/blogs/search?q="+url.QueryEscape(query), nil, &posts)
	return posts, err
}

func (c *Client) GetPost(ctx context.Context, id string) (*Post, error) {
	var post Post
	if err := c.do(ctx, http.MethodGet, "/api/blogs/"+url.PathEscape(id), nil, &post); err != nil {
		return nil, err
	}
	return &post, nil
}

// CreatePost creates a post and returns the identity the server assigned.
func (c *Client) CreatePost(ctx context.Context, p draft.Payload) (string, error) {
	var post Post
	if err := c.do(ctx, http.MethodPost, "/api/blogs", p, &post); err != nil {
		return "", err
	}
	return post.ID, nil
}

func (c *Client) UpdatePost(ctx context.Context, id string, p draft.Payload) error {
	return c.do(ctx, http.MethodPut, "/api/blogs/"+url.PathEscape(id), p, nil)
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/blogs/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ListTags(ctx context.Context) ([]string, error) {
	var tags []string
	err := c.do(ctx, http.MethodGet, "/api/tags", nil, &tags)
	return tags, err
}

func (c *Client) ListCategories(ctx context.Context) ([]Category, error) {
	var categories []Category
	err := c.do(ctx, http.MethodGet, "/api/categories", nil, &categories)
	return categories, err
}

func (c *Client) CreateCategory(ctx context.Context, name string) (*Category, error) {
	var category Category
	if err := c.do(ctx, http.MethodPost, "/api/categories", map[string]string{"name": name}, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *Client) RenameCategory(ctx context.Context, id, name string) (*Category, error) {
	var category Category
	if err := c.do(ctx, http.MethodPut, "/api/categories/"+url.PathEscape(id), map[string]string{"name": name}, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/categories/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Profile(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/api/users/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) UpdateProfile(ctx context.Context, name string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodPut, "/api/users/profile", map[string]string{"name": name}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.do(ctx, http.MethodPut, "/api/users/change-password", map[string]string{
		"currentPassword": current,
		"newPassword":     next,
	}, nil)
}

// DeleteAccount removes the account with everything it owns and signs out.
func (c *Client) DeleteAccount(ctx context.Context) error {
	if err := c.do(ctx, http.MethodDelete, "/api/users", nil, nil); err != nil {
		return err
	}
	c.session.Clear()
	return nil
}

// UploadImage sends an image as the multipart field "image" and returns the
// URL it is served from.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("image", filepath.Base(filename))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	var resp struct {
		ImageURL string `json:"imageUrl"`
	}
	if err := c.send(req, &resp); err != nil {
		return "", err
	}
	return resp.ImageURL, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	operation := req.Method + " " + req.URL.Path

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return ctxErr
		}
		return errs.NewTransientError(operation, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.NewTransientError(operation, err)
	}

	if resp.StatusCode >= 300 {
		return c.decodeError(operation, resp.StatusCode, bodyBytes)
	}

	if out == nil || len(bodyBytes) == 0 {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, out); err != nil {
		c.logger.Error().Err(err).Str("operation", operation).Msg("failed to decode response")
		return errs.NewMalformedPayloadError("response", err)
	}
	return nil
}

// decodeError rebuilds the server's error as an errs value so callers can
// use the errs predicates. A 401 also clears the session.
func (c *Client) decodeError(operation string, status int, body []byte) error {
	var payload errorResponse
	if err := json.Unmarshal(body, &payload); err != nil || payload.Error == "" {
		payload.Error = strings.TrimSpace(string(body))
		if payload.Error == "" {
			payload.Error = http.StatusText(status)
		}
	}
	message := payload.Error
	if payload.Details != "" && !strings.Contains(message, payload.Details) {
		message = fmt.Sprintf("%s: %s", message, payload.Details)
	}

	switch {
	case status == http.StatusUnauthorized:
		c.logger.Warn().Str("operation", operation).Msg("token rejected, clearing session")
		c.session.Clear()
		return errs.NewUnauthorizedError(message)
	case status == http.StatusNotFound:
		return errs.Wrap(status, errs.ErrNotFound, message)
	case status == http.StatusConflict || strings.Contains(payload.Error, errs.ErrConflict.Error()):
		return errs.NewConflictError(status, message)
	case status == http.StatusTooManyRequests:
		return errs.Wrap(status, errs.ErrRateLimitExceeded, message)
	case status >= http.StatusInternalServerError:
		return errs.NewTransientError(operation, fmt.Errorf("server answered %d: %s", status, message))
	case status == http.StatusBadRequest && payload.Field != "":
		return errs.NewInvalidFieldError(payload.Field, message)
	case status == http.StatusBadRequest:
		return errs.Wrap(status, errs.ErrBadRequest, message)
	default:
		return errs.NewApiErr(status, message)
	}
}
