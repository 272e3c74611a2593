package api

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/rpupo63/verbavista-backend/database"
	"github.com/rpupo63/verbavista-backend/errs"
	"github.com/rpupo63/verbavista-backend/models"
	"github.com/rpupo63/verbavista-backend/services"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type blogPostHandler struct {
	responder    Responder
	logger       zerolog.Logger
	blogPostRepo *database.BlogPostRepo
	blogTagRepo  *database.BlogTagRepo
	sanitizer    *services.ContentSanitizer
}

func newBlogPostHandler(blogPostRepo *database.BlogPostRepo, blogTagRepo *database.BlogTagRepo, sanitizer *services.ContentSanitizer) blogPostHandler {
	logger := log.With().Str("handlerName", "blogPostHandler").Logger()

	return blogPostHandler{
		responder:    NewResponder(logger),
		logger:       logger,
		blogPostRepo: blogPostRepo,
		blogTagRepo:  blogTagRepo,
		sanitizer:    sanitizer,
	}
}

// getAllBlogPosts lists the caller's posts
// @Summary Get all blog posts
// @Description Retrieves the caller's posts, most recently updated first
// @Tags Blog Posts
// @Produce json
// @Success 200 {array} BlogPostResponse "List of blog posts"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /api/blogs [get]
func (h blogPostHandler) getAllBlogPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blogPosts, err := h.blogPostRepo.FindAllByUser(r.Context(), userID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "blog posts", err))
			return
		}

		h.responder.WriteJSON(w, newBlogPostResponses(blogPosts))
	}
}

// searchBlogPosts matches a query against title, content and tags
// @Summary Search blog posts
// @Description Case-insensitive substring search over the caller's posts
// @Tags Blog Posts
// @Produce json
// @Param q query string true "Search text"
// @Success 200 {array} BlogPostResponse "Matching blog posts"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing query"
// @Router /api/blogs/search [get]
func (h blogPostHandler) searchBlogPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		query := r.URL.Query().Get("q")
		if strings.TrimSpace(query) == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("q"))
			return
		}

		blogPosts, err := h.blogPostRepo.Search(r.Context(), userID, query)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("search", "blog posts", err))
			return
		}

		h.responder.WriteJSON(w, newBlogPostResponses(blogPosts))
	}
}

// getBlogPost retrieves a specific blog post by ID
// @Summary Get blog post
// @Tags Blog Posts
// @Produce json
// @Param blogPostID path string true "Blog Post ID" format(uuid)
// @Success 200 {object} BlogPostResponse "Blog post"
// @Failure 404 {object} ErrorResponse "Not Found - Blog post not found"
// @Router /api/blogs/{blogPostID} [get]
func (h blogPostHandler) getBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blogPostID, err := urlID(r, "blogPostID", "blog post")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blogPost, err := h.blogPostRepo.FindByID(r.Context(), userID, blogPostID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "blog post", err))
			return
		}

		h.responder.WriteJSON(w, newBlogPostResponse(blogPost))
	}
}

// createBlogPost creates a new blog post. A non-empty forced status wins over
// the status in the body.
// @Summary Create blog post
// @Description Creates a post owned by the caller. /save-draft and /publish force the status.
// @Tags Blog Posts
// @Accept json
// @Produce json
// @Param blogPost body BlogPostRequest true "Blog post data"
// @Success 201 {object} BlogPostResponse "Created blog post"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid blog post data"
// @Router /api/blogs [post]
func (h blogPostHandler) createBlogPost(forced models.PostStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req BlogPostRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		status := req.Status
		if forced != "" {
			status = forced
		}
		if status == "" {
			status = models.StatusDraft
		}

		input, err := h.buildInput(req, status, status)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blogPost, err := h.blogPostRepo.Add(r.Context(), userID, input)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "blog post", err))
			return
		}

		h.logger.Info().Str("blogPostID", blogPost.ID.String()).Str("status", string(blogPost.Status)).Msg("blog post created")
		h.responder.WriteJSONStatus(w, http.StatusCreated, newBlogPostResponse(blogPost))
	}
}

// updateBlogPost updates an existing blog post
// @Summary Update blog post
// @Description Overwrites the mutable fields of a post. An omitted status keeps the current one.
// @Tags Blog Posts
// @Accept json
// @Produce json
// @Param blogPostID path string true "Blog Post ID" format(uuid)
// @Param blogPost body BlogPostRequest true "Updated blog post data"
// @Success 200 {object} BlogPostResponse "Updated blog post"
// @Failure 400 {object} ErrorResponse "Bad Request - Invalid blog post data"
// @Failure 404 {object} ErrorResponse "Not Found - Blog post not found"
// @Router /api/blogs/{blogPostID} [put]
func (h blogPostHandler) updateBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blogPostID, err := urlID(r, "blogPostID", "blog post")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req BlogPostRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		// Verify blog post exists and belongs to the caller
		existing, err := h.blogPostRepo.FindByID(r.Context(), userID, blogPostID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "blog post", err))
			return
		}

		effective := req.Status
		if effective == "" {
			effective = existing.Status
		}

		input, err := h.buildInput(req, req.Status, effective)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blogPost, err := h.blogPostRepo.Update(r.Context(), userID, blogPostID, input)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", "blog post", err))
			return
		}

		h.responder.WriteJSON(w, newBlogPostResponse(blogPost))
	}
}

// deleteBlogPost deletes a blog post by ID
// @Summary Delete blog post
// @Tags Blog Posts
// @Produce json
// @Param blogPostID path string true "Blog Post ID" format(uuid)
// @Success 200 {object} MessageResponse "Success message"
// @Failure 404 {object} ErrorResponse "Not Found - Blog post not found"
// @Router /api/blogs/{blogPostID} [delete]
func (h blogPostHandler) deleteBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blogPostID, err := urlID(r, "blogPostID", "blog post")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.blogPostRepo.Delete(r.Context(), userID, blogPostID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "blog post", err))
			return
		}

		h.responder.WriteJSON(w, MessageResponse{Status: "success", Message: "blog post deleted successfully"})
	}
}

// getTags lists every tag the caller has used
// @Summary List tags
// @Tags Blog Posts
// @Produce json
// @Success 200 {array} string "Distinct tag values"
// @Router /api/tags [get]
func (h blogPostHandler) getTags() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		tags, err := h.blogTagRepo.FindDistinctValues(r.Context(), userID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "tags", err))
			return
		}
		if tags == nil {
			tags = []string{}
		}

		h.responder.WriteJSON(w, tags)
	}
}

// buildInput validates req against the status the post will have once saved
// and converts it for the repository. stored is what gets written: empty
// leaves the current status alone.
func (h blogPostHandler) buildInput(req BlogPostRequest, stored, effective models.PostStatus) (database.BlogPostInput, error) {
	if stored != "" && !stored.Valid() {
		return database.BlogPostInput{}, errs.NewInvalidFieldError("status", "must be draft or published")
	}

	title := strings.TrimSpace(req.Title)
	content := h.sanitizer.Sanitize(req.Content)

	if effective == models.StatusPublished {
		if title == "" {
			return database.BlogPostInput{}, errs.NewMissingRequiredFieldError("title")
		}
		if strings.TrimSpace(content) == "" {
			return database.BlogPostInput{}, errs.NewMissingRequiredFieldError("content")
		}
	} else if title == "" && strings.TrimSpace(content) == "" {
		return database.BlogPostInput{}, errs.NewMissingRequiredFieldError("title")
	}

	categoryIDs := make([]uuid.UUID, 0, len(req.Categories))
	for _, raw := range req.Categories {
		id, err := uuid.Parse(raw)
		if err != nil {
			return database.BlogPostInput{}, errs.NewInvalidFieldError("categories", "unknown category")
		}
		categoryIDs = append(categoryIDs, id)
	}

	return database.BlogPostInput{
		Title:       title,
		Content:     content,
		Status:      stored,
		Tags:        normalizeTags(req.Tags),
		CategoryIDs: categoryIDs,
	}, nil
}

// normalizeTags trims every tag and drops empty ones, keeping order and duplicates.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	return out
}
