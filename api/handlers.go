package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rpupo63/verbavista-backend/auth"
	"github.com/rpupo63/verbavista-backend/database"
	"github.com/rpupo63/verbavista-backend/errs"
	"github.com/rpupo63/verbavista-backend/services"
)

const maxJSONBodySize = 5 << 20

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(database database.Database, tokens *auth.TokenManager, images services.ImageStore) *routeHandlers {
	sanitizer := services.NewContentSanitizer()
	return &routeHandlers{
		authHandler:     newAuthHandler(database.UserRepo(), tokens),
		blogPostHandler: newBlogPostHandler(database.BlogPostRepo(), database.BlogTagRepo(), sanitizer),
		categoryHandler: newCategoryHandler(database.CategoryRepo()),
		userHandler:     newUserHandler(database.UserRepo()),
		uploadHandler:   newUploadHandler(images),
	}
}

// decodeJSON reads a size-limited JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)
	err := json.NewDecoder(r.Body).Decode(dst)

	var maxBytesErr *http.MaxBytesError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &maxBytesErr):
		return errs.NewMaxBodySizeExceededError(maxJSONBodySize)
	case errors.Is(err, io.EOF):
		return errs.NewMalformedPayloadError("empty", err)
	default:
		return errs.NewInvalidJSONError(err)
	}
}

// urlID parses the chi URL parameter name as a uuid. A malformed id cannot
// name a post the caller owns, so it is reported as not found.
func urlID(r *http.Request, name, entity string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		return uuid.Nil, errs.NewBadRequestError("missing " + name)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errs.NewNotFound(entity)
	}
	return id, nil
}

// requestUserID returns the caller set by the auth middleware.
func requestUserID(r *http.Request) (uuid.UUID, error) {
	userID, err := ctxGetUserID(r.Context())
	if err != nil {
		return uuid.Nil, errs.NewMissingTokenError()
	}
	return userID, nil
}
