package api

import (
	"net/http"
	"strings"

	"github.com/rpupo63/verbavista-backend/database"
	"github.com/rpupo63/verbavista-backend/errs"
	"github.com/rpupo63/verbavista-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type categoryHandler struct {
	responder    Responder
	logger       zerolog.Logger
	categoryRepo *database.CategoryRepo
}

func newCategoryHandler(categoryRepo *database.CategoryRepo) categoryHandler {
	logger := log.With().Str("handlerName", "categoryHandler").Logger()

	return categoryHandler{
		responder:    NewResponder(logger),
		logger:       logger,
		categoryRepo: categoryRepo,
	}
}

type categoryRequest struct {
	Name string `json:"name" example:"Frontend"`
}

func newCategoryResponses(categories []*models.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for _, c := range categories {
		out = append(out, CategoryResponse{ID: c.ID, Name: c.Name})
	}
	return out
}

// decodeName reads a categoryRequest and insists on a non-blank name.
func (h categoryHandler) decodeName(w http.ResponseWriter, r *http.Request) (string, error) {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return "", err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return "", errs.NewMissingRequiredFieldError("name")
	}
	return name, nil
}

// getAllCategories lists the caller's categories
// @Summary List categories
// @Tags Categories
// @Produce json
// @Success 200 {array} CategoryResponse "Categories by name"
// @Router /api/categories [get]
func (h categoryHandler) getAllCategories() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		categories, err := h.categoryRepo.FindAllByUser(r.Context(), userID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "categories", err))
			return
		}

		h.responder.WriteJSON(w, newCategoryResponses(categories))
	}
}

// createCategory adds a category
// @Summary Create category
// @Tags Categories
// @Accept json
// @Produce json
// @Param category body categoryRequest true "Category name"
// @Success 201 {object} CategoryResponse "Created category"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing or duplicate name"
// @Router /api/categories [post]
func (h categoryHandler) createCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		name, err := h.decodeName(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		category, err := h.categoryRepo.Add(r.Context(), userID, name)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "category", err))
			return
		}

		h.responder.WriteJSONStatus(w, http.StatusCreated, CategoryResponse{ID: category.ID, Name: category.Name})
	}
}

// renameCategory changes a category's name
// @Summary Rename category
// @Tags Categories
// @Accept json
// @Produce json
// @Param categoryID path string true "Category ID" format(uuid)
// @Param category body categoryRequest true "New name"
// @Success 200 {object} CategoryResponse "Renamed category"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing or duplicate name"
// @Failure 404 {object} ErrorResponse "Not Found"
// @Router /api/categories/{categoryID} [put]
func (h categoryHandler) renameCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		categoryID, err := urlID(r, "categoryID", "category")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		name, err := h.decodeName(w, r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		category, err := h.categoryRepo.Rename(r.Context(), userID, categoryID, name)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("rename", "category", err))
			return
		}

		h.responder.WriteJSON(w, CategoryResponse{ID: category.ID, Name: category.Name})
	}
}

// deleteCategory removes a category and unlinks it from posts
// @Summary Delete category
// @Tags Categories
// @Param categoryID path string true "Category ID" format(uuid)
// @Success 200 {object} MessageResponse "Success message"
// @Failure 404 {object} ErrorResponse "Not Found"
// @Router /api/categories/{categoryID} [delete]
func (h categoryHandler) deleteCategory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		categoryID, err := urlID(r, "categoryID", "category")
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.categoryRepo.Delete(r.Context(), userID, categoryID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "category", err))
			return
		}

		h.responder.WriteJSON(w, MessageResponse{Status: "success", Message: "category deleted successfully"})
	}
}
