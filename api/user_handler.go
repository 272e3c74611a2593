package api

import (
	"net/http"
	"strings"

	"github.com/rpupo63/verbavista-backend/auth"
	"github.com/rpupo63/verbavista-backend/database"
	"github.com/rpupo63/verbavista-backend/errs"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type userHandler struct {
	responder Responder
	logger    zerolog.Logger
	userRepo  *database.UserRepo
}

func newUserHandler(userRepo *database.UserRepo) userHandler {
	logger := log.With().Str("handlerName", "userHandler").Logger()

	return userHandler{
		responder: NewResponder(logger),
		logger:    logger,
		userRepo:  userRepo,
	}
}

type profileRequest struct {
	Name string `json:"name"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// getProfile returns the caller's account
// @Summary Get profile
// @Tags Users
// @Produce json
// @Success 200 {object} UserResponse "Current user"
// @Router /api/users/profile [get]
func (h userHandler) getProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, err := h.userRepo.FindByID(r.Context(), userID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
			return
		}

		h.responder.WriteJSON(w, newUserResponse(user))
	}
}

// updateProfile renames the caller
// @Summary Update profile
// @Tags Users
// @Accept json
// @Produce json
// @Param body body profileRequest true "New name"
// @Success 200 {object} UserResponse "Updated user"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing name"
// @Router /api/users/profile [put]
func (h userHandler) updateProfile() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req profileRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if strings.TrimSpace(req.Name) == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("name"))
			return
		}

		user, err := h.userRepo.UpdateName(r.Context(), userID, req.Name)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", "user", err))
			return
		}

		h.responder.WriteJSON(w, newUserResponse(user))
	}
}

// changePassword replaces the password after checking the current one
// @Summary Change password
// @Tags Users
// @Accept json
// @Produce json
// @Param body body changePasswordRequest true "Current and new password"
// @Success 200 {object} MessageResponse "Success message"
// @Failure 400 {object} ErrorResponse "Bad Request - Wrong current password"
// @Router /api/users/change-password [put]
func (h userHandler) changePassword() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		var req changePasswordRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}
		if req.CurrentPassword == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("currentPassword"))
			return
		}
		if req.NewPassword == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("newPassword"))
			return
		}

		user, err := h.userRepo.FindByID(r.Context(), userID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
			return
		}

		ok, err := auth.CheckPassword(user.PasswordHash, req.CurrentPassword)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("could not check password", err))
			return
		}
		if !ok {
			h.responder.WriteError(w, errs.NewInvalidFieldError("currentPassword", "current password is incorrect"))
			return
		}

		hash, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("could not change password", err))
			return
		}
		if err := h.userRepo.UpdatePasswordHash(r.Context(), userID, hash); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", "user", err))
			return
		}

		h.logger.Info().Str("userID", userID.String()).Msg("password changed")
		h.responder.WriteJSON(w, MessageResponse{Status: "success", Message: "password changed successfully"})
	}
}

// deleteAccount removes the caller with every post and category they own
// @Summary Delete account
// @Tags Users
// @Success 200 {object} MessageResponse "Success message"
// @Router /api/users [delete]
func (h userHandler) deleteAccount() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.userRepo.Delete(r.Context(), userID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "user", err))
			return
		}

		h.logger.Info().Str("userID", userID.String()).Msg("account deleted")
		h.responder.WriteJSON(w, MessageResponse{Status: "success", Message: "account deleted successfully"})
	}
}
