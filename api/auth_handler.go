package api

import (
	"net/http"
	"strings"

	"github.com/rpupo63/verbavista-backend/auth"
	"github.com/rpupo63/verbavista-backend/database"
	"github.com/rpupo63/verbavista-backend/errs"
	"github.com/rpupo63/verbavista-backend/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type authHandler struct {
	responder Responder
	logger    zerolog.Logger
	userRepo  *database.UserRepo
	tokens    *auth.TokenManager
}

func newAuthHandler(userRepo *database.UserRepo, tokens *auth.TokenManager) authHandler {
	logger := log.With().Str("handlerName", "authHandler").Logger()

	return authHandler{
		responder: NewResponder(logger),
		logger:    logger,
		userRepo:  userRepo,
		tokens:    tokens,
	}
}

type registerRequest struct {
	Name     string `json:"name" example:"Ada Lovelace"`
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email" example:"ada@example.com"`
	Password string `json:"password"`
}

// register creates an account and signs it in
// @Summary Register
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body registerRequest true "Account data"
// @Success 201 {object} AuthResponse "Token and user"
// @Failure 400 {object} ErrorResponse "Bad Request - Missing field"
// @Failure 409 {object} ErrorResponse "Conflict - Email already registered"
// @Router /api/auth/register [post]
func (h authHandler) register() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		switch {
		case strings.TrimSpace(req.Name) == "":
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("name"))
			return
		case strings.TrimSpace(req.Email) == "":
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("email"))
			return
		case req.Password == "":
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("password"))
			return
		}

		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("could not register account", err))
			return
		}

		user := &models.User{Name: req.Name, Email: req.Email, PasswordHash: hash}
		if err := h.userRepo.Add(r.Context(), user); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "user", err))
			return
		}

		token, err := h.tokens.Issue(user.ID)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("could not issue token", err))
			return
		}

		h.logger.Info().Str("userID", user.ID.String()).Msg("account registered")
		h.responder.WriteJSONStatus(w, http.StatusCreated, AuthResponse{Token: token, User: newUserResponse(user)})
	}
}

// login exchanges credentials for a token
// @Summary Login
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body loginRequest true "Credentials"
// @Success 200 {object} AuthResponse "Token and user"
// @Failure 401 {object} ErrorResponse "Unauthorized - Invalid email or password"
// @Router /api/auth/login [post]
func (h authHandler) login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if strings.TrimSpace(req.Email) == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("email"))
			return
		}
		if req.Password == "" {
			h.responder.WriteError(w, errs.NewMissingRequiredFieldError("password"))
			return
		}

		user, err := h.userRepo.FindByEmail(r.Context(), req.Email)
		if errs.IsNotFound(err) {
			h.responder.WriteError(w, errs.NewInvalidCredentialsError())
			return
		}
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
			return
		}

		ok, err := auth.CheckPassword(user.PasswordHash, req.Password)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("could not check password", err))
			return
		}
		if !ok {
			h.responder.WriteError(w, errs.NewInvalidCredentialsError())
			return
		}

		token, err := h.tokens.Issue(user.ID)
		if err != nil {
			h.responder.WriteError(w, errs.NewInternalErrorWithCause("could not issue token", err))
			return
		}

		h.responder.WriteJSON(w, AuthResponse{Token: token, User: newUserResponse(user)})
	}
}

// verify returns the account behind the presented token
// @Summary Verify token
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]UserResponse "Current user"
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /api/auth/verify [get]
func (h authHandler) verify() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requestUserID(r)
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		user, err := h.userRepo.FindByID(r.Context(), userID)
		if errs.IsNotFound(err) {
			// Token outlived the account.
			h.responder.WriteError(w, errs.NewInvalidTokenError())
			return
		}
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "user", err))
			return
		}

		h.responder.WriteJSON(w, map[string]UserResponse{"user": newUserResponse(user)})
	}
}
