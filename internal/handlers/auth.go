package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aleex825/budgetwise-backend/internal/logger"
	"github.com/aleex825/budgetwise-backend/internal/models"
	"github.com/aleex825/budgetwise-backend/internal/services"
)

// Signuper defines the interface that the signup service must implement.
type Signuper interface {
	Signup(ctx context.Context, username, password string) (*models.UserDB, error)
}

// Loginer defines the interface that the login service must implement.
type Loginer interface {
	Login(ctx context.Context, username, password string) (*models.UserDB, error)
}

// PasswordResetter defines the interface that the password reset service must implement.
type PasswordResetter interface {
	ResetPassword(ctx context.Context, username, newPassword string) error
}

// UserDeleter defines the interface that the account removal service must implement.
type UserDeleter interface {
	DeleteUser(ctx context.Context, userID string) error
}

// CredentialsRequest represents the JSON body for signup, login and password reset
// swagger:model CredentialsRequest
type CredentialsRequest struct {
	// Username, trimmed and lower-cased by the server
	// required: true
	// default: alice@example.com
	Username string `json:"username"`

	// Password, or the new password on reset
	// required: true
	// default: secret123
	Password string `json:"password"`
}

// UserResponse represents the authenticated or newly created user
// swagger:model UserResponse
type UserResponse struct {
	// User ID
	// default: 6f1c2d1e-8a4b-4e55-9a43-1b0b7f0b6c11
	ID string `json:"id"`

	// Normalized username
	// default: alice@example.com
	Username string `json:"username"`
}

// NewSignupHandler returns an HTTP handler for user signup.
// @Summary Sign up
// @Description Creates a new account. The username is trimmed and lower-cased; the password must have at least 4 characters.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body handlers.CredentialsRequest true "Signup request"
// @Success 200 {object} handlers.UserResponse "User created"
// @Failure 400 {object} handlers.ErrorResponse "Empty username, short password or invalid body"
// @Failure 409 {object} handlers.ErrorResponse "Username already exists"
// @Router /auth/signup [post]
func NewSignupHandler(svc Signuper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := svc.Signup(r.Context(), req.Username, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrEmptyUsername),
				errors.Is(err, services.ErrPasswordTooShort),
				errors.Is(err, services.ErrPasswordTooLong):
				writeError(w, http.StatusBadRequest, err.Error())
			case errors.Is(err, services.ErrUserAlreadyExists):
				writeError(w, http.StatusConflict, err.Error())
			default:
				logger.FromContext(r.Context()).Errorw("internal server error", "err", err)
				writeError(w, http.StatusInternalServerError, internalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, UserResponse{ID: user.UserID, Username: user.Username})
	}
}

// NewLoginHandler returns an HTTP handler for user login.
// @Summary Log in
// @Description Checks the credentials and returns the user. No token is issued.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body handlers.CredentialsRequest true "Login request"
// @Success 200 {object} handlers.UserResponse "Credentials valid"
// @Failure 400 {object} handlers.ErrorResponse "Invalid request body"
// @Failure 401 {object} handlers.ErrorResponse "Invalid username or password"
// @Router /auth/login [post]
func NewLoginHandler(svc Loginer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		user, err := svc.Login(r.Context(), req.Username, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, services.ErrInvalidCredentials):
				writeError(w, http.StatusUnauthorized, err.Error())
			default:
				logger.FromContext(r.Context()).Errorw("internal server error", "err", err)
				writeError(w, http.StatusInternalServerError, internalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, UserResponse{ID: user.UserID, Username: user.Username})
	}
}

// NewResetPasswordHandler returns an HTTP handler that replaces a user's password.
// @Summary Reset password
// @Description Overwrites the password of an existing user. The password field carries the new password.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body handlers.CredentialsRequest true "Reset request"
// @Success 200 {object} handlers.OKResponse "Password updated"
// @Failure 400 {object} handlers.ErrorResponse "Short password or invalid body"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Router /auth/reset-password [post]
func NewResetPasswordHandler(svc PasswordResetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CredentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		if err := svc.ResetPassword(r.Context(), req.Username, req.Password); err != nil {
			switch {
			case errors.Is(err, services.ErrUserNotFound):
				writeError(w, http.StatusNotFound, err.Error())
			case errors.Is(err, services.ErrPasswordTooShort),
				errors.Is(err, services.ErrPasswordTooLong):
				writeError(w, http.StatusBadRequest, err.Error())
			default:
				logger.FromContext(r.Context()).Errorw("internal server error", "err", err)
				writeError(w, http.StatusInternalServerError, internalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, OKResponse{OK: true})
	}
}

// NewDeleteUserHandler returns an HTTP handler that removes a user and all of its transactions.
// @Summary Delete user
// @Description Deletes the user; its transactions are removed with it.
// @Tags users
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} handlers.OKResponse "User deleted"
// @Failure 404 {object} handlers.ErrorResponse "User not found"
// @Router /users/{user_id} [delete]
func NewDeleteUserHandler(svc UserDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "user_id")

		if err := svc.DeleteUser(r.Context(), userID); err != nil {
			switch {
			case errors.Is(err, services.ErrUserNotFound):
				writeError(w, http.StatusNotFound, err.Error())
			default:
				logger.FromContext(r.Context()).Errorw("internal server error", "userID", userID, "err", err)
				writeError(w, http.StatusInternalServerError, internalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, OKResponse{OK: true})
	}
}
