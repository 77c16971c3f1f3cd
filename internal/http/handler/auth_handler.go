package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/tilequote/quote-api/internal/auth"
	"github.com/tilequote/quote-api/internal/domain"
	"go.uber.org/zap"
)

// Authenticator checks credentials and issues tokens
type Authenticator interface {
	Login(username, password string) (string, time.Time, error)
}

type AuthHandler struct {
	authenticator Authenticator
	logger        *zap.Logger
}

func NewAuthHandler(authenticator Authenticator, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		logger:        logger,
	}
}

// Login godoc
// @Summary Log in
// @Description Exchanges the owner credentials for a bearer token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body domain.LoginRequest true "Credentials"
// @Success 200 {object} domain.LoginResponse
// @Failure 400 {object} domain.APIError
// @Failure 401 {object} domain.APIError
// @Failure 503 {object} domain.APIError "Login not configured"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	token, expiresAt, err := h.authenticator.Login(req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			h.logger.Warn("failed login attempt",
				zap.String("username", req.Username),
				zap.String("remote_addr", r.RemoteAddr))
			respondWithError(w, http.StatusUnauthorized, "Invalid username or password")
		case errors.Is(err, auth.ErrAuthNotConfigured):
			respondWithError(w, http.StatusServiceUnavailable, "Login is not configured on this server")
		default:
			h.logger.Error("failed to issue token", zap.Error(err))
			respondWithError(w, http.StatusInternalServerError, "Failed to log in")
		}
		return
	}

	respondJSON(w, http.StatusOK, domain.LoginResponse{Token: token, ExpiresAt: expiresAt})
}

// Me godoc
// @Summary Get current identity
// @Tags Auth
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 401 {object} domain.ErrorResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.FromContext(r.Context())
	if !ok || user == nil {
		respondWithError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"subject":     user.Subject,
		"displayName": user.DisplayName,
		"authType":    string(user.AuthType),
	})
}
