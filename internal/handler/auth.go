package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"worklog/internal/logger"
	"worklog/internal/middleware"
	"worklog/internal/model"
)

// AuthAPI is the slice of the auth service the handler needs.
type AuthAPI interface {
	LoginURL(redirectURL, codeChallenge string) string
	Callback(ctx context.Context, code, codeVerifier string) (*model.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error)
	SignOut(ctx context.Context, accessToken string) error
}

type AuthHandler struct{ auth AuthAPI }

func NewAuthHandler(auth AuthAPI) *AuthHandler { return &AuthHandler{auth: auth} }

// GET /api/auth/google
func (h *AuthHandler) Google(c *gin.Context) {
	url := h.auth.LoginURL(c.Query("redirect_url"), c.Query("code_challenge"))
	c.JSON(http.StatusOK, model.AuthURLResponse{URL: url})
}

// GET /api/auth/google/redirect
func (h *AuthHandler) GoogleRedirect(c *gin.Context) {
	url := h.auth.LoginURL(c.Query("redirect_url"), c.Query("code_challenge"))
	c.Redirect(http.StatusTemporaryRedirect, url)
}

// POST /api/auth/callback
func (h *AuthHandler) Callback(c *gin.Context) {
	var req model.AuthCallbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "code and code_verifier are required"})
		return
	}
	tokens, err := h.auth.Callback(c.Request.Context(), req.Code, req.CodeVerifier)
	if err != nil {
		logger.Warn("auth callback failed", "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	logger.Info("login ok", "user", tokens.User.Email)
	c.JSON(http.StatusOK, tokens)
}

// POST /api/auth/refresh?refresh_token=
func (h *AuthHandler) Refresh(c *gin.Context) {
	refreshToken := c.Query("refresh_token")
	if refreshToken == "" {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "refresh_token is required"})
		return
	}
	tokens, err := h.auth.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		logger.Warn("session refresh failed", "err", err)
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "Failed to refresh session"})
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// POST /api/auth/logout — provider sign-out is best-effort; the client clears
// its credentials regardless.
func (h *AuthHandler) Logout(c *gin.Context) {
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if err := h.auth.SignOut(c.Request.Context(), auth[len("Bearer "):]); err != nil {
			logger.Warn("provider sign-out failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, middleware.CurrentUser(c))
}
