package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"worklog/internal/model"
)

const (
	ctxUser  = "user"
	ctxToken = "access_token"
)

// UserResolver resolves an access token to a user via the auth provider.
// Used when no local JWT secret is configured.
type UserResolver interface {
	GetUser(ctx context.Context, accessToken string) (*model.UserProfile, error)
}

// RequireAuth validates the bearer token on every request. With a configured
// secret the provider-issued JWT is verified locally; otherwise the token is
// resolved through the provider's userinfo endpoint.
func RequireAuth(secret []byte, resolver UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Missing authentication token"})
			return
		}
		raw := auth[len("Bearer "):]

		var user *model.UserProfile
		if len(secret) > 0 {
			u, err := userFromJWT(raw, secret)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid or expired token"})
				return
			}
			user = u
		} else {
			u, err := resolver.GetUser(c.Request.Context(), raw)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Invalid or expired token"})
				return
			}
			user = u
		}

		c.Set(ctxUser, *user)
		c.Set(ctxToken, raw)
		c.Next()
	}
}

func userFromJWT(raw string, secret []byte) (*model.UserProfile, error) {
	token, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		if err == nil {
			err = jwt.ErrTokenUnverifiable
		}
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, jwt.ErrTokenInvalidClaims
	}

	u := model.UserProfile{}
	u.ID, _ = claims["sub"].(string)
	u.Email, _ = claims["email"].(string)
	if meta, ok := claims["user_metadata"].(map[string]interface{}); ok {
		u.Name, _ = meta["full_name"].(string)
		if u.Name == "" {
			u.Name, _ = meta["name"].(string)
		}
		u.AvatarURL, _ = meta["avatar_url"].(string)
		if u.AvatarURL == "" {
			u.AvatarURL, _ = meta["picture"].(string)
		}
	}
	if meta, ok := claims["app_metadata"].(map[string]interface{}); ok {
		u.Provider, _ = meta["provider"].(string)
	}
	if u.ID == "" {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return &u, nil
}

// CurrentUser returns the authenticated user injected by RequireAuth.
func CurrentUser(c *gin.Context) model.UserProfile {
	u, _ := c.Get(ctxUser)
	profile, _ := u.(model.UserProfile)
	return profile
}

// AccessToken returns the raw bearer token for the current request.
func AccessToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}
