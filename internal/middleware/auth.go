package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rsvpd/internal/helpers"
	"github.com/joshua-takyi/rsvpd/internal/models"
	"github.com/supabase-community/gotrue-go/types"
)

const (
	userKey = "user"

	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"

	refreshTokenMaxAge = 3600 * 24 * 30
)

// TokenRefresher exchanges a refresh token for a new session.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*types.TokenResponse, error)
}

// CurrentUser returns the identity set by Auth or OptionalAuth.
func CurrentUser(c *gin.Context) (*helpers.EnhancedClaims, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*helpers.EnhancedClaims)
	return claims, ok && claims != nil
}

// SetAuthCookies stores the session tokens as http-only cookies.
func SetAuthCookies(c *gin.Context, tokens *types.TokenResponse, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(AccessTokenCookie, tokens.AccessToken, tokens.ExpiresIn, "/", "", secure, true)
	if tokens.RefreshToken != "" {
		c.SetCookie(RefreshTokenCookie, tokens.RefreshToken, refreshTokenMaxAge, "/", "", secure, true)
	}
}

func ClearAuthCookies(c *gin.Context, secure bool) {
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", secure, true)
}

// BearerToken reads the Authorization header first and falls back to the
// access token cookie.
func BearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if after, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
	}
	if token, err := c.Cookie(AccessTokenCookie); err == nil {
		return token
	}
	return ""
}

// Auth rejects requests without a valid access token. An invalid token with a
// refresh cookie is refreshed once through refresher.
func Auth(verifier helpers.TokenVerifier, refresher TokenRefresher, logger *slog.Logger, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := BearerToken(c)
		if token == "" {
			abortUnauthorized(c, "access token not found")
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			refreshToken, cookieErr := c.Cookie(RefreshTokenCookie)
			if cookieErr != nil || refresher == nil {
				abortUnauthorized(c, "invalid or expired token")
				return
			}

			tokens, refreshErr := refresher.RefreshToken(c.Request.Context(), refreshToken)
			if refreshErr != nil || tokens == nil || tokens.AccessToken == "" {
				logger.Warn("Token refresh failed", "request_id", c.GetString("request_id"), "error", refreshErr)
				abortUnauthorized(c, "token expired and refresh failed")
				return
			}

			claims, err = verifier.Verify(tokens.AccessToken)
			if err != nil {
				abortUnauthorized(c, "refreshed token validation failed")
				return
			}
			SetAuthCookies(c, tokens, secureCookies)
			logger.Info("Token refreshed", "user_id", claims.Subject, "expires_in", tokens.ExpiresIn)
		}

		c.Set(userKey, helpers.NewEnhancedClaims(claims))
		c.Next()
	}
}

// OptionalAuth attaches the identity when a valid token is present and lets
// anonymous requests through.
func OptionalAuth(verifier helpers.TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := BearerToken(c); token != "" {
			if claims, err := verifier.Verify(token); err == nil {
				c.Set(userKey, helpers.NewEnhancedClaims(claims))
			}
		}
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.UnauthorizedResponse(msg))
}
