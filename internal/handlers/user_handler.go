package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rsvpd/internal/middleware"
	"github.com/joshua-takyi/rsvpd/internal/models"
	"github.com/joshua-takyi/rsvpd/internal/services"
)

type meResponse struct {
	ID      string       `json:"id"`
	Email   string       `json:"email"`
	Name    string       `json:"name"`
	Role    string       `json:"role"`
	Profile *models.User `json:"profile,omitempty"`
}

// Me returns the caller's identity, enriched with the stored profile when one
// can be read.
func Me(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := middleware.CurrentUser(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, models.UnauthorizedResponse("unauthorized"))
			return
		}

		res := meResponse{
			ID:    claims.UserID,
			Email: claims.Email,
			Name:  claims.Name,
			Role:  claims.GetSafeRole(),
		}
		if u != nil {
			if profile, err := u.GetUser(c.Request.Context(), claims.UserID, middleware.BearerToken(c)); err == nil {
				res.Profile = profile
				if res.Name == "" {
					res.Name = profile.DisplayName()
				}
			}
		}
		c.JSON(http.StatusOK, models.SuccessResponse(res, ""))
	}
}
