package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rsvpd/internal/middleware"
	"github.com/joshua-takyi/rsvpd/internal/models"
	"github.com/joshua-takyi/rsvpd/internal/services"
)

func Register(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.RegisterInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request payload: "+err.Error()))
			return
		}

		created, err := u.Register(c.Request.Context(), &in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(created, "account created"))
	}
}

func Login(u *services.UserService, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Email    string `json:"email" binding:"required,email"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request payload: "+err.Error()))
			return
		}

		tokens, err := u.AuthenticateUser(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		if tokens == nil || tokens.AccessToken == "" {
			respondError(c, models.ErrUnauthorized)
			return
		}

		middleware.SetAuthCookies(c, tokens, secureCookies)
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{
			"user":        tokens.User,
			"accessToken": tokens.AccessToken,
			"expiresIn":   tokens.ExpiresIn,
		}, "logged in"))
	}
}

// Logout handler
func Logout(secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.ClearAuthCookies(c, secureCookies)
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "Logged out successfully"))
	}
}
