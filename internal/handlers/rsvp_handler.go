package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rsvpd/internal/models"
	"github.com/joshua-takyi/rsvpd/internal/services"
)

func JoinEvent(ms *services.MembershipService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		view, err := ms.Join(c.Request.Context(), c.Param("id"), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(view, "joined event"))
	}
}

func LeaveEvent(ms *services.MembershipService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		view, err := ms.Leave(c.Request.Context(), c.Param("id"), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(view, "left event"))
	}
}
