package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rsvpd/internal/models"
	"github.com/joshua-takyi/rsvpd/internal/services"
)

func EnhanceDescription(es *services.EnhanceService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("title and description required"))
			return
		}

		res, err := es.Enhance(c.Request.Context(), req.Title, req.Description)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(res, res.Message))
	}
}
