package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rsvpd/internal/models"
	"github.com/joshua-takyi/rsvpd/internal/services"
)

const multipartOverhead = 1 << 20

func UploadImage(ms *services.MediaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, services.MaxImageBytes+multipartOverhead)

		header, err := c.FormFile("image")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.JSON(http.StatusBadRequest, models.ErrorResponse("image exceeds 5 MiB"))
				return
			}
			c.JSON(http.StatusBadRequest, models.ErrorResponse("image file is required"))
			return
		}
		if header.Size > services.MaxImageBytes {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("image exceeds 5 MiB"))
			return
		}

		file, err := header.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer file.Close()

		url, err := ms.UploadEventImage(c.Request.Context(), file)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"imageUrl": url}, "image uploaded"))
	}
}
