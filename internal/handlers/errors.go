package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rsvpd/internal/middleware"
	"github.com/joshua-takyi/rsvpd/internal/models"
)

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, models.ErrAlreadyMember),
		errors.Is(err, models.ErrCapacityExceeded),
		errors.Is(err, models.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, models.ErrUploadFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the envelope for err. Internal and upstream failures are
// attached to the context for ErrorHandler to log and answered generically.
func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	switch status {
	case http.StatusInternalServerError:
		_ = c.Error(err)
		c.JSON(status, models.InternalErrorResponse(c.GetString("request_id")))
	case http.StatusBadGateway:
		_ = c.Error(err)
		c.JSON(status, models.ErrorResponse(models.ErrUploadFailed.Error()))
	default:
		c.JSON(status, models.ErrorResponse(err.Error()))
	}
}

// requireUser returns the caller's id or writes a 401.
func requireUser(c *gin.Context) (string, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok || user.UserID == "" {
		c.JSON(http.StatusUnauthorized, models.UnauthorizedResponse("unauthorized"))
		return "", false
	}
	return user.UserID, true
}
