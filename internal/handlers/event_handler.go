package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rsvpd/internal/middleware"
	"github.com/joshua-takyi/rsvpd/internal/models"
	"github.com/joshua-takyi/rsvpd/internal/services"
)

func CreateEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		var in models.EventInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request payload: "+err.Error()))
			return
		}

		view, err := es.CreateEvent(c.Request.Context(), &in, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(view, "event created"))
	}
}

func ListEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		from, err := parseDateParam(c.Query("from"), false)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("from: "+err.Error()))
			return
		}
		to, err := parseDateParam(c.Query("to"), true)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("to: "+err.Error()))
			return
		}

		q := services.ListQuery{
			Filter: models.EventFilter{
				Category: strings.ToLower(strings.TrimSpace(c.Query("category"))),
				From:     from,
				To:       to,
				Query:    c.Query("q"),
			},
			View: strings.ToLower(strings.TrimSpace(c.Query("view"))),
		}
		if user, ok := middleware.CurrentUser(c); ok {
			q.RequesterID = user.UserID
		}

		views, err := es.ListEvents(c.Request.Context(), q)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.EventListResponse(views))
	}
}

func GetEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := es.GetEvent(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(view, ""))
	}
}

func UpdateEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		var up models.EventUpdate
		if err := c.ShouldBindJSON(&up); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse("invalid request payload: "+err.Error()))
			return
		}

		view, err := es.UpdateEvent(c.Request.Context(), c.Param("id"), &up, userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(view, "event updated"))
	}
}

func DeleteEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUser(c)
		if !ok {
			return
		}

		if err := es.DeleteEvent(c.Request.Context(), c.Param("id"), userID); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "event deleted"))
	}
}

// parseDateParam accepts RFC 3339 timestamps or plain dates. A plain date used
// as an upper bound covers the whole day.
func parseDateParam(v string, endOfDay bool) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD or RFC 3339, got %q", v)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}
