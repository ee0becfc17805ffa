package routes

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/rsvpd/internal/container"
	"github.com/joshua-takyi/rsvpd/internal/handlers"
	"github.com/joshua-takyi/rsvpd/internal/metrics"
	"github.com/joshua-takyi/rsvpd/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures all routes with the dependency container
func SetupRoutes(container *container.Container) *gin.Engine {
	cfg := container.Config
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	secure := cfg.IsProduction()

	r := gin.New()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
	}))

	r.Use(middleware.RequestID())
	r.Use(middleware.StructuredLogger(container.Logger))
	r.Use(middleware.ErrorHandler(container.Logger))
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	requireAuth := middleware.Auth(container.Verifier, container.UserService, container.Logger, secure)
	optionalAuth := middleware.OptionalAuth(container.Verifier)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "OK",
				"service": "rsvpd",
			})
		})
	}

	auth := v1.Group("/auth")
	{
		auth.POST("/register", handlers.Register(container.UserService))
		auth.POST("/login", handlers.Login(container.UserService, secure))
		auth.POST("/logout", handlers.Logout(secure))
		auth.GET("/me", requireAuth, handlers.Me(container.UserService))
	}

	events := v1.Group("/events")
	{
		events.GET("", optionalAuth, handlers.ListEvents(container.EventService))
		events.GET("/:id", handlers.GetEvent(container.EventService))
		events.POST("", requireAuth, handlers.CreateEvent(container.EventService))
		events.PUT("/:id", requireAuth, handlers.UpdateEvent(container.EventService))
		events.DELETE("/:id", requireAuth, handlers.DeleteEvent(container.EventService))
	}

	rsvp := v1.Group("/rsvp", requireAuth)
	{
		rsvp.POST("/:id/join", handlers.JoinEvent(container.MembershipService))
		rsvp.POST("/:id/leave", handlers.LeaveEvent(container.MembershipService))
	}

	v1.POST("/upload", requireAuth, handlers.UploadImage(container.MediaService))
	v1.POST("/ai/enhance", requireAuth, container.EnhanceLimiter.Middleware(), handlers.EnhanceDescription(container.EnhanceService))

	return r
}
