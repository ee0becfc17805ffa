package container

import (
	"log/slog"

	"github.com/joshua-takyi/rsvpd/internal/config"
	"github.com/joshua-takyi/rsvpd/internal/helpers"
	"github.com/joshua-takyi/rsvpd/internal/middleware"
	"github.com/joshua-takyi/rsvpd/internal/models"
	"github.com/joshua-takyi/rsvpd/internal/services"
)

// Deps are the external collaborators the services run on. Uploader and
// Generator may be nil when the provider is not configured.
type Deps struct {
	Events    models.EventsRepo
	Directory models.UserDirectory
	Users     models.UserRepo
	Verifier  helpers.TokenVerifier
	Uploader  services.ImageUploader
	Generator services.TextGenerator
}

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logger   *slog.Logger
	Verifier helpers.TokenVerifier

	EventService      *services.EventService
	MembershipService *services.MembershipService
	UserService       *services.UserService
	MediaService      *services.MediaService
	EnhanceService    *services.EnhanceService
	EnhanceLimiter    *middleware.RateLimiter
}

// NewContainer creates a new dependency injection container
func NewContainer(cfg *config.Config, logger *slog.Logger, deps Deps) *Container {
	locks := services.NewEventLocks()
	presenter := services.NewPresenter(deps.Directory, logger)

	return &Container{
		Config:            cfg,
		Logger:            logger,
		Verifier:          deps.Verifier,
		EventService:      services.NewEventService(deps.Events, locks, presenter, logger),
		MembershipService: services.NewMembershipService(deps.Events, locks, presenter, logger),
		UserService:       services.NewUserService(deps.Users),
		MediaService:      services.NewMediaService(deps.Uploader, logger),
		EnhanceService:    services.NewEnhanceService(deps.Generator, logger),
		EnhanceLimiter:    middleware.NewRateLimiter(cfg.EnhancePerMinute),
	}
}

// Close stops background work owned by the container.
func (c *Container) Close() {
	c.EnhanceLimiter.Stop()
	if closer, ok := c.Verifier.(interface{ Close() }); ok {
		closer.Close()
	}
}
