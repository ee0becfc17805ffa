package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/joshua-takyi/rsvpd/internal/metrics"
	"github.com/joshua-takyi/rsvpd/internal/models"
)

// ListQuery is a List request. View narrows to the requester's own events or
// the ones they attend, and needs RequesterID.
type ListQuery struct {
	Filter      models.EventFilter
	View        string
	RequesterID string
}

type EventService struct {
	events    models.EventsRepo
	locks     *EventLocks
	presenter *Presenter
	logger    *slog.Logger
	now       func() time.Time
}

func NewEventService(events models.EventsRepo, locks *EventLocks, presenter *Presenter, logger *slog.Logger) *EventService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventService{
		events:    events,
		locks:     locks,
		presenter: presenter,
		logger:    logger,
		now:       time.Now,
	}
}

func (es *EventService) CreateEvent(ctx context.Context, in *models.EventInput, ownerID string) (*models.EventView, error) {
	if ownerID == "" {
		return nil, models.ErrUnauthorized
	}
	in.Sanitize()
	if err := models.ValidateStruct(in); err != nil {
		return nil, err
	}

	now := es.now().UTC()
	ev := &models.Event{
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		Category:    in.Category,
		Date:        in.Date.UTC(),
		Capacity:    in.Capacity,
		ImageURL:    in.ImageURL,
		CreatedBy:   ownerID,
		Attendees:   []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	created, err := es.events.CreateEvent(ctx, ev)
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	es.logger.Info("event created", "event_id", created.ID.Hex(), "owner", ownerID)
	return es.presenter.View(ctx, created), nil
}

func (es *EventService) GetEvent(ctx context.Context, id string) (*models.EventView, error) {
	ev, err := es.events.GetEventByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return es.presenter.View(ctx, ev), nil
}

func (es *EventService) ListEvents(ctx context.Context, q ListQuery) ([]*models.EventView, error) {
	filter := q.Filter
	switch q.View {
	case models.ViewAll:
	case models.ViewMine, models.ViewAttending:
		if q.RequesterID == "" {
			return nil, fmt.Errorf("%w: view %q requires a signed in user", models.ErrUnauthorized, q.View)
		}
		if q.View == models.ViewMine {
			filter.CreatedBy = q.RequesterID
		} else {
			filter.Attendee = q.RequesterID
		}
	default:
		return nil, models.ValidationError("view must be one of [%s %s]", models.ViewMine, models.ViewAttending)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.To.Before(filter.From) {
		return nil, models.ValidationError("to must not be before from")
	}

	events, err := es.events.ListEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return es.presenter.Views(ctx, events), nil
}

// UpdateEvent applies the provided fields of up. It shares the per-event lock
// with joins so a capacity change cannot slip under a concurrent join.
func (es *EventService) UpdateEvent(ctx context.Context, id string, up *models.EventUpdate, requesterID string) (*models.EventView, error) {
	if requesterID == "" {
		return nil, models.ErrUnauthorized
	}
	up.Sanitize()
	if err := models.ValidateStruct(up); err != nil {
		return nil, err
	}

	key, err := models.CanonicalEventID(id)
	if err != nil {
		return nil, err
	}
	unlock := es.locks.Lock(key)
	defer unlock()

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		ev, err := es.events.GetEventByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if ev.CreatedBy != requesterID {
			return nil, models.ErrForbidden
		}

		next := ev.Clone()
		up.ApplyTo(next)
		if next.Capacity < len(next.Attendees) {
			return nil, models.ValidationError("capacity %d is below the current attendee count %d", next.Capacity, len(next.Attendees))
		}
		next.Date = next.Date.UTC()
		next.UpdatedAt = es.now().UTC()

		saved, err := es.events.ReplaceEvent(ctx, next, ev.Version)
		if errors.Is(err, models.ErrVersionConflict) {
			metrics.MembershipRetries.WithLabelValues(opUpdate).Inc()
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to update event: %w", err)
		}
		es.logger.Info("event updated", "event_id", id, "owner", requesterID)
		return es.presenter.View(ctx, saved), nil
	}
	return nil, models.ErrConflict
}

func (es *EventService) DeleteEvent(ctx context.Context, id, requesterID string) error {
	if requesterID == "" {
		return models.ErrUnauthorized
	}

	key, err := models.CanonicalEventID(id)
	if err != nil {
		return err
	}
	unlock := es.locks.Lock(key)
	defer unlock()

	ev, err := es.events.GetEventByID(ctx, id)
	if err != nil {
		return err
	}
	if ev.CreatedBy != requesterID {
		return models.ErrForbidden
	}
	if err := es.events.DeleteEvent(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete event: %w", err)
	}
	es.logger.Info("event deleted", "event_id", id, "owner", requesterID, "attendees", len(ev.Attendees))
	return nil
}
