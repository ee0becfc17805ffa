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

const (
	maxWriteAttempts = 5

	opJoin   = "join"
	opLeave  = "leave"
	opUpdate = "update"
)

// MembershipService owns the attendee list of every event. Joins for one event
// are serialized in process by EventLocks and across processes by the store's
// version check.
type MembershipService struct {
	events    models.EventsRepo
	locks     *EventLocks
	presenter *Presenter
	logger    *slog.Logger
	now       func() time.Time
}

func NewMembershipService(events models.EventsRepo, locks *EventLocks, presenter *Presenter, logger *slog.Logger) *MembershipService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MembershipService{
		events:    events,
		locks:     locks,
		presenter: presenter,
		logger:    logger,
		now:       time.Now,
	}
}

// Join adds userID to the event's attendees.
func (ms *MembershipService) Join(ctx context.Context, eventID, userID string) (*models.EventView, error) {
	ev, err := ms.join(ctx, eventID, userID)
	ms.record(opJoin, err)
	if err != nil {
		return nil, err
	}
	ms.logger.Info("joined event", "event_id", eventID, "user_id", userID, "attendees", len(ev.Attendees))
	return ms.presenter.View(ctx, ev), nil
}

func (ms *MembershipService) join(ctx context.Context, eventID, userID string) (*models.Event, error) {
	if userID == "" {
		return nil, models.ErrUnauthorized
	}

	key, err := models.CanonicalEventID(eventID)
	if err != nil {
		return nil, err
	}
	unlock := ms.locks.Lock(key)
	defer unlock()

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		ev, err := ms.events.GetEventByID(ctx, eventID)
		if err != nil {
			return nil, err
		}
		if ev.HasAttendee(userID) {
			return nil, models.ErrAlreadyMember
		}
		if ev.IsFull() {
			return nil, models.ErrCapacityExceeded
		}

		next := ev.Clone()
		next.Attendees = append(next.Attendees, userID)
		next.UpdatedAt = ms.now().UTC()

		saved, err := ms.events.ReplaceEvent(ctx, next, ev.Version)
		if errors.Is(err, models.ErrVersionConflict) {
			metrics.MembershipRetries.WithLabelValues(opJoin).Inc()
			ms.logger.Debug("join lost version race, re-reading", "event_id", eventID, "attempt", attempt)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save attendee: %w", err)
		}
		return saved, nil
	}
	return nil, models.ErrConflict
}

// Leave removes userID from the event's attendees. Leaving an event the user
// never joined succeeds without changing anything.
func (ms *MembershipService) Leave(ctx context.Context, eventID, userID string) (*models.EventView, error) {
	if userID == "" {
		ms.record(opLeave, models.ErrUnauthorized)
		return nil, models.ErrUnauthorized
	}

	ev, err := ms.events.RemoveAttendee(ctx, eventID, userID)
	ms.record(opLeave, err)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to remove attendee: %w", err)
	}
	ms.logger.Info("left event", "event_id", eventID, "user_id", userID, "attendees", len(ev.Attendees))
	return ms.presenter.View(ctx, ev), nil
}

func (ms *MembershipService) record(op string, err error) {
	metrics.MembershipOperations.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, models.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrAlreadyMember):
		return "already_member"
	case errors.Is(err, models.ErrCapacityExceeded):
		return "capacity_exceeded"
	case errors.Is(err, models.ErrConflict):
		return "conflict"
	case errors.Is(err, models.ErrUnauthorized):
		return "unauthorized"
	default:
		return "error"
	}
}
