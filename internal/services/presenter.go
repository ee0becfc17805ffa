package services

import (
	"context"
	"log/slog"

	"github.com/joshua-takyi/rsvpd/internal/models"
)

// Presenter turns stored events into their display form. A failing or absent
// directory degrades to bare ids rather than failing the request.
type Presenter struct {
	users  models.UserDirectory
	logger *slog.Logger
}

func NewPresenter(users models.UserDirectory, logger *slog.Logger) *Presenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Presenter{users: users, logger: logger}
}

func (p *Presenter) View(ctx context.Context, ev *models.Event) *models.EventView {
	return models.NewEventView(ev, p.lookup(ctx, []*models.Event{ev}))
}

func (p *Presenter) Views(ctx context.Context, events []*models.Event) []*models.EventView {
	users := p.lookup(ctx, events)
	views := make([]*models.EventView, 0, len(events))
	for _, ev := range events {
		views = append(views, models.NewEventView(ev, users))
	}
	return views
}

func (p *Presenter) lookup(ctx context.Context, events []*models.Event) map[string]models.UserSummary {
	if p.users == nil {
		return nil
	}

	seen := make(map[string]struct{})
	ids := []string{}
	add := func(id string) {
		if id == "" {
			return
		}
		if _, ok := seen[id]; ok {
			return
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	for _, ev := range events {
		add(ev.CreatedBy)
		for _, a := range ev.Attendees {
			add(a)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	users, err := p.users.LookupUsers(ctx, ids)
	if err != nil {
		p.logger.Warn("user lookup failed, returning ids only", "ids", len(ids), "error", err)
		return nil
	}
	return users
}
