package services

import (
	"context"
	"testing"
	"time"

	"github.com/joshua-takyi/rsvpd/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.repo.PutUser(models.UserSummary{ID: "owner", Name: "Olga", Email: "olga@example.com"})

	view, err := env.events.CreateEvent(ctx, &models.EventInput{
		Title:       "<i>Board</i> games",
		Description: "Bring snacks",
		Date:        time.Date(2026, 12, 1, 18, 0, 0, 0, time.UTC),
		Location:    "Library",
		Capacity:    8,
	}, "owner")
	require.NoError(t, err)

	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "Board games", view.Title)
	assert.Equal(t, models.DefaultCategory, view.Category)
	assert.Equal(t, "Olga", view.CreatedBy.Name)
	assert.Empty(t, view.Attendees)
	assert.Equal(t, 8, view.SpotsLeft)
}

func TestEventService_CreateEventValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.events.CreateEvent(context.Background(), &models.EventInput{Title: "Only a title"}, "owner")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = env.events.CreateEvent(context.Background(), &models.EventInput{
		Title:       "Meetup",
		Description: "d",
		Date:        time.Now(),
		Location:    "here",
		Capacity:    -1,
	}, "owner")
	assert.ErrorIs(t, err, models.ErrValidation)

	_, err = env.events.CreateEvent(context.Background(), &models.EventInput{Title: "Meetup"}, "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestEventService_GetEvent(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, "owner", 3)

	view, err := env.events.GetEvent(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, view.ID)

	_, err = env.events.GetEvent(context.Background(), primitive.NewObjectID().Hex())
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestEventService_ListEvents(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	mine := env.createEvent(t, "owner", 3)
	other := env.createEvent(t, "someone", 3)
	_, err := env.membership.Join(ctx, other, "owner")
	require.NoError(t, err)

	all, err := env.events.ListEvents(ctx, ListQuery{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	own, err := env.events.ListEvents(ctx, ListQuery{View: models.ViewMine, RequesterID: "owner"})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, mine, own[0].ID)

	attending, err := env.events.ListEvents(ctx, ListQuery{View: models.ViewAttending, RequesterID: "owner"})
	require.NoError(t, err)
	require.Len(t, attending, 1)
	assert.Equal(t, other, attending[0].ID)

	_, err = env.events.ListEvents(ctx, ListQuery{View: models.ViewMine})
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	_, err = env.events.ListEvents(ctx, ListQuery{View: "popular", RequesterID: "owner"})
	assert.ErrorIs(t, err, models.ErrValidation)

	now := time.Now()
	_, err = env.events.ListEvents(ctx, ListQuery{Filter: models.EventFilter{From: now, To: now.Add(-time.Hour)}})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestEventService_UpdateEvent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.createEvent(t, "owner", 3)
	_, err := env.membership.Join(ctx, id, "u1")
	require.NoError(t, err)
	_, err = env.membership.Join(ctx, id, "u2")
	require.NoError(t, err)

	before, err := env.repo.GetEventByID(ctx, id)
	require.NoError(t, err)

	_, err = env.events.UpdateEvent(ctx, id, &models.EventUpdate{Title: "Hijack", Capacity: 10}, "u1")
	assert.ErrorIs(t, err, models.ErrForbidden)

	after, err := env.repo.GetEventByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Jazz Night", after.Title)
	assert.Equal(t, 3, after.Capacity)
	assert.Equal(t, before.Version, after.Version, "a rejected update does not write")

	_, err = env.events.UpdateEvent(ctx, id, &models.EventUpdate{Capacity: 1}, "owner")
	assert.ErrorIs(t, err, models.ErrValidation, "capacity below attendee count")

	view, err := env.events.UpdateEvent(ctx, id, &models.EventUpdate{Title: "Late Jazz", Capacity: 2}, "owner")
	require.NoError(t, err)
	assert.Equal(t, "Late Jazz", view.Title)
	assert.Equal(t, 2, view.Capacity)
	assert.Equal(t, "Live quartet", view.Description, "omitted fields stay")
	assert.Equal(t, 2, view.AttendeeCount, "attendees are never touched by an update")

	view, err = env.events.UpdateEvent(ctx, id, &models.EventUpdate{Capacity: 0}, "owner")
	require.NoError(t, err)
	assert.Equal(t, 2, view.Capacity, "zero capacity means not provided")

	_, err = env.events.UpdateEvent(ctx, primitive.NewObjectID().Hex(), &models.EventUpdate{Title: "x"}, "owner")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestEventService_UpdateEventGivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	mem := models.NewMemoryRepo()
	created, err := mem.CreateEvent(ctx, &models.Event{Title: "Meetup", Capacity: 5, CreatedBy: "owner"})
	require.NoError(t, err)

	repo := &conflictRepo{EventsRepo: mem}
	svc := NewEventService(repo, NewEventLocks(), NewPresenter(nil, discardLogger()), discardLogger())

	_, err = svc.UpdateEvent(ctx, created.ID.Hex(), &models.EventUpdate{Title: "Renamed"}, "owner")
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, maxWriteAttempts, repo.replaceCalls)
}

func TestEventService_DeleteEvent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.createEvent(t, "owner", 3)
	_, err := env.membership.Join(ctx, id, "u1")
	require.NoError(t, err)

	assert.ErrorIs(t, env.events.DeleteEvent(ctx, id, "u1"), models.ErrForbidden)

	require.NoError(t, env.events.DeleteEvent(ctx, id, "owner"))

	_, err = env.events.GetEvent(ctx, id)
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = env.membership.Join(ctx, id, "u2")
	assert.ErrorIs(t, err, models.ErrNotFound)
	_, err = env.membership.Leave(ctx, id, "u1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}
