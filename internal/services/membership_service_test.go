package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joshua-takyi/rsvpd/internal/metrics"
	"github.com/joshua-takyi/rsvpd/internal/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestMembershipService_Join(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.repo.PutUser(models.UserSummary{ID: "u1", Name: "Ann", Email: "ann@example.com"})
	id := env.createEvent(t, "owner", 2)

	view, err := env.membership.Join(ctx, id, "u1")
	require.NoError(t, err)
	require.Len(t, view.Attendees, 1)
	assert.Equal(t, "Ann", view.Attendees[0].Name)
	assert.Equal(t, 1, view.SpotsLeft)

	_, err = env.membership.Join(ctx, id, "u1")
	assert.ErrorIs(t, err, models.ErrAlreadyMember)

	_, err = env.membership.Join(ctx, id, "owner")
	require.NoError(t, err, "the owner joins like anyone else")

	_, err = env.membership.Join(ctx, id, "u3")
	assert.ErrorIs(t, err, models.ErrCapacityExceeded)

	stored, err := env.repo.GetEventByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "owner"}, stored.Attendees)
}

func TestMembershipService_JoinMissingEvent(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.membership.Join(context.Background(), primitive.NewObjectID().Hex(), "u1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = env.membership.Join(context.Background(), "bogus", "u1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMembershipService_JoinRequiresUser(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEvent(t, "owner", 2)

	_, err := env.membership.Join(context.Background(), id, "")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestMembershipService_ConcurrentJoinsLastSlot(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.createEvent(t, "owner", 1)

	const joiners = 25
	errs := make([]error, joiners)
	var wg sync.WaitGroup
	for i := range joiners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.membership.Join(ctx, id, fmt.Sprintf("user-%d", i))
		}()
	}
	wg.Wait()

	ok, full := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, models.ErrCapacityExceeded):
			full++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, joiners-1, full)

	stored, err := env.repo.GetEventByID(ctx, id)
	require.NoError(t, err)
	assert.Len(t, stored.Attendees, 1)
}

// Two services with separate lock tables share one store, the way two API
// processes share one database. The version check alone keeps the cap.
func TestMembershipService_ConcurrentJoinsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	repo := models.NewMemoryRepo()
	a := NewMembershipService(repo, NewEventLocks(), NewPresenter(repo, discardLogger()), discardLogger())
	b := NewMembershipService(repo, NewEventLocks(), NewPresenter(repo, discardLogger()), discardLogger())

	created, err := repo.CreateEvent(ctx, &models.Event{Title: "Meetup", Capacity: 1, CreatedBy: "owner"})
	require.NoError(t, err)
	id := created.ID.Hex()

	const perInstance = 10
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := range perInstance * 2 {
		svc := a
		if i%2 == 1 {
			svc = b
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Join(ctx, id, fmt.Sprintf("user-%d", i))
			if err == nil {
				mu.Lock()
				success++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, models.ErrCapacityExceeded)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	stored, err := repo.GetEventByID(ctx, id)
	require.NoError(t, err)
	assert.Len(t, stored.Attendees, 1)
}

func TestMembershipService_JoinGivesUpAfterRepeatedConflicts(t *testing.T) {
	ctx := context.Background()
	mem := models.NewMemoryRepo()
	created, err := mem.CreateEvent(ctx, &models.Event{Title: "Meetup", Capacity: 5})
	require.NoError(t, err)

	repo := &conflictRepo{EventsRepo: mem}
	svc := NewMembershipService(repo, NewEventLocks(), NewPresenter(nil, discardLogger()), discardLogger())

	before := testutil.ToFloat64(metrics.MembershipOperations.WithLabelValues(opJoin, "conflict"))
	_, err = svc.Join(ctx, created.ID.Hex(), "u1")
	assert.ErrorIs(t, err, models.ErrConflict)
	assert.Equal(t, maxWriteAttempts, repo.replaceCalls)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.MembershipOperations.WithLabelValues(opJoin, "conflict")))
}

func TestMembershipService_Leave(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.createEvent(t, "owner", 3)

	_, err := env.membership.Join(ctx, id, "u1")
	require.NoError(t, err)
	_, err = env.membership.Join(ctx, id, "u2")
	require.NoError(t, err)

	view, err := env.membership.Leave(ctx, id, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, view.AttendeeCount)
	assert.Equal(t, "u2", view.Attendees[0].ID)

	view, err = env.membership.Leave(ctx, id, "u1")
	require.NoError(t, err, "leaving twice is a no-op")
	assert.Equal(t, 1, view.AttendeeCount)

	_, err = env.membership.Leave(ctx, primitive.NewObjectID().Hex(), "u1")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestMembershipService_JoinThenLeaveRestoresAttendees(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.createEvent(t, "owner", 4)
	_, err := env.membership.Join(ctx, id, "u1")
	require.NoError(t, err)

	before, err := env.repo.GetEventByID(ctx, id)
	require.NoError(t, err)

	_, err = env.membership.Join(ctx, id, "u2")
	require.NoError(t, err)
	_, err = env.membership.Leave(ctx, id, "u2")
	require.NoError(t, err)

	after, err := env.repo.GetEventByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, before.Attendees, after.Attendees)
}

func TestMembershipService_RecordsOutcomes(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.createEvent(t, "owner", 1)

	counter := func(op, outcome string) float64 {
		return testutil.ToFloat64(metrics.MembershipOperations.WithLabelValues(op, outcome))
	}
	okBefore := counter(opJoin, "ok")
	fullBefore := counter(opJoin, "capacity_exceeded")
	leaveBefore := counter(opLeave, "ok")

	_, err := env.membership.Join(ctx, id, "u1")
	require.NoError(t, err)
	_, err = env.membership.Join(ctx, id, "u2")
	require.Error(t, err)
	_, err = env.membership.Leave(ctx, id, "u1")
	require.NoError(t, err)

	assert.Equal(t, okBefore+1, counter(opJoin, "ok"))
	assert.Equal(t, fullBefore+1, counter(opJoin, "capacity_exceeded"))
	assert.Equal(t, leaveBefore+1, counter(opLeave, "ok"))
}

func TestPresenter_DegradesWhenDirectoryFails(t *testing.T) {
	ctx := context.Background()
	repo := models.NewMemoryRepo()
	created, err := repo.CreateEvent(ctx, &models.Event{Title: "Meetup", Capacity: 2, CreatedBy: "owner", Attendees: []string{"u1"}})
	require.NoError(t, err)

	view := NewPresenter(failingDirectory{}, discardLogger()).View(ctx, created)
	assert.Equal(t, models.UserSummary{ID: "owner"}, view.CreatedBy)
	assert.Equal(t, []models.UserSummary{{ID: "u1"}}, view.Attendees)
}

// Spellings of the same id share one lock entry, so a join through any of
// them waits for the holder.
func TestMembershipService_JoinLocksCanonicalID(t *testing.T) {
	ctx := context.Background()
	repo := models.NewMemoryRepo()
	locks := NewEventLocks()
	events := NewEventService(repo, locks, NewPresenter(repo, discardLogger()), discardLogger())
	membership := NewMembershipService(repo, locks, NewPresenter(repo, discardLogger()), discardLogger())

	created, err := events.CreateEvent(ctx, &models.EventInput{
		Title:       "Jazz Night",
		Description: "Live quartet",
		Date:        time.Date(2026, 11, 2, 19, 0, 0, 0, time.UTC),
		Location:    "Park",
		Capacity:    1,
	}, "owner")
	require.NoError(t, err)

	unlock := locks.Lock(created.ID)
	done := make(chan error, 1)
	go func() {
		_, err := membership.Join(ctx, " "+strings.ToUpper(created.ID), "u1")
		done <- err
	}()

	select {
	case err := <-done:
		t.Fatalf("join finished while the event was locked: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
	unlock()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("join never acquired the lock")
	}
	assert.Equal(t, 0, locks.size())
}

func TestMembershipService_ConcurrentJoinsMixedIDSpellings(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	id := env.createEvent(t, "owner", 1)
	spellings := []string{id, strings.ToUpper(id), " " + id}
	retriesBefore := testutil.ToFloat64(metrics.MembershipRetries.WithLabelValues(opJoin))

	const joiners = 30
	errs := make([]error, joiners)
	var wg sync.WaitGroup
	for i := range joiners {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = env.membership.Join(ctx, spellings[i%len(spellings)], fmt.Sprintf("user-%d", i))
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, models.ErrCapacityExceeded)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, retriesBefore, testutil.ToFloat64(metrics.MembershipRetries.WithLabelValues(opJoin)), "joins serialize on one lock")
}
