package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/joshua-takyi/rsvpd/internal/models"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	repo       *models.MemoryRepo
	events     *EventService
	membership *MembershipService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo := models.NewMemoryRepo()
	locks := NewEventLocks()
	presenter := NewPresenter(repo, discardLogger())
	return &testEnv{
		repo:       repo,
		events:     NewEventService(repo, locks, presenter, discardLogger()),
		membership: NewMembershipService(repo, locks, presenter, discardLogger()),
	}
}

func (env *testEnv) createEvent(t *testing.T, owner string, capacity int) string {
	t.Helper()
	view, err := env.events.CreateEvent(context.Background(), &models.EventInput{
		Title:       "Jazz Night",
		Description: "Live quartet",
		Date:        time.Date(2026, 11, 2, 19, 0, 0, 0, time.UTC),
		Location:    "Park",
		Capacity:    capacity,
		Category:    "music",
	}, owner)
	require.NoError(t, err)
	return view.ID
}

// failingDirectory is a UserDirectory whose lookups always fail.
type failingDirectory struct{}

func (failingDirectory) LookupUsers(context.Context, []string) (map[string]models.UserSummary, error) {
	return nil, errBoom
}

// conflictRepo never lets a versioned write through.
type conflictRepo struct {
	models.EventsRepo
	replaceCalls int
}

func (r *conflictRepo) ReplaceEvent(ctx context.Context, ev *models.Event, expected int64) (*models.Event, error) {
	r.replaceCalls++
	return nil, models.ErrVersionConflict
}
