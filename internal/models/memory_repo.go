package models

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-process EventsRepo and UserDirectory used by tests and
// by STORE_DRIVER=memory. It follows the same version rules as MongodbRepo.
type MemoryRepo struct {
	mu     sync.RWMutex
	events map[string]*Event
	users  map[string]UserSummary
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		events: make(map[string]*Event),
		users:  make(map[string]UserSummary),
	}
}

func (m *MemoryRepo) CreateEvent(ctx context.Context, event *Event) (*Event, error) {
	if err := event.BeforeCreate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[event.ID.Hex()] = event.Clone()
	return event.Clone(), nil
}

func (m *MemoryRepo) GetEventByID(ctx context.Context, id string) (*Event, error) {
	oid, err := parseEventID(id)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	ev, ok := m.events[oid.Hex()]
	if !ok {
		return nil, ErrNotFound
	}
	return ev.Clone(), nil
}

func (m *MemoryRepo) ListEvents(ctx context.Context, filter EventFilter) ([]*Event, error) {
	m.mu.RLock()
	out := []*Event{}
	for _, ev := range m.events {
		if filter.Matches(ev) {
			out = append(out, ev.Clone())
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].ID.Hex() < out[j].ID.Hex()
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (m *MemoryRepo) ReplaceEvent(ctx context.Context, event *Event, expectedVersion int64) (*Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := event.ID.Hex()
	current, ok := m.events[key]
	if !ok {
		return nil, ErrNotFound
	}
	if current.Version != expectedVersion {
		return nil, ErrVersionConflict
	}
	next := event.Clone()
	next.Version = expectedVersion + 1
	m.events[key] = next
	return next.Clone(), nil
}

func (m *MemoryRepo) RemoveAttendee(ctx context.Context, id, userID string) (*Event, error) {
	oid, err := parseEventID(id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ev, ok := m.events[oid.Hex()]
	if !ok {
		return nil, ErrNotFound
	}
	if !ev.HasAttendee(userID) {
		return ev.Clone(), nil
	}

	next := ev.Clone()
	kept := next.Attendees[:0]
	for _, a := range next.Attendees {
		if a != userID {
			kept = append(kept, a)
		}
	}
	next.Attendees = kept
	next.Version++
	next.UpdatedAt = time.Now().UTC()
	m.events[oid.Hex()] = next
	return next.Clone(), nil
}

func (m *MemoryRepo) DeleteEvent(ctx context.Context, id string) error {
	oid, err := parseEventID(id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[oid.Hex()]; !ok {
		return ErrNotFound
	}
	delete(m.events, oid.Hex())
	return nil
}

// PutUser registers a display summary returned by LookupUsers.
func (m *MemoryRepo) PutUser(u UserSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *MemoryRepo) LookupUsers(ctx context.Context, ids []string) (map[string]UserSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]UserSummary, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}
