package services

import "sync"

// EventLocks hands out one mutex per event id. Entries are dropped once no
// caller holds or waits on them.
type EventLocks struct {
	mu    sync.Mutex
	locks map[string]*eventLock
}

type eventLock struct {
	mu   sync.Mutex
	refs int
}

func NewEventLocks() *EventLocks {
	return &EventLocks{locks: make(map[string]*eventLock)}
}

// Lock blocks until the caller owns key and returns the matching unlock.
func (l *EventLocks) Lock(key string) func() {
	l.mu.Lock()
	el, ok := l.locks[key]
	if !ok {
		el = &eventLock{}
		l.locks[key] = el
	}
	el.refs++
	l.mu.Unlock()

	el.mu.Lock()
	return func() {
		el.mu.Unlock()
		l.mu.Lock()
		el.refs--
		if el.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

func (l *EventLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
