package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventLocks_SerializesSameKey(t *testing.T) {
	locks := NewEventLocks()

	var (
		wg      sync.WaitGroup
		inside  int
		maxSeen int
		mu      sync.Mutex
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock("event-1")
			defer unlock()

			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			mu.Lock()
			inside--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen)
	assert.Equal(t, 0, locks.size(), "released keys must be dropped")
}

func TestEventLocks_DifferentKeysDoNotBlock(t *testing.T) {
	locks := NewEventLocks()

	unlockA := locks.Lock("a")
	done := make(chan struct{})
	go func() {
		unlockB := locks.Lock("b")
		unlockB()
		close(done)
	}()
	<-done
	unlockA()

	assert.Equal(t, 0, locks.size())
}
