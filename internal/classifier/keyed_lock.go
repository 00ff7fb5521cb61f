package classifier

import (
	"context"
	"sync"
	"time"

	"github.com/mikey/mail-triage/internal/core"
)

// KeyedLock serializes the read-update-write of classifier state per
// (user, label) key. Corrections for different keys never contend.
type KeyedLock struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

// lockSlot is reference-counted so released, uncontended keys can be
// evicted; the map must not grow with the lifetime user population.
type lockSlot struct {
	ch   chan struct{}
	refs int
}

// NewKeyedLock creates an empty lock table.
func NewKeyedLock() *KeyedLock {
	return &KeyedLock{slots: make(map[string]*lockSlot)}
}

// Acquire takes the lock for a key, waiting at most wait. On success the
// returned func releases the lock. A timed-out acquire returns
// core.ErrLockTimeout so the caller can retry without losing the correction.
func (l *KeyedLock) Acquire(ctx context.Context, key string, wait time.Duration) (func(), error) {
	slot := l.retain(key)

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case slot.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-slot.ch
				l.release(key, slot)
			})
		}, nil
	case <-timer.C:
		l.release(key, slot)
		return nil, core.ErrLockTimeout
	case <-ctx.Done():
		l.release(key, slot)
		return nil, ctx.Err()
	}
}

func (l *KeyedLock) retain(key string) *lockSlot {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	return slot
}

func (l *KeyedLock) release(key string, slot *lockSlot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}
