package game

import "time"

// Handle is a cancellable timer or subscription
type Handle interface {
	Stop() bool
}

// Scheduler runs fn once after d. Implementations must deliver fn on the
// same goroutine that mutates sessions.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Handle
}

// TimerRegistry owns every timer and subscription created during a
// session's life so they can be revoked together.
type TimerRegistry struct {
	scheduler Scheduler
	handles   map[uint64]Handle
	next      uint64
	closed    bool
}

// NewTimerRegistry creates a registry scheduling through s
func NewTimerRegistry(s Scheduler) *TimerRegistry {
	return &TimerRegistry{
		scheduler: s,
		handles:   make(map[uint64]Handle),
	}
}

type registeredHandle struct {
	registry *TimerRegistry
	id       uint64
	inner    Handle
}

func (h *registeredHandle) Stop() bool {
	delete(h.registry.handles, h.id)
	if h.inner == nil {
		return false
	}
	return h.inner.Stop()
}

// Register takes ownership of h. After Cleanup, h is stopped immediately.
func (r *TimerRegistry) Register(h Handle) Handle {
	if r.closed {
		h.Stop()
		return h
	}
	r.next++
	owned := &registeredHandle{registry: r, id: r.next, inner: h}
	r.handles[owned.id] = owned
	return owned
}

// Schedule runs fn after d unless the handle is stopped or the registry is
// cleaned up first.
func (r *TimerRegistry) Schedule(d time.Duration, fn func()) Handle {
	if r.closed {
		return stoppedHandle{}
	}
	r.next++
	owned := &registeredHandle{registry: r, id: r.next}
	r.handles[owned.id] = owned
	owned.inner = r.scheduler.AfterFunc(d, func() {
		if r.closed {
			return
		}
		if _, live := r.handles[owned.id]; !live {
			return
		}
		delete(r.handles, owned.id)
		fn()
	})
	return owned
}

// Len returns the number of live handles
func (r *TimerRegistry) Len() int {
	return len(r.handles)
}

// Closed reports whether Cleanup has run
func (r *TimerRegistry) Closed() bool {
	return r.closed
}

// Cleanup stops every live handle. Safe to call more than once.
func (r *TimerRegistry) Cleanup() {
	if r.closed {
		return
	}
	r.closed = true
	for id, h := range r.handles {
		delete(r.handles, id)
		if owned, ok := h.(*registeredHandle); ok && owned.inner != nil {
			owned.inner.Stop()
		}
	}
}

type stoppedHandle struct{}

func (stoppedHandle) Stop() bool { return false }
