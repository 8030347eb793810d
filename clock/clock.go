package clock

import (
	"sort"
	"sync"
	"time"
)

// Clock is the time source of the engine. Deadlines of absolute timers are
// compared against Now, relative timers are armed at Now.
type Clock interface {
	Now() time.Time

	// After waits for the duration to elapse and then sends the current time on the returned channel
	After(d time.Duration) <-chan time.Time
}

// RealClock is a Clock backed by the system clock
type RealClock struct {
}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

// VirtualClock is a Clock that only moves when advanced, used for deterministic timer tests
type VirtualClock struct {
	mu      sync.Mutex
	current time.Time
	waiters []*waiter
}

type waiter struct {
	deadline time.Time
	ch       chan time.Time
}

func NewVirtualClock(start time.Time) *VirtualClock {
	return &VirtualClock{current: start}
}

func (v *VirtualClock) Now() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current
}

func (v *VirtualClock) After(d time.Duration) <-chan time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()

	w := &waiter{deadline: v.current.Add(d), ch: make(chan time.Time, 1)}
	if !w.deadline.After(v.current) {
		w.ch <- v.current
		return w.ch
	}

	v.waiters = append(v.waiters, w)
	return w.ch
}

// AdvanceTo moves the clock to the specified time, firing every After channel that came due.
// Time never moves backward.
func (v *VirtualClock) AdvanceTo(t time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if !t.After(v.current) {
		return
	}
	v.current = t
	v.fire()
}

// AdvanceBy moves the clock forward by the specified duration
func (v *VirtualClock) AdvanceBy(d time.Duration) {
	if d <= 0 {
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	v.current = v.current.Add(d)
	v.fire()
}

// Pending returns the number of After channels that have not fired yet
func (v *VirtualClock) Pending() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.waiters)
}

func (v *VirtualClock) fire() {
	sort.SliceStable(v.waiters, func(i, j int) bool {
		return v.waiters[i].deadline.Before(v.waiters[j].deadline)
	})

	remaining := v.waiters[:0]
	for _, w := range v.waiters {
		if w.deadline.After(v.current) {
			remaining = append(remaining, w)
			continue
		}
		w.ch <- v.current
	}
	v.waiters = remaining
}
