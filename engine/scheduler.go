package engine

import "sort"

// dueEpsilon absorbs float drift when summing frame deltas
const dueEpsilon = 1e-9

// TimerID identifies a scheduled callback
type TimerID uint64

// Timers schedules one-shot callbacks on the game clock
type Timers interface {
	After(delay float64, fn func()) TimerID
	Cancel(id TimerID) bool
}

type timer struct {
	id  TimerID
	due float64
	fn  func()
}

// Scheduler runs one-shot callbacks once the clock passes their due time.
// Callbacks run on the goroutine that calls Advance, in due order; timers
// with equal due times run in the order they were scheduled.
type Scheduler struct {
	now     float64
	nextID  TimerID
	pending []timer
}

// NewScheduler creates a scheduler with its clock at zero
func NewScheduler() *Scheduler {
	return &Scheduler{pending: make([]timer, 0, 8)}
}

// Now returns the scheduler clock in seconds
func (s *Scheduler) Now() float64 {
	return s.now
}

// Pending returns the number of timers not yet fired
func (s *Scheduler) Pending() int {
	return len(s.pending)
}

// After schedules fn to run delay seconds from now
func (s *Scheduler) After(delay float64, fn func()) TimerID {
	s.nextID++
	t := timer{id: s.nextID, due: s.now + delay, fn: fn}

	i := sort.Search(len(s.pending), func(i int) bool { return s.pending[i].due > t.due })
	s.pending = append(s.pending, timer{})
	copy(s.pending[i+1:], s.pending[i:])
	s.pending[i] = t
	return t.id
}

// Cancel removes a pending timer, returning false if it already fired
func (s *Scheduler) Cancel(id TimerID) bool {
	for i, t := range s.pending {
		if t.id == id {
			s.pending = append(s.pending[:i], s.pending[i+1:]...)
			return true
		}
	}
	return false
}

// Advance moves the clock forward by dt and runs every timer that became due.
// Returns the number of callbacks run.
func (s *Scheduler) Advance(dt float64) int {
	s.now += dt
	fired := 0
	for len(s.pending) > 0 && s.pending[0].due <= s.now+dueEpsilon {
		t := s.pending[0]
		s.pending = s.pending[1:]
		t.fn()
		fired++
	}
	return fired
}

// Clear drops all pending timers without running them
func (s *Scheduler) Clear() {
	s.pending = s.pending[:0]
}
