// Package kernel implements the virtual-time cooperative scheduler: a
// single logical executor with a FIFO ready queue, a time-ordered timer
// queue, and one-shot event subscriptions. Everything in this package is
// single-threaded by construction — see Task for how that is enforced even
// though tasks are implemented as goroutines.
package kernel

import (
	"container/heap"
	"errors"
)

// TimePoint is virtual time, in milliseconds, starting at 0 for a fresh
// Scheduler.
type TimePoint int64

// EventID identifies a well-known event. See the model package for the
// registry of ids used by the domain subsystems.
type EventID int64

// ErrSchedulerClosed reports use of a closed scheduler. Scheduler has no
// Close operation, and no function in this package returns this error.
var ErrSchedulerClosed = errors.New("kernel: scheduler is closed")

// continuation is either a suspended task plus the value it should be
// resumed with (nil for a timer-fired resume), or a bare callback for the
// generic schedule(k) primitive of spec.md §4.1.
type continuation struct {
	task    *Task
	payload any
	fn      func()
}

// subscription pairs a one-shot waiter with the event it is waiting for.
type subscription struct {
	task *Task
}

// timerEntry is a single pending delay, ordered by deadline and, for equal
// deadlines, by insertion order (seq) to keep timer migration deterministic.
type timerEntry struct {
	deadline TimePoint
	seq      uint64
	cont     continuation
}

type timerHeap []timerEntry

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].seq < h[j].seq
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(timerEntry)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Scheduler owns virtual time and drives every Task spawned under it.
//
// Scheduler is not safe for concurrent use: exactly one goroutine — either
// the caller driving RunOneStep/RunUntil/Trigger, or a Task mid-resume — may
// touch a Scheduler at any instant. That single-logical-thread invariant is
// what lets the rest of this module (the registry, protection engine, VPP
// controller) skip all locking, per spec §5.
type Scheduler struct { //nolint:govet
	now     TimePoint
	ready   []continuation
	timers  timerHeap
	subs    map[EventID][]subscription
	timerSeq uint64
	closed  bool
}

// New returns a Scheduler with virtual time starting at 0.
func New() *Scheduler {
	return &Scheduler{
		subs: make(map[EventID][]subscription),
	}
}

// Now returns the scheduler's current virtual time.
func (s *Scheduler) Now() TimePoint { return s.now }

// SetTime forces the scheduler's clock. Not used by the core subsystems; it
// exists because spec.md §4.1 requires it, e.g. for test setup.
func (s *Scheduler) SetTime(t TimePoint) { s.now = t }

// AdvanceTime moves the clock forward by delta (delta may be negative; the
// core never does this, but spec.md does not require rejecting it).
func (s *Scheduler) AdvanceTime(delta TimePoint) { s.now += delta }

// Schedule appends a bare callback to the ready queue, to run on a later
// RunOneStep/RunUntil drain. Exposed for completeness with spec.md §4.1; the
// domain subsystems in this module reach virtual-time suspension exclusively
// through Task/TaskContext, never through a raw Schedule callback.
func (s *Scheduler) Schedule(fn func()) {
	s.ready = append(s.ready, continuation{fn: fn})
}

// RunOneStep performs one scheduler step per spec.md §4.1:
//   - if the ready queue is non-empty, pop and resume exactly one continuation;
//   - else if any timer is pending, jump `now` to the earliest deadline and
//     migrate every timer due at or before that deadline into the ready queue;
//   - otherwise there is nothing to do.
//
// It returns whether any work was performed.
func (s *Scheduler) RunOneStep() bool {
	if len(s.ready) > 0 {
		c := s.ready[0]
		s.ready = s.ready[1:]
		s.resumeContinuation(c)
		return true
	}
	if len(s.timers) > 0 {
		s.now = s.timers[0].deadline
		s.migrateDueTimers()
		return true
	}
	return false
}

// RunUntil drains the ready queue and migrates due timers until virtual
// time reaches end, per spec.md §4.1's determinism contract: ready tasks at
// the current `now` are always fully drained before any time jump.
func (s *Scheduler) RunUntil(end TimePoint) {
	for {
		for len(s.ready) > 0 {
			c := s.ready[0]
			s.ready = s.ready[1:]
			s.resumeContinuation(c)
		}
		if len(s.timers) > 0 && s.timers[0].deadline < end {
			s.now = s.timers[0].deadline
			s.migrateDueTimers()
			continue
		}
		s.now = end
		return
	}
}

func (s *Scheduler) migrateDueTimers() {
	for len(s.timers) > 0 && s.timers[0].deadline <= s.now {
		e := heap.Pop(&s.timers).(timerEntry)
		s.ready = append(s.ready, e.cont)
	}
}

// Trigger delivers payload to every task currently subscribed to id, in
// subscription order, then clears that subscription list. Subscriptions
// registered by a sink while it runs are not notified by this call — see
// spec.md §4.1's determinism contract.
func (s *Scheduler) Trigger(id EventID, payload any) {
	subs := s.subs[id]
	delete(s.subs, id)
	for _, sub := range subs {
		s.resume(sub.task, payload)
	}
}

// TriggerEmpty is Trigger for events with no payload (e.g. GeneratorReady).
func (s *Scheduler) TriggerEmpty(id EventID) {
	s.Trigger(id, nil)
}

func (s *Scheduler) resumeContinuation(c continuation) {
	if c.task == nil {
		if c.fn != nil {
			c.fn()
		}
		return
	}
	s.resume(c.task, c.payload)
}

// resume hands payload to t and drives it until its next suspension or
// completion.
func (s *Scheduler) resume(t *Task, payload any) {
	if t.isDone() {
		return
	}
	t.resumeCh <- payload
	s.awaitYield(t)
}

// awaitYield blocks until t next suspends (or finishes) and wires the
// resulting request into the scheduler's ready/timer/subscription state.
func (s *Scheduler) awaitYield(t *Task) {
	req := <-t.yieldCh
	switch req.kind {
	case yieldDone:
		t.markDone()
	case yieldDelay:
		delay := req.delay
		if delay < 0 {
			delay = 0
		}
		s.timerSeq++
		heap.Push(&s.timers, timerEntry{
			deadline: s.now + delay,
			seq:      s.timerSeq,
			cont:     continuation{task: t},
		})
	case yieldEvent:
		s.subs[req.eventID] = append(s.subs[req.eventID], subscription{task: t})
	}
}

// Spawn starts fn eagerly — it runs up to its first suspension point or
// completion before Spawn returns, matching spec.md §4.2's "initial-suspend
// is do-not-suspend" contract.
func (s *Scheduler) Spawn(fn func(tc *TaskContext)) *Task {
	return s.spawnRaw(fn)
}

func (s *Scheduler) spawnRaw(fn func(tc *TaskContext)) *Task {
	t := newTask()
	go t.run(fn)
	s.awaitYield(t)
	return t
}
