// sim/simulator.go
package sim

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Simulator is the virtual-time event loop. It owns the clock and the event
// queue; every process in a model runs as callbacks scheduled here, one at a
// time, so shared state never needs locking.
//
// Thread-safety: NOT thread-safe. Must be driven from a single goroutine.
type Simulator struct {
	clock    float64
	queue    EventQueue
	nextSeq  uint64
	executed int64
	running  bool
}

// NewSimulator creates a simulator with the clock at zero and no pending events.
func NewSimulator() *Simulator {
	return &Simulator{
		queue: make(EventQueue, 0),
	}
}

// Now returns the current virtual time.
func (s *Simulator) Now() float64 {
	return s.clock
}

// Executed returns the number of callbacks run so far.
func (s *Simulator) Executed() int64 {
	return s.executed
}

// Pending returns the number of timers still queued, including cancelled
// timers that have not been drained yet.
func (s *Simulator) Pending() int {
	return len(s.queue)
}

// After schedules fn to run once d virtual-time units from now.
// A zero delay runs fn later in the current instant, after every ordinary
// callback already scheduled for this instant and before any Settle callback.
func (s *Simulator) After(d float64, fn func()) *Timer {
	if d < 0 || math.IsNaN(d) {
		panic(fmt.Sprintf("After: delay must be a non-negative number, got %v", d))
	}
	if fn == nil {
		panic("After: fn must not be nil")
	}
	return s.schedule(s.clock+d, false, fn)
}

// Settle schedules fn at the current instant, after every ordinary callback
// due now, including those scheduled by other callbacks of this instant.
// Settle callbacks of one instant run in scheduling order.
func (s *Simulator) Settle(fn func()) *Timer {
	if fn == nil {
		panic("Settle: fn must not be nil")
	}
	return s.schedule(s.clock, true, fn)
}

func (s *Simulator) schedule(at float64, late bool, fn func()) *Timer {
	s.nextSeq++
	t := &Timer{at: at, seq: s.nextSeq, late: late, fn: fn}
	heap.Push(&s.queue, t)
	return t
}

// RunUntil executes callbacks in timestamp order until the next callback is
// due strictly after horizon or the queue drains. On return the clock reads
// horizon, so time-weighted statistics cover the full run.
func (s *Simulator) RunUntil(horizon float64) {
	if s.running {
		panic("RunUntil: simulator is already running")
	}
	s.running = true
	defer func() { s.running = false }()

	logrus.Debugf("[t=%.3f] Running until %.3f with %d pending timers", s.clock, horizon, len(s.queue))
	for len(s.queue) > 0 {
		if s.queue[0].at > horizon {
			break
		}
		t := heap.Pop(&s.queue).(*Timer)
		if t.cancelled {
			continue
		}
		if t.at < s.clock {
			panic(fmt.Sprintf("Clock went backwards: %v < %v", t.at, s.clock))
		}
		s.clock = t.at
		t.fired = true
		s.executed++
		t.fn()
	}
	if horizon > s.clock {
		s.clock = horizon
	}
	logrus.Debugf("[t=%.3f] Run ended after %d callbacks", s.clock, s.executed)
}
