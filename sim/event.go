package sim

// Timer is a single callback scheduled on the virtual timeline.
// Timers are created by Simulator.After or Simulator.Settle and may be
// cancelled until they fire.
type Timer struct {
	at        float64 // virtual time the callback fires
	seq       uint64  // insertion order, deterministic tie-breaker
	late      bool    // runs after every ordinary timer of the same instant
	fn        func()
	fired     bool
	cancelled bool
}

// When returns the virtual time at which the timer fires.
func (t *Timer) When() float64 {
	return t.at
}

// Pending reports whether the timer has neither fired nor been cancelled.
func (t *Timer) Pending() bool {
	return t != nil && !t.fired && !t.cancelled
}

// Cancel stops the timer from firing. Returns false if the timer already
// fired or was cancelled before.
func (t *Timer) Cancel() bool {
	if !t.Pending() {
		return false
	}
	t.cancelled = true
	return true
}

// EventQueue implements heap.Interface and orders timers by fire time, then
// ordinary before late, then by scheduling order. Timers of the same class due
// at the same instant run first-scheduled-first.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type EventQueue []*Timer

func (eq EventQueue) Len() int { return len(eq) }

func (eq EventQueue) Less(i, j int) bool {
	if eq[i].at != eq[j].at {
		return eq[i].at < eq[j].at
	}
	if eq[i].late != eq[j].late {
		return !eq[i].late
	}
	return eq[i].seq < eq[j].seq
}

func (eq EventQueue) Swap(i, j int) { eq[i], eq[j] = eq[j], eq[i] }

func (eq *EventQueue) Push(x any) {
	*eq = append(*eq, x.(*Timer))
}

func (eq *EventQueue) Pop() any {
	old := *eq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*eq = old[0 : n-1]
	return item
}
