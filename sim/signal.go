package sim

// Signal is a named broadcast condition. Processes park a continuation with
// Wait; Broadcast resumes every parked continuation at the current instant.
type Signal struct {
	Name    string
	sim     *Simulator
	waiters []func()
	fired   int
}

// NewSignal creates a signal bound to sim.
func NewSignal(sim *Simulator, name string) *Signal {
	return &Signal{Name: name, sim: sim}
}

// Wait parks resume until the next Broadcast.
func (s *Signal) Wait(resume func()) {
	if resume == nil {
		panic("Signal.Wait: resume must not be nil")
	}
	s.waiters = append(s.waiters, resume)
}

// Waiting returns the number of parked continuations.
func (s *Signal) Waiting() int {
	return len(s.waiters)
}

// Fired returns how many times the signal has been broadcast.
func (s *Signal) Fired() int {
	return s.fired
}

// Broadcast releases all current waiters and returns how many were released.
// The waiter list is detached before anything is scheduled, so none of the
// released continuations can run before the broadcasting turn completes and a
// continuation that waits again parks for the next broadcast.
func (s *Signal) Broadcast() int {
	released := s.waiters
	s.waiters = nil
	s.fired++
	for _, resume := range released {
		s.sim.After(0, resume)
	}
	return len(released)
}
