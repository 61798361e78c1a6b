package sim

import "fmt"

type getRequest[T any] struct {
	n      int
	resume func([]T)
}

type putRequest[T any] struct {
	items  []T
	resume func()
}

// Store is a bounded buffer of discrete items with blocking get and put.
// Items leave in the order they arrived; blocked getters and putters are
// served first-come-first-served.
type Store[T any] struct {
	Name string

	// OnLevelChange, when set, observes the number of buffered items after
	// every add or remove.
	OnLevelChange func(level int)

	sim      *Simulator
	capacity int
	items    []T
	getters  []getRequest[T]
	putters  []putRequest[T]
}

// NewStore creates a store holding at most capacity items, pre-seeded with seed.
func NewStore[T any](sim *Simulator, name string, capacity int, seed []T) *Store[T] {
	if capacity < 0 {
		panic(fmt.Sprintf("NewStore %s: capacity must be non-negative, got %d", name, capacity))
	}
	if len(seed) > capacity {
		panic(fmt.Sprintf("NewStore %s: %d seed items exceed capacity %d", name, len(seed), capacity))
	}
	return &Store[T]{
		Name:     name,
		sim:      sim,
		capacity: capacity,
		items:    append(make([]T, 0, capacity), seed...),
	}
}

// Capacity returns the maximum number of buffered items.
func (s *Store[T]) Capacity() int {
	return s.capacity
}

// Level returns the number of buffered items.
func (s *Store[T]) Level() int {
	return len(s.items)
}

// Headroom returns how many more items fit right now.
func (s *Store[T]) Headroom() int {
	return s.capacity - len(s.items)
}

// GettersWaiting returns the number of blocked Get calls.
func (s *Store[T]) GettersWaiting() int {
	return len(s.getters)
}

// PuttersWaiting returns the number of blocked Put calls.
func (s *Store[T]) PuttersWaiting() int {
	return len(s.putters)
}

// Get removes n items and hands them to resume. If they are available and no
// earlier getter is waiting, resume runs synchronously; otherwise the call
// blocks and resume runs as its own turn once the items arrive. A request for
// more items than the capacity blocks forever.
func (s *Store[T]) Get(n int, resume func([]T)) {
	if n < 1 {
		panic(fmt.Sprintf("Store.Get %s: n must be positive, got %d", s.Name, n))
	}
	if resume == nil {
		panic(fmt.Sprintf("Store.Get %s: resume must not be nil", s.Name))
	}
	if len(s.getters) == 0 && len(s.items) >= n {
		got := s.take(n)
		s.settle()
		resume(got)
		return
	}
	s.getters = append(s.getters, getRequest[T]{n: n, resume: resume})
}

// Put adds items as one batch. If they fit and no earlier putter is waiting,
// they are added immediately and resume (which may be nil) runs synchronously;
// otherwise the call blocks until the whole batch fits.
func (s *Store[T]) Put(items []T, resume func()) {
	if len(items) > s.capacity {
		panic(fmt.Sprintf("Store.Put %s: batch of %d can never fit capacity %d", s.Name, len(items), s.capacity))
	}
	if len(s.putters) == 0 && len(s.items)+len(items) <= s.capacity {
		s.add(items)
		s.settle()
		if resume != nil {
			resume()
		}
		return
	}
	s.putters = append(s.putters, putRequest[T]{items: items, resume: resume})
}

// settle serves blocked getters and putters until neither can progress.
func (s *Store[T]) settle() {
	for progress := true; progress; {
		progress = false
		for len(s.getters) > 0 && len(s.items) >= s.getters[0].n {
			g := s.getters[0]
			s.getters = s.getters[1:]
			got := s.take(g.n)
			s.sim.After(0, func() { g.resume(got) })
			progress = true
		}
		for len(s.putters) > 0 && len(s.items)+len(s.putters[0].items) <= s.capacity {
			p := s.putters[0]
			s.putters = s.putters[1:]
			s.add(p.items)
			if p.resume != nil {
				s.sim.After(0, p.resume)
			}
			progress = true
		}
	}
}

func (s *Store[T]) take(n int) []T {
	got := make([]T, n)
	copy(got, s.items[:n])
	s.items = append(s.items[:0], s.items[n:]...)
	s.levelChanged()
	return got
}

func (s *Store[T]) add(items []T) {
	if len(s.items)+len(items) > s.capacity {
		panic(fmt.Sprintf("Store %s: level %d + %d exceeds capacity %d", s.Name, len(s.items), len(items), s.capacity))
	}
	s.items = append(s.items, items...)
	s.levelChanged()
}

func (s *Store[T]) levelChanged() {
	if s.OnLevelChange != nil {
		s.OnLevelChange(len(s.items))
	}
}
