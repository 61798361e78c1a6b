package fleet

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fleetsim/fleetsim/sim"
)

// SpareUnit is one replacement drive. Immutable once manufactured.
type SpareUnit struct {
	Capacity float64 // TB
}

// ReplenishmentBuffer is the stock room: a bounded pool of spares that
// devices draw from and the restocker refills.
//
// Devices acquire spares first-requested-first-served; units leave in the
// order they were delivered.
type ReplenishmentBuffer struct {
	store *sim.Store[SpareUnit]
}

// NewReplenishmentBuffer creates a buffer of the given capacity pre-seeded
// with onHand units of initialCapacity TB.
func NewReplenishmentBuffer(s *sim.Simulator, capacity, onHand int, initialCapacity float64) *ReplenishmentBuffer {
	seed := make([]SpareUnit, onHand)
	for i := range seed {
		seed[i] = SpareUnit{Capacity: initialCapacity}
	}
	return &ReplenishmentBuffer{
		store: sim.NewStore(s, "stock-room", capacity, seed),
	}
}

// Capacity returns the buffer size.
func (b *ReplenishmentBuffer) Capacity() int {
	return b.store.Capacity()
}

// Occupancy returns the number of spares on the shelf.
func (b *ReplenishmentBuffer) Occupancy() int {
	return b.store.Level()
}

// Headroom returns how many spares can be delivered right now.
func (b *ReplenishmentBuffer) Headroom() int {
	return b.store.Headroom()
}

// Waiting returns the number of devices blocked on an empty shelf.
func (b *ReplenishmentBuffer) Waiting() int {
	return b.store.GettersWaiting()
}

// Acquire takes one spare, blocking while the shelf is empty.
func (b *ReplenishmentBuffer) Acquire(resume func(SpareUnit)) {
	b.store.Get(1, func(units []SpareUnit) {
		resume(units[0])
	})
}

// Restock adds a delivery in one step. Delivering more than the current
// headroom is an internal-consistency error: the restocker must only ever
// order exactly the headroom.
func (b *ReplenishmentBuffer) Restock(units []SpareUnit) {
	if len(units) > b.store.Headroom() {
		panic(fmt.Sprintf("Restock: delivery of %d exceeds headroom %d (occupancy %d, capacity %d)",
			len(units), b.store.Headroom(), b.store.Level(), b.store.Capacity()))
	}
	if len(units) == 0 {
		return
	}
	b.store.Put(units, nil)
}

// Return shelves an unused spare, blocking until there is room for it.
func (b *ReplenishmentBuffer) Return(u SpareUnit, resume func()) {
	if b.store.Capacity() == 0 {
		logrus.Debugf("Return: zero-capacity buffer, discarding %.2f TB spare", u.Capacity)
		resume()
		return
	}
	b.store.Put([]SpareUnit{u}, resume)
}

// observe wires occupancy changes into fn.
func (b *ReplenishmentBuffer) observe(fn func(level int)) {
	b.store.OnLevelChange = fn
}
