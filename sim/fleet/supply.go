package fleet

import (
	"github.com/sirupsen/logrus"

	"github.com/fleetsim/fleetsim/sim"
	"github.com/fleetsim/fleetsim/sim/trace"
)

// CapacityUpgrader raises the capacity of future spares on a fixed period.
type CapacityUpgrader struct {
	sim       *sim.Simulator
	state     *State
	period    float64
	increment float64
	trace     *trace.SimulationTrace
	ticks     int
}

// NewCapacityUpgrader creates an upgrader. A zero period disables it.
func NewCapacityUpgrader(s *sim.Simulator, state *State, period, increment float64, tr *trace.SimulationTrace) *CapacityUpgrader {
	return &CapacityUpgrader{sim: s, state: state, period: period, increment: increment, trace: tr}
}

// Start schedules the first tick.
func (u *CapacityUpgrader) Start() {
	if u.period <= 0 {
		logrus.Warnf("Capacity upgrades disabled (period %v)", u.period)
		return
	}
	u.sim.After(u.period, u.tick)
}

// Ticks returns how many upgrades have happened.
func (u *CapacityUpgrader) Ticks() int {
	return u.ticks
}

func (u *CapacityUpgrader) tick() {
	u.ticks++
	u.state.UpgradeSize += u.increment
	logrus.Infof("[t=%.1f] Spare capacity upgraded to %.2f TB", u.sim.Now(), u.state.UpgradeSize)
	if u.trace != nil {
		u.trace.RecordUpgrade(trace.UpgradeRecord{Time: u.sim.Now(), Size: u.state.UpgradeSize})
	}
	u.sim.After(u.period, u.tick)
}

// Restocker refills the stock room to capacity on a fixed period, stamping
// every new spare with the current upgrade size. It is the buffer's only
// scheduled writer.
type Restocker struct {
	sim       *sim.Simulator
	state     *State
	buffer    *ReplenishmentBuffer
	period    float64
	trace     *trace.SimulationTrace
	ticks     int
	delivered int
}

// NewRestocker creates a restocker. A zero period disables it.
func NewRestocker(s *sim.Simulator, state *State, buffer *ReplenishmentBuffer, period float64, tr *trace.SimulationTrace) *Restocker {
	return &Restocker{sim: s, state: state, buffer: buffer, period: period, trace: tr}
}

// Start schedules the first tick.
func (r *Restocker) Start() {
	if r.period <= 0 {
		logrus.Warnf("Restocking disabled (period %v)", r.period)
		return
	}
	r.sim.After(r.period, r.tick)
}

// Delivered returns the total number of spares delivered.
func (r *Restocker) Delivered() int {
	return r.delivered
}

// Ticks returns how many restock cycles have run.
func (r *Restocker) Ticks() int {
	return r.ticks
}

func (r *Restocker) tick() {
	r.ticks++
	r.Restock()
	r.sim.After(r.period, r.tick)
}

// Restock orders exactly the current headroom. It returns the number of
// spares delivered; a full buffer is left untouched.
func (r *Restocker) Restock() int {
	headroom := r.buffer.Headroom()
	if headroom <= 0 {
		return 0
	}
	order := make([]SpareUnit, headroom)
	for i := range order {
		order[i] = SpareUnit{Capacity: r.state.UpgradeSize}
	}
	r.buffer.Restock(order)
	r.delivered += headroom
	logrus.Debugf("[t=%.1f] Delivered %d spares of %.2f TB", r.sim.Now(), headroom, r.state.UpgradeSize)
	if r.trace != nil {
		r.trace.RecordRestock(trace.RestockRecord{
			Time:         r.sim.Now(),
			Units:        headroom,
			UnitCapacity: r.state.UpgradeSize,
			Level:        r.buffer.Occupancy(),
		})
	}
	return headroom
}
