package fleet

import (
	"github.com/fleetsim/fleetsim/sim"
)

// RepairTeam is the single technician all devices queue for. Requests are
// served by descending priority, counting every device that asked within the
// same instant, and a higher-priority device interrupts a lower-priority
// repair already in progress.
type RepairTeam struct {
	res *sim.Resource
}

// NewRepairTeam creates a one-technician, preemptive repair team.
func NewRepairTeam(s *sim.Simulator) *RepairTeam {
	return &RepairTeam{
		res: sim.NewResource(s, "maintenance", 1, true),
	}
}

// Request queues a device at the given priority. granted runs every time the
// technician is assigned, never before the current instant settles;
// preempted runs when an active repair is interrupted.
func (t *RepairTeam) Request(priority int, granted, preempted func(*sim.Claim)) *sim.Claim {
	return t.res.Request(priority, granted, preempted)
}

// Release frees the technician. Releasing a claim that does not hold the
// technician panics.
func (t *RepairTeam) Release(c *sim.Claim) {
	t.res.Release(c)
}

// QueueLen returns the number of devices waiting for the technician.
func (t *RepairTeam) QueueLen() int {
	return t.res.QueueLen()
}

// Busy reports whether the technician is assigned.
func (t *RepairTeam) Busy() bool {
	return t.res.InUse() > 0
}

// observe wires queue-length changes into fn.
func (t *RepairTeam) observe(fn func(length int)) {
	t.res.OnQueueChange = fn
}
