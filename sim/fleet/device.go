package fleet

import (
	"github.com/sirupsen/logrus"

	"github.com/fleetsim/fleetsim/sim"
	"github.com/fleetsim/fleetsim/sim/trace"
)

// Sampler draws one value from a distribution. gonum's distuv types satisfy it.
type Sampler interface {
	Rand() float64
}

// DevicePhase names where a device is in its failure/repair cycle.
type DevicePhase string

const (
	PhaseOperational    DevicePhase = "operational"
	PhaseFailedWaiting  DevicePhase = "failed-waiting"
	PhaseAcquiringSpare DevicePhase = "acquiring-spare"
	PhaseQueued         DevicePhase = "queued-for-repair"
	PhaseInRepair       DevicePhase = "in-repair"
	PhaseReturningSpare DevicePhase = "returning-spare"
)

// Device is one drive of the fleet. It cycles forever through
// operate, fail, wait for its batch, take a spare, queue for the technician
// and get repaired. Each step is a kernel callback.
type Device struct {
	ID       int
	Group    int
	Priority int     // population - ID; higher is served first
	Capacity float64 // TB currently stored

	Failures    int
	Repairs     int
	Preemptions int
	RepairedAt  float64 // virtual time of the last completed repair
	LastSpare   float64 // capacity of the last spare this device took

	m        *Model
	lifetime Sampler
	jitter   Sampler
	phase    DevicePhase

	spare       SpareUnit
	spareUnused bool
	installed   bool
	claim       *sim.Claim
	queuedAt    float64
	repairTimer *sim.Timer
	repairEnds  float64
	repairLeft  float64
	repairTotal float64
}

// Phase returns the device's current lifecycle phase.
func (d *Device) Phase() DevicePhase {
	return d.phase
}

func (d *Device) start() {
	d.operate()
}

func (d *Device) operate() {
	d.phase = PhaseOperational
	d.m.sim.After(d.lifetime.Rand(), d.fail)
}

func (d *Device) fail() {
	d.Failures++
	d.phase = PhaseFailedWaiting
	logrus.Debugf("[t=%.3f] Device %d failed", d.m.sim.Now(), d.ID)
	d.m.gate.ReportFailure(d.ID, d.released)
}

func (d *Device) released() {
	d.phase = PhaseAcquiringSpare
	d.m.buffer.Acquire(d.gotSpare)
}

func (d *Device) gotSpare(u SpareUnit) {
	d.spare = u
	d.LastSpare = u.Capacity
	d.installed = false
	d.phase = PhaseQueued
	d.queuedAt = d.m.sim.Now()
	d.claim = d.m.team.Request(d.Priority, d.granted, d.preempted)
}

func (d *Device) granted(c *sim.Claim) {
	now := d.m.sim.Now()
	d.claim = c
	d.phase = PhaseInRepair
	wait := now - d.queuedAt
	d.m.stats.ObserveRepairWait(now, wait)

	var dur float64
	if !d.installed {
		d.install()
		d.repairTotal = d.m.cfg.Repair.MeanRepairTime + d.jitter.Rand()
		dur = d.repairTotal
	} else if d.m.cfg.Repair.PreemptResume == ResumeRestart {
		dur = d.repairTotal
	} else {
		dur = d.repairLeft
	}
	d.repairEnds = now + dur
	d.repairTimer = d.m.sim.After(dur, d.repaired)

	d.record(trace.RepairGranted, wait)
	logrus.Debugf("[t=%.3f] Device %d in repair for %.4f h (waited %.4f h)", now, d.ID, dur, wait)
}

// install applies the spare's capacity according to the replacement policy.
func (d *Device) install() {
	d.installed = true
	next := d.Capacity
	switch d.m.cfg.Repair.Replacement {
	case ReplaceOverwrite:
		next = d.spare.Capacity
		d.spareUnused = false
	default:
		d.spareUnused = d.spare.Capacity <= d.Capacity
		if !d.spareUnused {
			next = d.spare.Capacity
		}
	}
	if delta := next - d.Capacity; delta != 0 {
		d.Capacity = next
		d.m.capacityChanged(d.Group, delta)
	}
}

func (d *Device) preempted(c *sim.Claim) {
	now := d.m.sim.Now()
	d.repairTimer.Cancel()
	d.repairTimer = nil
	d.repairLeft = d.repairEnds - now
	d.Preemptions++
	d.phase = PhaseQueued
	d.queuedAt = now
	d.record(trace.RepairPreempted, 0)
	logrus.Debugf("[t=%.3f] Device %d preempted with %.4f h of repair left", now, d.ID, d.repairLeft)
}

func (d *Device) repaired() {
	now := d.m.sim.Now()
	d.repairTimer = nil
	d.m.team.Release(d.claim)
	d.claim = nil
	d.Repairs++
	d.RepairedAt = now
	d.record(trace.RepairCompleted, 0)

	if d.spareUnused && !d.m.cfg.Repair.ConsumeUnusedSpare {
		d.phase = PhaseReturningSpare
		d.spareUnused = false
		d.m.buffer.Return(d.spare, d.operate)
		return
	}
	d.spareUnused = false
	d.operate()
}

func (d *Device) record(action trace.RepairAction, wait float64) {
	if d.m.trace == nil {
		return
	}
	d.m.trace.RecordRepair(trace.RepairRecord{
		Time:     d.m.sim.Now(),
		DeviceID: d.ID,
		Priority: d.Priority,
		Action:   action,
		Wait:     wait,
		Capacity: d.Capacity,
	})
}
