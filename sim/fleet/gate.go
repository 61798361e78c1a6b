package fleet

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/fleetsim/fleetsim/sim"
	"github.com/fleetsim/fleetsim/sim/trace"
)

// FailureBatchGate holds failed devices back until enough of them have
// accumulated to justify a maintenance visit, then releases the whole batch.
type FailureBatchGate struct {
	quota   int
	sim     *sim.Simulator
	state   *State
	signal  *sim.Signal
	stats   *StatsCollector
	trace   *trace.SimulationTrace
	batches int
}

// NewFailureBatchGate creates a gate that opens every quota failures.
func NewFailureBatchGate(s *sim.Simulator, state *State, quota int, stats *StatsCollector, tr *trace.SimulationTrace) *FailureBatchGate {
	if quota < 1 {
		panic(fmt.Sprintf("NewFailureBatchGate: quota must be >= 1, got %d", quota))
	}
	return &FailureBatchGate{
		quota:  quota,
		sim:    s,
		state:  state,
		signal: sim.NewSignal(s, "drives-critical"),
		stats:  stats,
		trace:  tr,
	}
}

// Quota returns the number of failures per batch.
func (g *FailureBatchGate) Quota() int {
	return g.quota
}

// Batches returns how many batches have been released.
func (g *FailureBatchGate) Batches() int {
	return g.batches
}

// Waiting returns the number of failed devices held at the gate.
func (g *FailureBatchGate) Waiting() int {
	return g.signal.Waiting()
}

// ReportFailure counts one failure of device id. If it completes the batch,
// every held device is released, the counter resets to zero, and resume runs
// immediately for the trigger. Otherwise resume is held until the batch that
// this failure belongs to is released.
func (g *FailureBatchGate) ReportFailure(id int, resume func()) {
	g.state.FailureCount++
	now := g.sim.Now()
	if g.state.FailureCount > g.quota {
		panic(fmt.Sprintf("FailureBatchGate: counter %d exceeds quota %d", g.state.FailureCount, g.quota))
	}
	g.stats.ObserveFailed(now, g.state.FailureCount)
	if g.trace != nil {
		g.trace.RecordFailure(trace.FailureRecord{Time: now, DeviceID: id, Pending: g.state.FailureCount})
	}

	if g.state.FailureCount < g.quota {
		g.signal.Wait(resume)
		return
	}

	released := g.signal.Broadcast()
	g.state.FailureCount = 0
	g.batches++
	g.stats.ObserveFailed(now, g.state.FailureCount)
	if g.trace != nil {
		g.trace.RecordBroadcast(trace.BroadcastRecord{Time: now, Failures: g.quota, Released: released, TriggerID: id})
	}
	logrus.Debugf("[t=%.3f] Batch %d released by device %d (%d waiting devices resumed)", now, g.batches, id, released)
	resume()
}
