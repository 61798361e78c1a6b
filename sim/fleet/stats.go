package fleet

import (
	"fmt"

	"github.com/fleetsim/fleetsim/sim"
)

// StatsCollector owns one monitor per observed quantity of the fleet.
type StatsCollector struct {
	RepairWait  *sim.Monitor // queue wait durations at the repair team
	RepairQueue *sim.Monitor // repair-team queue length after every change
	Buffer      *sim.Monitor // spare buffer occupancy after every add/remove
	Capacity    *sim.Monitor // aggregate stored capacity after every change
	Failed      *sim.Monitor // failures pending in the current batch
}

// NewStatsCollector creates empty monitors.
func NewStatsCollector() *StatsCollector {
	return &StatsCollector{
		RepairWait:  sim.NewMonitor(string(TrackRepairWait)),
		RepairQueue: sim.NewMonitor(string(TrackRepairQueue)),
		Buffer:      sim.NewMonitor(string(TrackBuffer)),
		Capacity:    sim.NewMonitor(string(TrackCapacity)),
		Failed:      sim.NewMonitor(string(TrackFailed)),
	}
}

// ObserveRepairWait records how long a device queued before a grant.
func (sc *StatsCollector) ObserveRepairWait(t, wait float64) {
	sc.RepairWait.Observe(t, wait)
}

// ObserveRepairQueue records the repair-team queue length.
func (sc *StatsCollector) ObserveRepairQueue(t float64, n int) {
	sc.RepairQueue.Observe(t, float64(n))
}

// ObserveBuffer records the spare buffer occupancy.
func (sc *StatsCollector) ObserveBuffer(t float64, level int) {
	sc.Buffer.Observe(t, float64(level))
}

// ObserveCapacity records the aggregate stored capacity.
func (sc *StatsCollector) ObserveCapacity(t, total float64) {
	sc.Capacity.Observe(t, total)
}

// ObserveFailed records the failures pending in the current batch.
func (sc *StatsCollector) ObserveFailed(t float64, pending int) {
	sc.Failed.Observe(t, float64(pending))
}

// Monitor returns the monitor behind a tracked quantity.
func (sc *StatsCollector) Monitor(q TrackedQuantity) (*sim.Monitor, error) {
	switch q {
	case TrackRepairWait:
		return sc.RepairWait, nil
	case TrackRepairQueue:
		return sc.RepairQueue, nil
	case TrackBuffer:
		return sc.Buffer, nil
	case TrackCapacity:
		return sc.Capacity, nil
	case TrackFailed:
		return sc.Failed, nil
	}
	return nil, fmt.Errorf("unknown tracked quantity %q", q)
}

// Summaries reduces every monitor up to virtual time end, in a fixed order.
func (sc *StatsCollector) Summaries(end float64) []sim.Summary {
	return []sim.Summary{
		sc.RepairWait.Summarize(end),
		sc.RepairQueue.Summarize(end),
		sc.Buffer.Summarize(end),
		sc.Capacity.Summarize(end),
		sc.Failed.Summarize(end),
	}
}
