package fleet

import (
	"github.com/fleetsim/fleetsim/sim"
	"github.com/fleetsim/fleetsim/sim/trace"
)

// Result is everything a finished run reports.
type Result struct {
	Seed          int64     `json:"seed"`
	Horizon       float64   `json:"horizon"`
	Population    int       `json:"population"`
	TotalCapacity float64   `json:"total_capacity"`
	GroupCapacity []float64 `json:"group_capacity"`
	UpgradeSize   float64   `json:"upgrade_size"`

	// Summaries holds repair-wait, repair-queue, buffer, capacity and failed, in that order.
	Summaries []sim.Summary     `json:"summaries"`
	Tracked   TrackedQuantity   `json:"tracked"`
	Series    []sim.Observation `json:"series,omitempty"`

	Failures        int   `json:"failures"`
	Repairs         int   `json:"repairs"`
	Preemptions     int   `json:"preemptions"`
	Batches         int   `json:"batches"`
	PendingFailures int   `json:"pending_failures"`
	BufferLevel     int   `json:"buffer_level"`
	Restocks        int   `json:"restocks"`
	Delivered       int   `json:"delivered"`
	Upgrades        int   `json:"upgrades"`
	EventsExecuted  int64 `json:"events_executed"`

	Trace *trace.SimulationTrace `json:"-"`
}

// Summary returns the summary of the named quantity.
func (r *Result) Summary(q TrackedQuantity) (sim.Summary, bool) {
	for _, s := range r.Summaries {
		if s.Name == string(q) {
			return s, true
		}
	}
	return sim.Summary{}, false
}
