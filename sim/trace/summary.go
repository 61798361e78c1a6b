package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	Failures          int
	Broadcasts        int
	MeanReleased      float64 // mean waiters resumed per broadcast
	Grants            int
	Preemptions       int
	Completions       int
	MaxWait           float64
	MeanWait          float64
	Restocks          int
	UnitsDelivered    int
	Upgrades          int
	FinalUpgradeSize  float64
	PreemptedByDevice map[int]int // device ID → times preempted
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		PreemptedByDevice: make(map[int]int),
	}
	if st == nil {
		return summary
	}

	summary.Failures = len(st.Failures)
	summary.Broadcasts = len(st.Broadcasts)
	if len(st.Broadcasts) > 0 {
		released := 0
		for _, b := range st.Broadcasts {
			released += b.Released
		}
		summary.MeanReleased = float64(released) / float64(len(st.Broadcasts))
	}

	totalWait := 0.0
	for _, r := range st.Repairs {
		switch r.Action {
		case RepairGranted:
			summary.Grants++
			totalWait += r.Wait
			if r.Wait > summary.MaxWait {
				summary.MaxWait = r.Wait
			}
		case RepairPreempted:
			summary.Preemptions++
			summary.PreemptedByDevice[r.DeviceID]++
		case RepairCompleted:
			summary.Completions++
		}
	}
	if summary.Grants > 0 {
		summary.MeanWait = totalWait / float64(summary.Grants)
	}

	summary.Restocks = len(st.Restocks)
	for _, r := range st.Restocks {
		summary.UnitsDelivered += r.Units
	}

	summary.Upgrades = len(st.Upgrades)
	if n := len(st.Upgrades); n > 0 {
		summary.FinalUpgradeSize = st.Upgrades[n-1].Size
	}
	return summary
}
