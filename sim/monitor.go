package sim

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Observation is one time-stamped sample of a monitored quantity.
type Observation struct {
	Time  float64 `json:"time"`
	Value float64 `json:"value"`
}

// Monitor is an append-only log of observations of one quantity.
type Monitor struct {
	Name string
	obs  []Observation
}

// NewMonitor creates an empty monitor.
func NewMonitor(name string) *Monitor {
	return &Monitor{Name: name}
}

// Observe appends a sample. Samples must arrive in non-decreasing time order.
func (m *Monitor) Observe(t, v float64) {
	if n := len(m.obs); n > 0 && t < m.obs[n-1].Time {
		panic("Monitor.Observe " + m.Name + ": observation time went backwards")
	}
	m.obs = append(m.obs, Observation{Time: t, Value: v})
}

// Len returns the number of samples.
func (m *Monitor) Len() int {
	return len(m.obs)
}

// Last returns the most recent sample and false if there is none.
func (m *Monitor) Last() (Observation, bool) {
	if len(m.obs) == 0 {
		return Observation{}, false
	}
	return m.obs[len(m.obs)-1], true
}

// Series returns a copy of all samples.
func (m *Monitor) Series() []Observation {
	return append([]Observation(nil), m.obs...)
}

// Values returns the sampled values without timestamps.
func (m *Monitor) Values() []float64 {
	vals := make([]float64, len(m.obs))
	for i, o := range m.obs {
		vals[i] = o.Value
	}
	return vals
}

// Summary reduces a monitor to its five headline numbers.
type Summary struct {
	Name        string  `json:"name"`
	Count       int     `json:"count"`
	Total       float64 `json:"total"`
	Mean        float64 `json:"mean"`
	Variance    float64 `json:"variance"`     // population variance of the samples
	TimeAverage float64 `json:"time_average"` // integral over time / elapsed time
}

// Summarize reduces the log up to virtual time end. The time average treats
// the series as a step function that holds each value until the next sample,
// with the last value held until end, divided by the time elapsed since the
// first sample.
func (m *Monitor) Summarize(end float64) Summary {
	s := Summary{Name: m.Name, Count: len(m.obs)}
	if len(m.obs) == 0 {
		return s
	}
	vals := m.Values()
	s.Total = floats.Sum(vals)
	s.Mean, s.Variance = stat.PopMeanVariance(vals, nil)
	s.TimeAverage = m.timeAverage(end)
	return s
}

func (m *Monitor) timeAverage(end float64) float64 {
	last := m.obs[len(m.obs)-1]
	if end < last.Time {
		end = last.Time
	}
	start := m.obs[0].Time
	if end == start {
		return last.Value
	}
	var area float64
	for i := 0; i < len(m.obs)-1; i++ {
		area += m.obs[i].Value * (m.obs[i+1].Time - m.obs[i].Time)
	}
	area += last.Value * (end - last.Time)
	return area / (end - start)
}
