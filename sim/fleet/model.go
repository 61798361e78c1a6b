package fleet

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/fleetsim/fleetsim/sim"
	"github.com/fleetsim/fleetsim/sim/trace"
)

// SamplerFactory builds the time-to-failure and repair-jitter samplers of one device.
type SamplerFactory func(id int) (lifetime, jitter Sampler)

// Option customizes a Model.
type Option func(*Model)

// WithSamplers replaces the seeded Weibull/exponential samplers.
func WithSamplers(f SamplerFactory) Option {
	return func(m *Model) {
		m.samplers = f
	}
}

// Model wires the fleet's processes onto one simulator.
type Model struct {
	cfg   Config
	sim   *sim.Simulator
	rng   *sim.PartitionedRNG
	state *State

	buffer    *ReplenishmentBuffer
	team      *RepairTeam
	gate      *FailureBatchGate
	upgrader  *CapacityUpgrader
	restocker *Restocker
	stats     *StatsCollector
	trace     *trace.SimulationTrace

	devices       []*Device
	groupCapacity []float64
	samplers      SamplerFactory
	ran           bool
}

// NewModel validates cfg and builds a ready-to-run model.
func NewModel(cfg Config, opts ...Option) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid fleet config: %w", err)
	}
	if cfg.Supply.SpareCapacity == 0 {
		logrus.Warnf("Spare buffer capacity is 0: failed devices will never be repaired")
	}

	s := sim.NewSimulator()
	m := &Model{
		cfg:   cfg,
		sim:   s,
		rng:   sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)),
		state: &State{UpgradeSize: cfg.Population.InitialCapacity},
		stats: NewStatsCollector(),
	}
	m.samplers = m.seededSamplers
	for _, opt := range opts {
		opt(m)
	}
	if cfg.Trace != "" && cfg.Trace != trace.TraceLevelNone {
		m.trace = trace.NewSimulationTrace(cfg.Trace)
	}

	m.buffer = NewReplenishmentBuffer(s, cfg.Supply.SpareCapacity, cfg.Supply.OnHand, cfg.Population.InitialCapacity)
	m.team = NewRepairTeam(s)
	m.gate = NewFailureBatchGate(s, m.state, cfg.Failure.BatchQuota, m.stats, m.trace)
	m.upgrader = NewCapacityUpgrader(s, m.state, cfg.Supply.UpgradePeriod, cfg.Supply.UpgradeIncrement, m.trace)
	m.restocker = NewRestocker(s, m.state, m.buffer, cfg.Supply.RestockPeriod, m.trace)

	m.buffer.observe(func(level int) { m.stats.ObserveBuffer(s.Now(), level) })
	m.team.observe(func(n int) { m.stats.ObserveRepairQueue(s.Now(), n) })

	pop := cfg.PopulationSize()
	m.devices = make([]*Device, 0, pop)
	m.groupCapacity = make([]float64, cfg.Population.Groups)
	for g := 0; g < cfg.Population.Groups; g++ {
		for j := 0; j < cfg.Population.DevicesPerGroup; j++ {
			id := g*cfg.Population.DevicesPerGroup + j
			lifetime, jitter := m.samplers(id)
			m.devices = append(m.devices, &Device{
				ID:       id,
				Group:    g,
				Priority: pop - id,
				Capacity: cfg.Population.InitialCapacity,
				m:        m,
				lifetime: lifetime,
				jitter:   jitter,
				phase:    PhaseOperational,
			})
			m.groupCapacity[g] += cfg.Population.InitialCapacity
			m.state.TotalCapacity += cfg.Population.InitialCapacity
		}
	}
	return m, nil
}

// seededSamplers draws every device from its own partition of the master seed.
func (m *Model) seededSamplers(id int) (Sampler, Sampler) {
	src := m.rng.ForSubsystem(sim.SubsystemDevice(id))
	lifetime := distuv.Weibull{K: m.cfg.Failure.WeibullShape, Lambda: m.cfg.Failure.WeibullScale, Src: src}
	jitter := distuv.Exponential{Rate: 1 / m.cfg.Repair.MeanRepairTime, Src: src}
	return lifetime, jitter
}

// Devices returns the fleet in identity order.
func (m *Model) Devices() []*Device {
	return m.devices
}

// State returns the shared mutable state.
func (m *Model) State() *State {
	return m.state
}

// Stats returns the monitors.
func (m *Model) Stats() *StatsCollector {
	return m.stats
}

// Buffer returns the spare buffer.
func (m *Model) Buffer() *ReplenishmentBuffer {
	return m.buffer
}

// Gate returns the failure batch gate.
func (m *Model) Gate() *FailureBatchGate {
	return m.gate
}

// Trace returns the event trace, nil when tracing is off.
func (m *Model) Trace() *trace.SimulationTrace {
	return m.trace
}

func (m *Model) capacityChanged(group int, delta float64) {
	m.groupCapacity[group] += delta
	m.state.TotalCapacity += delta
	m.stats.ObserveCapacity(m.sim.Now(), m.state.TotalCapacity)
}

// Run simulates until the configured horizon. A model runs once.
func (m *Model) Run() (*Result, error) {
	if m.ran {
		return nil, fmt.Errorf("fleet model already ran")
	}
	m.ran = true

	logrus.Infof("Starting fleet simulation: %d devices, %d spares, quota %d, horizon %.0f h, seed %d",
		len(m.devices), m.buffer.Capacity(), m.gate.Quota(), m.cfg.Horizon, m.cfg.Seed)

	m.stats.ObserveBuffer(0, m.buffer.Occupancy())
	m.stats.ObserveRepairQueue(0, 0)
	m.stats.ObserveCapacity(0, m.state.TotalCapacity)
	m.stats.ObserveFailed(0, 0)

	m.upgrader.Start()
	m.restocker.Start()
	for _, d := range m.devices {
		d.start()
	}
	m.sim.RunUntil(m.cfg.Horizon)

	res := m.result()
	logrus.Infof("Fleet simulation done at t=%.1f: %d events, %d repairs, total capacity %.2f TB",
		m.sim.Now(), res.EventsExecuted, res.Repairs, res.TotalCapacity)
	return res, nil
}

func (m *Model) result() *Result {
	res := &Result{
		Seed:            m.cfg.Seed,
		Horizon:         m.cfg.Horizon,
		Population:      len(m.devices),
		TotalCapacity:   m.state.TotalCapacity,
		GroupCapacity:   append([]float64(nil), m.groupCapacity...),
		UpgradeSize:     m.state.UpgradeSize,
		Summaries:       m.stats.Summaries(m.cfg.Horizon),
		Tracked:         m.cfg.Track,
		Batches:         m.gate.Batches(),
		PendingFailures: m.state.FailureCount,
		BufferLevel:     m.buffer.Occupancy(),
		Restocks:        m.restocker.Ticks(),
		Delivered:       m.restocker.Delivered(),
		Upgrades:        m.upgrader.Ticks(),
		EventsExecuted:  m.sim.Executed(),
		Trace:           m.trace,
	}
	if mon, err := m.stats.Monitor(m.cfg.Track); err == nil {
		res.Series = mon.Series()
	}
	for _, d := range m.devices {
		res.Failures += d.Failures
		res.Repairs += d.Repairs
		res.Preemptions += d.Preemptions
	}
	return res
}
