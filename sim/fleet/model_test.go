package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/fleetsim/fleetsim/sim"
	"github.com/fleetsim/fleetsim/sim/internal/testutil"
	"github.com/fleetsim/fleetsim/sim/trace"
)

// smallConfig is a ten-drive fleet that fails often enough to exercise
// every process within a short horizon.
func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.Horizon = 10000
	cfg.Population = PopulationConfig{Groups: 2, DevicesPerGroup: 5, InitialCapacity: 1}
	cfg.Failure = FailureConfig{WeibullScale: 1000, WeibullShape: 2, BatchQuota: 2}
	cfg.Repair.MeanRepairTime = 1
	cfg.Supply = SupplyConfig{SpareCapacity: 3, OnHand: 3, RestockPeriod: 168, UpgradePeriod: 2000, UpgradeIncrement: 1}
	cfg.Trace = trace.TraceLevelFull
	return cfg
}

// preemptionConfig is two drives, one spare each, and a single-failure quota.
// Device 1 fails first, device 0 (higher priority) interrupts its repair.
func preemptionConfig(resume PreemptResume) (Config, Option) {
	cfg := DefaultConfig()
	cfg.Horizon = 30
	cfg.Population = PopulationConfig{Groups: 1, DevicesPerGroup: 2, InitialCapacity: 1}
	cfg.Failure.BatchQuota = 1
	cfg.Repair.MeanRepairTime = 10
	cfg.Repair.PreemptResume = resume
	cfg.Supply = SupplyConfig{SpareCapacity: 2, OnHand: 2}
	cfg.Trace = trace.TraceLevelEvents
	lifetimes := map[int]Sampler{
		0: testutil.NewScriptedSampler(1e9, 5),
		1: testutil.NewScriptedSampler(1e9, 1),
	}
	return cfg, WithSamplers(func(id int) (Sampler, Sampler) {
		return lifetimes[id], testutil.Const(0)
	})
}

func runModel(t *testing.T, cfg Config, opts ...Option) (*Model, *Result) {
	t.Helper()
	m, err := NewModel(cfg, opts...)
	require.NoError(t, err)
	res, err := m.Run()
	require.NoError(t, err)
	return m, res
}

func TestModel_Preemption_PreserveResumesRemainingTime(t *testing.T) {
	// GIVEN device 1 in repair from t=1 for 10h and device 0 failing at t=5
	cfg, opt := preemptionConfig(ResumePreserve)

	// WHEN the model runs
	m, res := runModel(t, cfg, opt)

	// THEN device 0 is repaired at 15 and device 1 finishes its last 6h at 21
	d0, d1 := m.Devices()[0], m.Devices()[1]
	assert.Equal(t, 15.0, d0.RepairedAt)
	assert.Equal(t, 21.0, d1.RepairedAt)
	assert.Equal(t, 1, d1.Preemptions)
	assert.Equal(t, 0, d0.Preemptions)
	assert.Equal(t, 1, res.Preemptions)
	assert.Equal(t, 2, res.Repairs)

	// AND the trace shows grant, preempt, grant, complete, grant, complete
	var actions []string
	for _, r := range res.Trace.Repairs {
		actions = append(actions, string(r.Action)+"/"+string(rune('0'+r.DeviceID)))
	}
	assert.Equal(t, []string{
		"granted/1", "preempted/1", "granted/0", "completed/0", "granted/1", "completed/1",
	}, actions)
}

func TestModel_Preemption_RestartRedoesFullRepair(t *testing.T) {
	cfg, opt := preemptionConfig(ResumeRestart)

	m, _ := runModel(t, cfg, opt)

	assert.Equal(t, 15.0, m.Devices()[0].RepairedAt)
	assert.Equal(t, 25.0, m.Devices()[1].RepairedAt)
}

func TestModel_Preemption_WaitSamplesCoverRequeue(t *testing.T) {
	cfg, opt := preemptionConfig(ResumePreserve)

	m, _ := runModel(t, cfg, opt)

	// Device 1 granted at once, device 0 granted at once, device 1 re-granted after 10h.
	assert.Equal(t, []float64{0, 0, 10}, m.Stats().RepairWait.Values())
	assert.Equal(t, []float64{0, 1, 0}, m.Stats().RepairQueue.Values())
}

func TestModel_BatchRelease_GrantsByPriorityWithoutPreemption(t *testing.T) {
	// GIVEN three drives failing at t=1, 2 and 3 into one batch of three,
	// with the lowest-priority drive triggering the release
	cfg := DefaultConfig()
	cfg.Horizon = 40
	cfg.Population = PopulationConfig{Groups: 1, DevicesPerGroup: 3, InitialCapacity: 1}
	cfg.Failure.BatchQuota = 3
	cfg.Repair.MeanRepairTime = 10
	cfg.Supply = SupplyConfig{SpareCapacity: 3, OnHand: 3}
	cfg.Trace = trace.TraceLevelEvents
	opt := WithSamplers(func(id int) (Sampler, Sampler) {
		return testutil.NewScriptedSampler(1e9, float64(id+1)), testutil.Const(0)
	})

	// WHEN the model runs
	m, res := runModel(t, cfg, opt)

	// THEN the technician serves the drives by priority, one after another
	var actions []string
	for _, r := range res.Trace.Repairs {
		actions = append(actions, string(r.Action)+"/"+string(rune('0'+r.DeviceID)))
	}
	assert.Equal(t, []string{
		"granted/0", "completed/0", "granted/1", "completed/1", "granted/2", "completed/2",
	}, actions)
	assert.Zero(t, res.Preemptions)
	assert.Equal(t, 3, res.Repairs)
	assert.Equal(t, []float64{0, 10, 20}, m.Stats().RepairWait.Values())
	assert.Equal(t, []float64{0, 2, 1, 0}, m.Stats().RepairQueue.Values())
	assert.Equal(t, 33.0, m.Devices()[2].RepairedAt)
}

func TestModel_UnusedSpare_ShelvedWhenNotConsumed(t *testing.T) {
	// GIVEN grow-only replacement with equal-size spares that are not consumed
	cfg, opt := preemptionConfig(ResumePreserve)
	cfg.Repair.ConsumeUnusedSpare = false

	// WHEN both devices finish their repairs
	m, res := runModel(t, cfg, opt)

	// THEN both spares are back on the shelf
	assert.Equal(t, 2, m.Buffer().Occupancy())
	assert.Equal(t, 2, res.BufferLevel)
	assert.Equal(t, []float64{2, 1, 0, 1, 2}, m.Stats().Buffer.Values())
}

func TestModel_UnusedSpare_ConsumedByDefault(t *testing.T) {
	cfg, opt := preemptionConfig(ResumePreserve)

	m, _ := runModel(t, cfg, opt)

	assert.Equal(t, 0, m.Buffer().Occupancy())
}

func TestModel_FirstBroadcastAfterExactlyQuotaFailures(t *testing.T) {
	// GIVEN ten drives, a full three-spare buffer and quota 2
	cfg := smallConfig()
	cfg.Population = PopulationConfig{Groups: 1, DevicesPerGroup: 10, InitialCapacity: 1}

	// WHEN run for 10000h
	_, res := runModel(t, cfg)

	// THEN the first broadcast coincides with the second failure
	require.NotEmpty(t, res.Trace.Broadcasts)
	require.GreaterOrEqual(t, len(res.Trace.Failures), 2)
	first := res.Trace.Broadcasts[0]
	assert.Equal(t, 2, first.Failures)
	assert.Equal(t, 1, first.Released)
	assert.Equal(t, res.Trace.Failures[1].Time, first.Time)
	assert.Equal(t, res.Trace.Failures[1].DeviceID, first.TriggerID)
	assert.Equal(t, 1, res.Trace.Failures[0].Pending)
	assert.Equal(t, 2, res.Trace.Failures[1].Pending)
}

func TestModel_SingleDevice_CycleCountMatchesReplay(t *testing.T) {
	// GIVEN one drive, a one-spare buffer refilled hourly and quota 1
	cfg := DefaultConfig()
	cfg.Horizon = 2000
	cfg.Seed = 99999
	cfg.Population = PopulationConfig{Groups: 1, DevicesPerGroup: 1, InitialCapacity: 1}
	cfg.Failure = FailureConfig{WeibullScale: 50, WeibullShape: 2, BatchQuota: 1}
	cfg.Repair.MeanRepairTime = 2
	cfg.Supply = SupplyConfig{SpareCapacity: 1, OnHand: 1, RestockPeriod: 1}

	// WHEN the model runs
	_, res := runModel(t, cfg)

	// THEN failures and repairs equal a direct replay of the same draws
	src := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed)).ForSubsystem(sim.SubsystemDevice(0))
	lifetime := distuv.Weibull{K: 2, Lambda: 50, Src: src}
	jitter := distuv.Exponential{Rate: 1.0 / 2, Src: src}
	failures, repairs := 0, 0
	now := 0.0
	for {
		now += lifetime.Rand()
		if now > cfg.Horizon {
			break
		}
		failures++
		now += 2 + jitter.Rand()
		if now > cfg.Horizon {
			break
		}
		repairs++
	}
	assert.Greater(t, repairs, 10)
	assert.Equal(t, failures, res.Failures)
	assert.Equal(t, repairs, res.Repairs)
	assert.Equal(t, failures, res.Batches)
}

func TestModel_SameSeed_IdenticalResults(t *testing.T) {
	cfg := smallConfig()
	cfg.Trace = trace.TraceLevelNone

	_, a := runModel(t, cfg)
	_, b := runModel(t, cfg)

	assert.Equal(t, a, b)
}

func TestModel_DifferentSeed_DifferentResults(t *testing.T) {
	cfg := smallConfig()
	cfg.Trace = trace.TraceLevelNone
	_, a := runModel(t, cfg)

	cfg.Seed = 54321
	_, b := runModel(t, cfg)

	assert.NotEqual(t, a.Series, b.Series)
}

func TestModel_Invariants_HoldAtEveryObservation(t *testing.T) {
	cfg := smallConfig()
	m, res := runModel(t, cfg)
	stats := m.Stats()

	// Buffer occupancy stays within [0, capacity]
	for _, o := range stats.Buffer.Series() {
		assert.GreaterOrEqual(t, o.Value, 0.0)
		assert.LessOrEqual(t, o.Value, float64(cfg.Supply.SpareCapacity))
	}

	// The counter reaches the quota only in the step that resets it
	failed := stats.Failed.Series()
	for i, o := range failed {
		require.LessOrEqual(t, o.Value, float64(cfg.Failure.BatchQuota))
		if o.Value == float64(cfg.Failure.BatchQuota) {
			require.Less(t, i+1, len(failed))
			assert.Equal(t, 0.0, failed[i+1].Value)
			assert.Equal(t, o.Time, failed[i+1].Time)
		}
	}
	assert.Less(t, res.PendingFailures, cfg.Failure.BatchQuota)

	// Grow-only: aggregate capacity never decreases
	caps := stats.Capacity.Values()
	for i := 1; i < len(caps); i++ {
		assert.GreaterOrEqual(t, caps[i], caps[i-1])
	}

	// Aggregates agree with the devices
	var total float64
	groups := make([]float64, cfg.Population.Groups)
	for _, d := range m.Devices() {
		total += d.Capacity
		groups[d.Group] += d.Capacity
	}
	testutil.AssertFloat64Equal(t, "total capacity", total, res.TotalCapacity, 1e-9)
	for g := range groups {
		testutil.AssertFloat64Equal(t, "group capacity", groups[g], res.GroupCapacity[g], 1e-9)
	}
	assert.Greater(t, res.TotalCapacity, float64(res.Population), "upgraded spares grew the fleet")
}

func TestModel_GrowOnly_DeviceCapacityNeverShrinks(t *testing.T) {
	cfg := smallConfig()
	_, res := runModel(t, cfg)

	last := map[int]float64{}
	for _, r := range res.Trace.Repairs {
		if prev, ok := last[r.DeviceID]; ok {
			assert.GreaterOrEqual(t, r.Capacity, prev, "device %d shrank", r.DeviceID)
		}
		last[r.DeviceID] = r.Capacity
	}
	assert.NotEmpty(t, last)
}

func TestModel_Overwrite_CapacityEqualsLastSpare(t *testing.T) {
	cfg := smallConfig()
	cfg.Repair.Replacement = ReplaceOverwrite
	m, res := runModel(t, cfg)

	for _, d := range m.Devices() {
		if d.Repairs > 0 && d.Phase() != PhaseQueued {
			assert.Equal(t, d.LastSpare, d.Capacity, "device %d", d.ID)
		}
	}
	assert.Greater(t, res.Repairs, 0)
}

func TestDevice_Install_PolicyDecidesCapacity(t *testing.T) {
	tests := []struct {
		name       string
		policy     ReplacementPolicy
		current    float64
		spare      float64
		want       float64
		wantUnused bool
	}{
		{"grow-only larger spare", ReplaceGrowOnly, 2, 3, 3, false},
		{"grow-only equal spare", ReplaceGrowOnly, 2, 2, 2, true},
		{"grow-only smaller spare", ReplaceGrowOnly, 3, 1, 3, true},
		{"overwrite larger spare", ReplaceOverwrite, 2, 3, 3, false},
		{"overwrite smaller spare", ReplaceOverwrite, 3, 1, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// GIVEN a device of the given capacity holding a spare
			cfg, opt := preemptionConfig(ResumePreserve)
			cfg.Repair.Replacement = tt.policy
			m, err := NewModel(cfg, opt)
			require.NoError(t, err)
			d := m.Devices()[0]
			m.state.TotalCapacity += tt.current - d.Capacity
			d.Capacity = tt.current
			before := m.state.TotalCapacity
			d.spare = SpareUnit{Capacity: tt.spare}

			// WHEN the spare is installed
			d.install()

			// THEN capacity follows the policy and the aggregate tracks the delta
			assert.Equal(t, tt.want, d.Capacity)
			assert.Equal(t, tt.wantUnused, d.spareUnused)
			assert.Equal(t, before+tt.want-tt.current, m.state.TotalCapacity)
		})
	}
}

func TestModel_ZeroBuffer_NoRepairs(t *testing.T) {
	cfg := smallConfig()
	cfg.Supply.SpareCapacity = 0
	cfg.Supply.OnHand = 0

	_, res := runModel(t, cfg)

	assert.Equal(t, 0, res.Repairs)
	assert.Greater(t, res.Failures, 0)
	assert.Equal(t, float64(res.Population), res.TotalCapacity)
}

func TestModel_Run_Twice_Errors(t *testing.T) {
	m, err := NewModel(smallConfig())
	require.NoError(t, err)
	_, err = m.Run()
	require.NoError(t, err)

	_, err = m.Run()
	assert.Error(t, err)
}

func TestResult_TrackedSeriesAndSummaries(t *testing.T) {
	cfg := smallConfig()
	cfg.Track = TrackFailed
	m, res := runModel(t, cfg)

	assert.Equal(t, TrackFailed, res.Tracked)
	assert.Equal(t, m.Stats().Failed.Series(), res.Series)
	require.Len(t, res.Summaries, 5)

	capSummary, ok := res.Summary(TrackCapacity)
	require.True(t, ok)
	assert.Equal(t, m.Stats().Capacity.Len(), capSummary.Count)
	assert.GreaterOrEqual(t, capSummary.TimeAverage, float64(res.Population))
	assert.LessOrEqual(t, capSummary.TimeAverage, res.TotalCapacity)

	_, ok = res.Summary("temperature")
	assert.False(t, ok)
}

func TestStatsCollector_Monitor_UnknownQuantity(t *testing.T) {
	_, err := NewStatsCollector().Monitor("temperature")
	assert.Error(t, err)
}
