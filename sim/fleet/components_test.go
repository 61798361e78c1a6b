package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetsim/fleetsim/sim"
	"github.com/fleetsim/fleetsim/sim/trace"
)

// === FailureBatchGate ===

func TestFailureBatchGate_TriggerProceedsWaitersReleasedTogether(t *testing.T) {
	// GIVEN a gate with quota 3 and two failures already parked
	s := sim.NewSimulator()
	state := &State{}
	stats := NewStatsCollector()
	tr := trace.NewSimulationTrace(trace.TraceLevelFull)
	g := NewFailureBatchGate(s, state, 3, stats, tr)
	var order []string
	g.ReportFailure(0, func() { order = append(order, "d0") })
	g.ReportFailure(1, func() { order = append(order, "d1") })
	require.Equal(t, 2, state.FailureCount)
	require.Equal(t, 2, g.Waiting())
	assert.Empty(t, order, "waiters block until the quota is reached")

	// WHEN the third failure arrives
	g.ReportFailure(2, func() { order = append(order, "trigger") })

	// THEN the trigger proceeds in its own turn and the counter resets atomically
	assert.Equal(t, []string{"trigger"}, order)
	assert.Equal(t, 0, state.FailureCount)
	assert.Equal(t, 1, g.Batches())
	assert.Equal(t, 0, g.Waiting())

	// AND the waiters resume at the same instant
	s.RunUntil(1)
	assert.Equal(t, []string{"trigger", "d0", "d1"}, order)

	require.Len(t, tr.Broadcasts, 1)
	assert.Equal(t, trace.BroadcastRecord{Time: 0, Failures: 3, Released: 2, TriggerID: 2}, tr.Broadcasts[0])
	assert.Len(t, tr.Failures, 3)
}

func TestFailureBatchGate_QuotaOne_NeverBlocks(t *testing.T) {
	s := sim.NewSimulator()
	g := NewFailureBatchGate(s, &State{}, 1, NewStatsCollector(), nil)
	resumed := 0

	for i := 0; i < 5; i++ {
		g.ReportFailure(i, func() { resumed++ })
	}

	assert.Equal(t, 5, resumed)
	assert.Equal(t, 5, g.Batches())
}

func TestFailureBatchGate_CounterObservedIncludingReset(t *testing.T) {
	s := sim.NewSimulator()
	stats := NewStatsCollector()
	g := NewFailureBatchGate(s, &State{}, 2, stats, nil)

	g.ReportFailure(0, func() {})
	g.ReportFailure(1, func() {})

	assert.Equal(t, []float64{1, 2, 0}, stats.Failed.Values())
}

func TestFailureBatchGate_CorruptCounter_Panics(t *testing.T) {
	s := sim.NewSimulator()
	state := &State{FailureCount: 2}
	g := NewFailureBatchGate(s, state, 2, NewStatsCollector(), nil)

	assert.Panics(t, func() { g.ReportFailure(0, func() {}) })
}

func TestNewFailureBatchGate_ZeroQuota_Panics(t *testing.T) {
	assert.Panics(t, func() { NewFailureBatchGate(sim.NewSimulator(), &State{}, 0, NewStatsCollector(), nil) })
}

// === ReplenishmentBuffer ===

func TestReplenishmentBuffer_SeededAndAcquire(t *testing.T) {
	s := sim.NewSimulator()
	b := NewReplenishmentBuffer(s, 3, 2, 1.5)

	require.Equal(t, 2, b.Occupancy())
	require.Equal(t, 1, b.Headroom())

	var got SpareUnit
	b.Acquire(func(u SpareUnit) { got = u })

	assert.Equal(t, SpareUnit{Capacity: 1.5}, got)
	assert.Equal(t, 1, b.Occupancy())
}

func TestReplenishmentBuffer_EmptyAcquire_BlocksUntilRestock(t *testing.T) {
	// GIVEN an empty buffer and a waiting device
	s := sim.NewSimulator()
	b := NewReplenishmentBuffer(s, 2, 0, 1)
	var got *SpareUnit
	b.Acquire(func(u SpareUnit) { got = &u })
	require.Equal(t, 1, b.Waiting())

	// WHEN a delivery lands at t=3
	s.After(3, func() { b.Restock([]SpareUnit{{Capacity: 4}, {Capacity: 4}}) })
	s.RunUntil(5)

	// THEN the waiter gets one unit and the other stays on the shelf
	require.NotNil(t, got)
	assert.Equal(t, 4.0, got.Capacity)
	assert.Equal(t, 1, b.Occupancy())
}

func TestReplenishmentBuffer_RestockBeyondHeadroom_Panics(t *testing.T) {
	b := NewReplenishmentBuffer(sim.NewSimulator(), 2, 1, 1)

	assert.Panics(t, func() { b.Restock([]SpareUnit{{1}, {1}}) })
	assert.Equal(t, 1, b.Occupancy(), "failed delivery leaves the shelf untouched")
}

func TestReplenishmentBuffer_Return_BlocksWhenFull(t *testing.T) {
	s := sim.NewSimulator()
	b := NewReplenishmentBuffer(s, 1, 1, 1)
	returned := false

	b.Return(SpareUnit{Capacity: 1}, func() { returned = true })
	assert.False(t, returned)

	b.Acquire(func(SpareUnit) {})
	s.RunUntil(1)

	assert.True(t, returned)
	assert.Equal(t, 1, b.Occupancy())
}

func TestReplenishmentBuffer_ZeroCapacity_ReturnDiscards(t *testing.T) {
	b := NewReplenishmentBuffer(sim.NewSimulator(), 0, 0, 1)
	returned := false

	b.Return(SpareUnit{Capacity: 1}, func() { returned = true })

	assert.True(t, returned)
	assert.Equal(t, 0, b.Occupancy())
}

// === Restocker & CapacityUpgrader ===

func TestRestocker_FullBuffer_IsIdempotent(t *testing.T) {
	// GIVEN a full buffer
	s := sim.NewSimulator()
	state := &State{UpgradeSize: 1}
	b := NewReplenishmentBuffer(s, 3, 3, 1)
	r := NewRestocker(s, state, b, 10, nil)

	// WHEN restocking twice
	first := r.Restock()
	second := r.Restock()

	// THEN nothing is delivered
	assert.Equal(t, 0, first)
	assert.Equal(t, 0, second)
	assert.Equal(t, 3, b.Occupancy())
	assert.Equal(t, 0, r.Delivered())
}

func TestRestocker_FillsExactlyHeadroomWithCurrentUpgradeSize(t *testing.T) {
	// GIVEN an upgrader at period 5 and a restocker at period 7 over a half-empty buffer
	s := sim.NewSimulator()
	state := &State{UpgradeSize: 1}
	tr := trace.NewSimulationTrace(trace.TraceLevelEvents)
	b := NewReplenishmentBuffer(s, 4, 2, 1)
	u := NewCapacityUpgrader(s, state, 5, 0.5, tr)
	r := NewRestocker(s, state, b, 7, tr)
	u.Start()
	r.Start()

	// WHEN both run past the first restock
	s.RunUntil(8)

	// THEN the two missing units were built at the upgraded size
	assert.Equal(t, 4, b.Occupancy())
	assert.Equal(t, 2, r.Delivered())
	assert.Equal(t, 1, r.Ticks())
	assert.Equal(t, 1, u.Ticks())
	assert.Equal(t, 1.5, state.UpgradeSize)
	require.Len(t, tr.Restocks, 1)
	assert.Equal(t, trace.RestockRecord{Time: 7, Units: 2, UnitCapacity: 1.5, Level: 4}, tr.Restocks[0])
	require.Len(t, tr.Upgrades, 1)
	assert.Equal(t, trace.UpgradeRecord{Time: 5, Size: 1.5}, tr.Upgrades[0])

	var units []SpareUnit
	for i := 0; i < 4; i++ {
		b.Acquire(func(u SpareUnit) { units = append(units, u) })
	}
	assert.Equal(t, []SpareUnit{{1}, {1}, {1.5}, {1.5}}, units, "oldest stock leaves first")
}

func TestCapacityUpgrader_MonotonicAndUnbounded(t *testing.T) {
	s := sim.NewSimulator()
	state := &State{UpgradeSize: 1}
	u := NewCapacityUpgrader(s, state, 10, 1, nil)
	u.Start()

	prev := state.UpgradeSize
	for h := 10.0; h <= 100; h += 10 {
		s.RunUntil(h)
		assert.GreaterOrEqual(t, state.UpgradeSize, prev)
		prev = state.UpgradeSize
	}
	assert.Equal(t, 11.0, state.UpgradeSize)
	assert.Equal(t, 10, u.Ticks())
}

func TestPeriodicProcesses_ZeroPeriod_Disabled(t *testing.T) {
	s := sim.NewSimulator()
	state := &State{UpgradeSize: 1}
	b := NewReplenishmentBuffer(s, 2, 0, 1)
	NewCapacityUpgrader(s, state, 0, 1, nil).Start()
	NewRestocker(s, state, b, 0, nil).Start()

	assert.Equal(t, 0, s.Pending())
}

// === RepairTeam ===

func TestRepairTeam_PreemptiveSingleTechnician(t *testing.T) {
	// GIVEN a low-priority device in repair
	s := sim.NewSimulator()
	team := NewRepairTeam(s)
	var lengths []int
	team.observe(func(n int) { lengths = append(lengths, n) })
	preempted := false
	low := team.Request(1, func(*sim.Claim) {}, func(*sim.Claim) { preempted = true })
	s.RunUntil(0)
	require.True(t, team.Busy())

	// WHEN a higher-priority device asks for the technician later
	var high *sim.Claim
	s.After(1, func() { high = team.Request(5, func(*sim.Claim) {}, nil) })
	s.RunUntil(1)

	// THEN the repair in progress is interrupted and queued
	assert.True(t, preempted)
	assert.Equal(t, 1, team.QueueLen())
	assert.Equal(t, []int{1}, lengths)

	team.Release(high)
	s.RunUntil(2)
	team.Release(low)
	assert.False(t, team.Busy())
	assert.Equal(t, []int{1, 0}, lengths)
	assert.Panics(t, func() { team.Release(low) })
}

func TestRepairTeam_SameInstant_NoPreemption(t *testing.T) {
	// GIVEN three devices asking for the technician at one instant, lowest first
	s := sim.NewSimulator()
	team := NewRepairTeam(s)
	var granted []int
	preemptions := 0
	for _, p := range []int{1, 3, 2} {
		team.Request(p, func(c *sim.Claim) {
			granted = append(granted, c.Priority)
			s.After(1, func() { team.Release(c) })
		}, func(*sim.Claim) { preemptions++ })
	}

	// WHEN the instant settles and each repair takes one hour
	s.RunUntil(10)

	// THEN the technician works strictly by priority and nobody is interrupted
	assert.Equal(t, []int{3, 2, 1}, granted)
	assert.Zero(t, preemptions)
}
