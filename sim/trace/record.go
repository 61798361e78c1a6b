// Package trace provides event-trace recording for fleet model analysis.
// This package has no dependencies on sim/ or sim/fleet/; it stores pure data types.
package trace

// FailureRecord captures a device failure reaching the batch gate.
type FailureRecord struct {
	Time     float64
	DeviceID int
	Pending  int // failures counted toward the current batch, including this one
}

// BroadcastRecord captures a batch release by the failure gate.
type BroadcastRecord struct {
	Time      float64
	Failures  int // counter value that triggered the release (the quota)
	Released  int // waiters resumed by the broadcast
	TriggerID int // device whose failure reached the quota
}

// RepairAction names a repair-team transition.
type RepairAction string

const (
	RepairGranted   RepairAction = "granted"
	RepairPreempted RepairAction = "preempted"
	RepairCompleted RepairAction = "completed"
)

// RepairRecord captures a repair-team transition for one device.
type RepairRecord struct {
	Time     float64
	DeviceID int
	Priority int
	Action   RepairAction
	Wait     float64 // queue wait before the grant (granted only)
	Capacity float64 // device capacity after the transition
}

// RestockRecord captures a restocker delivery.
type RestockRecord struct {
	Time         float64
	Units        int
	UnitCapacity float64
	Level        int // buffer occupancy after the delivery
}

// UpgradeRecord captures an upgrade-size increase.
type UpgradeRecord struct {
	Time float64
	Size float64
}
