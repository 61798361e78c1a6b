package fleet

// State is the mutable state shared by the fleet's processes. A Model owns
// exactly one State and hands it by reference to every process that reads
// or writes it; all mutation happens inside a single kernel turn.
type State struct {
	// FailureCount is the number of failures counted toward the current batch.
	// Always in [0, quota) between turns; written only by the FailureBatchGate.
	FailureCount int
	// UpgradeSize is the capacity stamped on newly manufactured spares.
	// Monotonically non-decreasing; written only by the CapacityUpgrader.
	UpgradeSize float64
	// TotalCapacity is the sum of every device's stored capacity.
	// Written only by devices as replacements land.
	TotalCapacity float64
}
