package trace

// TraceLevel controls the verbosity of event tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing (zero overhead).
	TraceLevelNone TraceLevel = "none"
	// TraceLevelEvents captures batch releases, repairs, restocks and upgrades.
	TraceLevelEvents TraceLevel = "events"
	// TraceLevelFull additionally captures every individual failure.
	TraceLevelFull TraceLevel = "full"
)

// validTraceLevels maps accepted trace level strings.
var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelEvents: true,
	TraceLevelFull:   true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// SimulationTrace collects event records during a fleet simulation.
type SimulationTrace struct {
	Level      TraceLevel
	Failures   []FailureRecord
	Broadcasts []BroadcastRecord
	Repairs    []RepairRecord
	Restocks   []RestockRecord
	Upgrades   []UpgradeRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(level TraceLevel) *SimulationTrace {
	return &SimulationTrace{
		Level:      level,
		Failures:   make([]FailureRecord, 0),
		Broadcasts: make([]BroadcastRecord, 0),
		Repairs:    make([]RepairRecord, 0),
		Restocks:   make([]RestockRecord, 0),
		Upgrades:   make([]UpgradeRecord, 0),
	}
}

// RecordFailure appends a failure record. Dropped unless the level is full.
func (st *SimulationTrace) RecordFailure(record FailureRecord) {
	if st.Level != TraceLevelFull {
		return
	}
	st.Failures = append(st.Failures, record)
}

// RecordBroadcast appends a batch-release record.
func (st *SimulationTrace) RecordBroadcast(record BroadcastRecord) {
	st.Broadcasts = append(st.Broadcasts, record)
}

// RecordRepair appends a repair-team record.
func (st *SimulationTrace) RecordRepair(record RepairRecord) {
	st.Repairs = append(st.Repairs, record)
}

// RecordRestock appends a delivery record.
func (st *SimulationTrace) RecordRestock(record RestockRecord) {
	st.Restocks = append(st.Restocks, record)
}

// RecordUpgrade appends an upgrade record.
func (st *SimulationTrace) RecordUpgrade(record UpgradeRecord) {
	st.Upgrades = append(st.Upgrades, record)
}
