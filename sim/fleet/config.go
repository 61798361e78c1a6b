package fleet

import (
	"fmt"
	"math"

	"github.com/fleetsim/fleetsim/sim/trace"
)

// ReplacementPolicy decides how a spare's capacity is applied to the device it replaces.
type ReplacementPolicy string

const (
	// ReplaceGrowOnly adopts the spare's capacity only when it is strictly larger.
	ReplaceGrowOnly ReplacementPolicy = "grow-only"
	// ReplaceOverwrite always adopts the spare's capacity.
	ReplaceOverwrite ReplacementPolicy = "overwrite"
)

// PreemptResume decides what happens to a repair interrupted by a higher-priority device.
type PreemptResume string

const (
	// ResumePreserve continues the repair with the time that was left.
	ResumePreserve PreemptResume = "preserve"
	// ResumeRestart starts the full repair duration over again.
	ResumeRestart PreemptResume = "restart"
)

// TrackedQuantity selects which monitored series is exported raw with a Result.
type TrackedQuantity string

const (
	TrackCapacity    TrackedQuantity = "capacity"     // aggregate stored capacity
	TrackFailed      TrackedQuantity = "failed"       // failures pending in the current batch
	TrackBuffer      TrackedQuantity = "buffer"       // spare buffer occupancy
	TrackRepairQueue TrackedQuantity = "repair-queue" // devices queued for the repair team
	TrackRepairWait  TrackedQuantity = "repair-wait"  // wait durations at the repair team
)

// ValidReplacementPolicies is the set of recognized replacement policy names.
var ValidReplacementPolicies = map[ReplacementPolicy]bool{ReplaceGrowOnly: true, ReplaceOverwrite: true}

// ValidPreemptResumes is the set of recognized preempt-resume policy names.
var ValidPreemptResumes = map[PreemptResume]bool{ResumePreserve: true, ResumeRestart: true}

// ValidTrackedQuantities is the set of recognized tracked quantity names.
var ValidTrackedQuantities = map[TrackedQuantity]bool{
	TrackCapacity: true, TrackFailed: true, TrackBuffer: true, TrackRepairQueue: true, TrackRepairWait: true,
}

// PopulationConfig groups the size and initial state of the device fleet.
type PopulationConfig struct {
	Groups          int     `yaml:"groups"`            // replicated volumes
	DevicesPerGroup int     `yaml:"devices_per_group"` // drives per volume
	InitialCapacity float64 `yaml:"initial_capacity"`  // TB per device at start
}

// FailureConfig groups the failure process and batching parameters.
type FailureConfig struct {
	WeibullScale float64 `yaml:"weibull_scale"` // characteristic life (alpha)
	WeibullShape float64 `yaml:"weibull_shape"` // shape (beta)
	BatchQuota   int     `yaml:"batch_quota"`   // failures that trigger a maintenance visit
}

// RepairConfig groups repair-team and replacement behaviour.
type RepairConfig struct {
	MeanRepairTime     float64           `yaml:"mean_repair_time"`     // floor and jitter mean of a repair
	Replacement        ReplacementPolicy `yaml:"replacement"`          // grow-only or overwrite
	PreemptResume      PreemptResume     `yaml:"preempt_resume"`       // preserve or restart
	ConsumeUnusedSpare bool              `yaml:"consume_unused_spare"` // keep a non-upgrading spare instead of shelving it
}

// SupplyConfig groups the spare buffer, restocking and upgrade processes.
type SupplyConfig struct {
	SpareCapacity    int     `yaml:"spare_capacity"`    // buffer size
	OnHand           int     `yaml:"on_hand"`           // spares seeded at start
	RestockPeriod    float64 `yaml:"restock_period"`    // 0 disables restocking
	UpgradePeriod    float64 `yaml:"upgrade_period"`    // 0 disables upgrades
	UpgradeIncrement float64 `yaml:"upgrade_increment"` // TB added per upgrade
}

// Config is the complete, run-constant configuration of a fleet model.
type Config struct {
	Horizon    float64          `yaml:"horizon"` // virtual hours to simulate
	Seed       int64            `yaml:"seed"`
	Population PopulationConfig `yaml:"population"`
	Failure    FailureConfig    `yaml:"failure"`
	Repair     RepairConfig     `yaml:"repair"`
	Supply     SupplyConfig     `yaml:"supply"`
	Track      TrackedQuantity  `yaml:"track"`
	Trace      trace.TraceLevel `yaml:"trace"`
}

// DefaultConfig returns the reference datacenter: ten years of 1000 ten-drive
// volumes, 300 spares, a crew visit every 200 failures and a 1 TB upgrade
// every 18 months.
func DefaultConfig() Config {
	return Config{
		Horizon: 87660.0,
		Seed:    12345,
		Population: PopulationConfig{
			Groups:          1000,
			DevicesPerGroup: 10,
			InitialCapacity: 1.0,
		},
		Failure: FailureConfig{
			WeibullScale: 50000.0,
			WeibullShape: 2.0,
			BatchQuota:   200,
		},
		Repair: RepairConfig{
			MeanRepairTime:     0.012,
			Replacement:        ReplaceGrowOnly,
			PreemptResume:      ResumePreserve,
			ConsumeUnusedSpare: true,
		},
		Supply: SupplyConfig{
			SpareCapacity:    300,
			OnHand:           300,
			RestockPeriod:    168.0,
			UpgradePeriod:    12960.0,
			UpgradeIncrement: 1.0,
		},
		Track: TrackCapacity,
		Trace: trace.TraceLevelNone,
	}
}

// PopulationSize returns the number of devices in the fleet.
func (c Config) PopulationSize() int {
	return c.Population.Groups * c.Population.DevicesPerGroup
}

// Validate checks every configuration constraint and returns the first violation.
func (c Config) Validate() error {
	if !(c.Horizon > 0) || math.IsInf(c.Horizon, 0) {
		return fmt.Errorf("horizon must be a positive finite number, got %v", c.Horizon)
	}
	if c.Population.Groups <= 0 {
		return fmt.Errorf("population.groups must be positive, got %d", c.Population.Groups)
	}
	if c.Population.DevicesPerGroup <= 0 {
		return fmt.Errorf("population.devices_per_group must be positive, got %d", c.Population.DevicesPerGroup)
	}
	if c.Population.InitialCapacity < 0 {
		return fmt.Errorf("population.initial_capacity must be non-negative, got %v", c.Population.InitialCapacity)
	}
	if !(c.Failure.WeibullScale > 0) {
		return fmt.Errorf("failure.weibull_scale must be positive, got %v", c.Failure.WeibullScale)
	}
	if !(c.Failure.WeibullShape > 0) {
		return fmt.Errorf("failure.weibull_shape must be positive, got %v", c.Failure.WeibullShape)
	}
	if c.Failure.BatchQuota <= 0 || c.Failure.BatchQuota > c.PopulationSize() {
		return fmt.Errorf("failure.batch_quota must be in [1, %d], got %d", c.PopulationSize(), c.Failure.BatchQuota)
	}
	if c.Repair.MeanRepairTime < 0 {
		return fmt.Errorf("repair.mean_repair_time must be non-negative, got %v", c.Repair.MeanRepairTime)
	}
	if !ValidReplacementPolicies[c.Repair.Replacement] {
		return fmt.Errorf("unknown replacement policy %q", c.Repair.Replacement)
	}
	if !ValidPreemptResumes[c.Repair.PreemptResume] {
		return fmt.Errorf("unknown preempt-resume policy %q", c.Repair.PreemptResume)
	}
	if c.Supply.SpareCapacity < 0 {
		return fmt.Errorf("supply.spare_capacity must be non-negative, got %d", c.Supply.SpareCapacity)
	}
	if c.Supply.OnHand < 0 || c.Supply.OnHand > c.Supply.SpareCapacity {
		return fmt.Errorf("supply.on_hand must be in [0, %d], got %d", c.Supply.SpareCapacity, c.Supply.OnHand)
	}
	if c.Supply.RestockPeriod < 0 {
		return fmt.Errorf("supply.restock_period must be non-negative, got %v", c.Supply.RestockPeriod)
	}
	if c.Supply.UpgradePeriod < 0 {
		return fmt.Errorf("supply.upgrade_period must be non-negative, got %v", c.Supply.UpgradePeriod)
	}
	if c.Supply.UpgradeIncrement < 0 {
		return fmt.Errorf("supply.upgrade_increment must be non-negative, got %v", c.Supply.UpgradeIncrement)
	}
	if !ValidTrackedQuantities[c.Track] {
		return fmt.Errorf("unknown tracked quantity %q", c.Track)
	}
	if !trace.IsValidTraceLevel(string(c.Trace)) {
		return fmt.Errorf("unknown trace level %q", c.Trace)
	}
	return nil
}
