package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fleetsim/fleetsim/sim/fleet"
	"github.com/fleetsim/fleetsim/sim/trace"
)

var (
	// CLI flags for the experiment source
	configPath string  // Experiment YAML file
	presetName string  // Built-in preset to start from
	seed       int64   // Single seed
	seeds      []int64 // Seed list, one run per seed
	logLevel   string  // Log verbosity level

	// CLI flags for the fleet
	horizon          float64 // Virtual hours to simulate
	groups           int     // Replicated volumes
	devicesPerGroup  int     // Drives per volume
	initialCapacity  float64 // TB per drive at start
	weibullScale     float64 // Weibull characteristic life
	weibullShape     float64 // Weibull shape
	batchQuota       int     // Failures that trigger a crew visit
	meanRepairTime   float64 // Repair floor and jitter mean
	replacement      string  // grow-only or overwrite
	preemptResume    string  // preserve or restart
	consumeUnused    bool    // Keep a non-upgrading spare
	spareCapacity    int     // Stock room size
	onHand           int     // Spares on hand at start
	restockPeriod    float64 // Hours between deliveries
	upgradePeriod    float64 // Hours between capacity upgrades
	upgradeIncrement float64 // TB per upgrade
	track            string  // Quantity exported raw
	traceLevel       string  // none, events or full

	// CLI flags for output
	jsonOut   bool   // Print results as JSON
	seriesOut string // CSV file for the tracked series
	hostStats bool   // Print host footprint after the run
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "fleetsim",
	Short: "Discrete-event reliability simulator for storage drive fleets",
}

// runCmd runs the fleet simulation once per seed
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the fleet simulation",
	Run: func(cmd *cobra.Command, args []string) {
		setLogLevel()

		exp, err := resolveExperiment(cmd)
		if err != nil {
			logrus.Fatalf("Invalid experiment: %v", err)
		}
		logrus.Infof("Running preset %q with %d seed(s)", exp.Preset, len(exp.Seeds))

		startTime := time.Now()
		reports, err := runExperiment(exp)
		if err != nil {
			logrus.Fatalf("Simulation failed: %v", err)
		}

		if jsonOut {
			if err := writeJSON(os.Stdout, reports); err != nil {
				logrus.Fatalf("Writing JSON report: %v", err)
			}
		} else {
			for _, r := range reports {
				printReport(os.Stdout, r)
			}
		}
		if seriesOut != "" {
			if err := writeSeriesCSV(seriesOut, reports); err != nil {
				logrus.Fatalf("Writing series: %v", err)
			}
			logrus.Infof("Wrote %s series to %s", exp.Config.Track, seriesOut)
		}
		if hostStats {
			printHostFootprint(os.Stdout, measureHost(startTime))
		}
		logrus.Info("Simulation complete.")
	},
}

// presetsCmd lists the built-in presets
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List built-in experiment presets",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range PresetNames() {
			p, _ := LookupPreset(name)
			fmt.Fprintf(cmd.OutOrStdout(), "%-16s %s (seeds %v)\n", p.Name, p.Description, p.Seeds)
		}
	},
}

// validateCmd checks an experiment file without running it
var validateCmd = &cobra.Command{
	Use:   "validate <experiment.yaml>",
	Short: "Validate an experiment file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		exp, err := LoadExperiment(args[0])
		if err != nil {
			return err
		}
		out, err := MarshalExperiment(exp)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "# valid: %d devices, %d seed(s)\n%s", exp.Config.PopulationSize(), len(exp.Seeds), out)
		return nil
	},
}

func setLogLevel() {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %s", logLevel)
	}
	logrus.SetLevel(level)
}

// resolveExperiment layers preset, experiment file and explicitly set flags,
// in that order of increasing precedence, and validates only the merged
// config.
func resolveExperiment(cmd *cobra.Command) (*Experiment, error) {
	var exp *Experiment
	if configPath != "" {
		loaded, err := readExperiment(configPath)
		if err != nil {
			return nil, err
		}
		exp = loaded
	} else {
		p, err := LookupPreset(presetName)
		if err != nil {
			return nil, err
		}
		exp = &Experiment{Preset: p.Name, Seeds: p.Seeds, Config: p.Config}
	}
	if configPath != "" && cmd.Flags().Changed("preset") {
		logrus.Warnf("--preset ignored: %s names its own preset (%q)", configPath, exp.Preset)
	}

	applyFlagOverrides(cmd, &exp.Config)

	switch {
	case cmd.Flags().Changed("seeds"):
		exp.Seeds = append([]int64(nil), seeds...)
	case cmd.Flags().Changed("seed"):
		exp.Seeds = []int64{seed}
	}
	if len(exp.Seeds) == 0 {
		exp.Seeds = []int64{exp.Config.Seed}
	}
	if err := exp.Config.Validate(); err != nil {
		return nil, err
	}
	return exp, nil
}

// applyFlagOverrides copies every explicitly set fleet flag into cfg.
func applyFlagOverrides(cmd *cobra.Command, cfg *fleet.Config) {
	f := cmd.Flags()
	if f.Changed("horizon") {
		cfg.Horizon = horizon
	}
	if f.Changed("groups") {
		cfg.Population.Groups = groups
	}
	if f.Changed("devices-per-group") {
		cfg.Population.DevicesPerGroup = devicesPerGroup
	}
	if f.Changed("initial-capacity") {
		cfg.Population.InitialCapacity = initialCapacity
	}
	if f.Changed("weibull-scale") {
		cfg.Failure.WeibullScale = weibullScale
	}
	if f.Changed("weibull-shape") {
		cfg.Failure.WeibullShape = weibullShape
	}
	if f.Changed("quota") {
		cfg.Failure.BatchQuota = batchQuota
	}
	if f.Changed("mean-repair-time") {
		cfg.Repair.MeanRepairTime = meanRepairTime
	}
	if f.Changed("replacement") {
		cfg.Repair.Replacement = fleet.ReplacementPolicy(replacement)
	}
	if f.Changed("preempt-resume") {
		cfg.Repair.PreemptResume = fleet.PreemptResume(preemptResume)
	}
	if f.Changed("consume-unused-spare") {
		cfg.Repair.ConsumeUnusedSpare = consumeUnused
	}
	if f.Changed("spare-capacity") {
		cfg.Supply.SpareCapacity = spareCapacity
		if !f.Changed("on-hand") && cfg.Supply.OnHand > spareCapacity {
			cfg.Supply.OnHand = spareCapacity
		}
	}
	if f.Changed("on-hand") {
		cfg.Supply.OnHand = onHand
	}
	if f.Changed("restock-period") {
		cfg.Supply.RestockPeriod = restockPeriod
	}
	if f.Changed("upgrade-period") {
		cfg.Supply.UpgradePeriod = upgradePeriod
	}
	if f.Changed("upgrade-increment") {
		cfg.Supply.UpgradeIncrement = upgradeIncrement
	}
	if f.Changed("track") {
		cfg.Track = fleet.TrackedQuantity(track)
	}
	if f.Changed("trace") {
		cfg.Trace = trace.TraceLevel(traceLevel)
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// registerRunFlags attaches the run flags to cmd. Defaults mirror the
// baseline preset; only flags set explicitly override a preset or file.
func registerRunFlags(cmd *cobra.Command) {
	def := fleet.DefaultConfig()

	cmd.Flags().StringVar(&configPath, "config", "", "Experiment YAML file (preset, seeds, config)")
	cmd.Flags().StringVar(&presetName, "preset", "baseline", "Built-in preset to start from (list them with the presets command)")
	cmd.Flags().Int64Var(&seed, "seed", def.Seed, "Seed for a single run")
	cmd.Flags().Int64SliceVar(&seeds, "seeds", nil, "Comma-separated seeds, one run per seed")
	cmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")

	// Fleet
	cmd.Flags().Float64Var(&horizon, "horizon", def.Horizon, "Virtual hours to simulate")
	cmd.Flags().IntVar(&groups, "groups", def.Population.Groups, "Number of replicated volumes")
	cmd.Flags().IntVar(&devicesPerGroup, "devices-per-group", def.Population.DevicesPerGroup, "Drives per replicated volume")
	cmd.Flags().Float64Var(&initialCapacity, "initial-capacity", def.Population.InitialCapacity, "Initial capacity of every drive and spare, in TB")
	cmd.Flags().Float64Var(&weibullScale, "weibull-scale", def.Failure.WeibullScale, "Weibull scale (characteristic life, hours)")
	cmd.Flags().Float64Var(&weibullShape, "weibull-shape", def.Failure.WeibullShape, "Weibull shape")
	cmd.Flags().IntVar(&batchQuota, "quota", def.Failure.BatchQuota, "Failed drives that trigger a replacement cycle")
	cmd.Flags().Float64Var(&meanRepairTime, "mean-repair-time", def.Repair.MeanRepairTime, "Mean time to replace a drive, in hours")
	cmd.Flags().StringVar(&replacement, "replacement", string(def.Repair.Replacement), "Replacement policy (grow-only, overwrite)")
	cmd.Flags().StringVar(&preemptResume, "preempt-resume", string(def.Repair.PreemptResume), "Interrupted repairs (preserve, restart)")
	cmd.Flags().BoolVar(&consumeUnused, "consume-unused-spare", def.Repair.ConsumeUnusedSpare, "Keep spares that do not upgrade the drive instead of shelving them")
	cmd.Flags().IntVar(&spareCapacity, "spare-capacity", def.Supply.SpareCapacity, "Stock room capacity")
	cmd.Flags().IntVar(&onHand, "on-hand", def.Supply.OnHand, "Spares in the stock room at start")
	cmd.Flags().Float64Var(&restockPeriod, "restock-period", def.Supply.RestockPeriod, "Hours between restocks (0 disables)")
	cmd.Flags().Float64Var(&upgradePeriod, "upgrade-period", def.Supply.UpgradePeriod, "Hours between spare capacity upgrades (0 disables)")
	cmd.Flags().Float64Var(&upgradeIncrement, "upgrade-increment", def.Supply.UpgradeIncrement, "TB added per upgrade")
	cmd.Flags().StringVar(&track, "track", string(def.Track), "Series exported raw (capacity, failed, buffer, repair-queue, repair-wait)")
	cmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelNone), "Trace level (none, events, full)")

	// Output
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print results as JSON instead of text")
	cmd.Flags().StringVar(&seriesOut, "series-out", "", "Write the tracked series of every run to this CSV file")
	cmd.Flags().BoolVar(&hostStats, "host-stats", false, "Print wall time, RSS and CPU of the simulator process")
}

// init sets up CLI flags and subcommands
func init() {
	registerRunFlags(runCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(validateCmd)
}
