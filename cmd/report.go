package cmd

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/fleetsim/fleetsim/sim"
	"github.com/fleetsim/fleetsim/sim/fleet"
	"github.com/fleetsim/fleetsim/sim/trace"
)

// runNamespace scopes run IDs so that the same config and seed always map to
// the same ID.
var runNamespace = uuid.MustParse("3f0c1b8e-5d8e-4c51-9a53-52a1f9e0c7d4")

// RunReport is the outcome of one seed of an experiment.
type RunReport struct {
	RunID        string              `json:"run_id"`
	Preset       string              `json:"preset"`
	Result       *fleet.Result       `json:"result"`
	TraceSummary *trace.TraceSummary `json:"trace_summary,omitempty"`
}

// runExperiment runs the experiment once per seed, in seed order.
func runExperiment(exp *Experiment) ([]*RunReport, error) {
	reports := make([]*RunReport, 0, len(exp.Seeds))
	for _, s := range exp.Seeds {
		cfg := exp.Config
		cfg.Seed = s
		m, err := fleet.NewModel(cfg)
		if err != nil {
			return nil, err
		}
		res, err := m.Run()
		if err != nil {
			return nil, fmt.Errorf("seed %d: %w", s, err)
		}
		id, err := runID(cfg)
		if err != nil {
			return nil, err
		}
		r := &RunReport{RunID: id, Preset: exp.Preset, Result: res}
		if res.Trace != nil {
			r.TraceSummary = trace.Summarize(res.Trace)
		}
		logrus.Infof("Run %s (seed %d) finished", id, s)
		reports = append(reports, r)
	}
	return reports, nil
}

// runID derives a stable identifier from the complete run configuration.
func runID(cfg fleet.Config) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encoding config for run id: %w", err)
	}
	return uuid.NewSHA1(runNamespace, data).String(), nil
}

// printReport writes one run's results in plain text.
func printReport(w io.Writer, r *RunReport) {
	res := r.Result
	fmt.Fprintf(w, "=== Run %s (preset %s, seed %d) ===\n", r.RunID, r.Preset, res.Seed)
	fmt.Fprintf(w, "\nTotal capacity: %.1f TB over %d drives\n", res.TotalCapacity, res.Population)
	fmt.Fprintf(w, "Spare size at end: %.1f TB after %d upgrade(s)\n", res.UpgradeSize, res.Upgrades)
	fmt.Fprintf(w, "Failures: %d  Repairs: %d  Preemptions: %d  Crew visits: %d  Pending: %d\n",
		res.Failures, res.Repairs, res.Preemptions, res.Batches, res.PendingFailures)
	fmt.Fprintf(w, "Restocks: %d (%d spares delivered), %d on the shelf at end\n", res.Restocks, res.Delivered, res.BufferLevel)
	fmt.Fprintf(w, "Events executed: %d\n\n", res.EventsExecuted)

	titles := map[string]string{
		string(fleet.TrackRepairQueue): "Drives waiting on tech during replacement",
		string(fleet.TrackRepairWait):  "Hours waited for the tech",
		string(fleet.TrackBuffer):      "Drives in the stock room",
		string(fleet.TrackCapacity):    "Aggregate capacity (TB)",
		string(fleet.TrackFailed):      "Dead drives waiting for replacement cycle",
	}
	for _, s := range res.Summaries {
		printSummary(w, titles[s.Name], s)
	}

	if len(res.GroupCapacity) > 0 && len(res.GroupCapacity) <= 20 {
		fmt.Fprintln(w, "Capacity per group:")
		for g, c := range res.GroupCapacity {
			fmt.Fprintf(w, "  %4d: %.1f\n", g, c)
		}
	}
	if ts := r.TraceSummary; ts != nil {
		fmt.Fprintln(w, "Trace:")
		fmt.Fprintf(w, "  Broadcasts: %d (mean %.1f released)\n", ts.Broadcasts, ts.MeanReleased)
		fmt.Fprintf(w, "  Grants: %d  Preemptions: %d  Completions: %d\n", ts.Grants, ts.Preemptions, ts.Completions)
		fmt.Fprintf(w, "  Wait: mean %.4f h, max %.4f h\n", ts.MeanWait, ts.MaxWait)
		fmt.Fprintf(w, "  Restocks: %d (%d units)  Upgrades: %d (final %.1f TB)\n",
			ts.Restocks, ts.UnitsDelivered, ts.Upgrades, ts.FinalUpgradeSize)
	}
	fmt.Fprintln(w)
}

func printSummary(w io.Writer, title string, s sim.Summary) {
	fmt.Fprintf(w, "%s:\n", title)
	fmt.Fprintf(w, "  Count: %d\n", s.Count)
	fmt.Fprintf(w, "  Total: %g\n", s.Total)
	fmt.Fprintf(w, "  Mean:  %g\n", s.Mean)
	fmt.Fprintf(w, "  Var:   %g\n", s.Variance)
	fmt.Fprintf(w, "  TAve:  %g\n", s.TimeAverage)
}

// writeJSON writes every report as one indented JSON array.
func writeJSON(w io.Writer, reports []*RunReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(reports)
}

// writeSeriesCSV writes the tracked series of every run as long-format rows:
// run_id, seed, quantity, time, value.
func writeSeriesCSV(path string, reports []*RunReport) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if err := writeSeries(f, reports); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

func writeSeries(w io.Writer, reports []*RunReport) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"run_id", "seed", "quantity", "time", "value"}); err != nil {
		return err
	}
	for _, r := range reports {
		seedStr := strconv.FormatInt(r.Result.Seed, 10)
		for _, o := range r.Result.Series {
			row := []string{
				r.RunID,
				seedStr,
				string(r.Result.Tracked),
				strconv.FormatFloat(o.Time, 'g', -1, 64),
				strconv.FormatFloat(o.Value, 'g', -1, 64),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
