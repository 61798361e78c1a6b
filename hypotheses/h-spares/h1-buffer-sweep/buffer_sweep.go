// H1 Spare Buffer Sizing Sweep
//
// Hypothesis: below some stock-room size the fleet starts losing capacity to
// drives that sit dead waiting for a spare, and above it extra spares buy
// nothing. This program runs the reference fleet across a range of spare
// capacities and seeds and writes one CSV row per run.
//
// Usage: go run buffer_sweep.go --spares 50,100,200,300,400 --seeds 12345,54321 --output buffer_sweep.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/fleetsim/fleetsim/sim/fleet"
)

func main() {
	sparesFlag := flag.String("spares", "50,100,200,300,400", "Comma-separated spare capacities to sweep")
	seedsFlag := flag.String("seeds", "12345,54321,99999,1", "Comma-separated seeds per capacity")
	horizon := flag.Float64("horizon", 87660, "Virtual hours per run")
	quota := flag.Int("quota", 200, "Failures per crew visit")
	output := flag.String("output", "buffer_sweep.csv", "Output CSV path")
	flag.Parse()

	spares, err := parseInts(*sparesFlag)
	if err != nil {
		log.Fatalf("--spares: %v", err)
	}
	seeds, err := parseInts(*seedsFlag)
	if err != nil {
		log.Fatalf("--seeds: %v", err)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("Create %s: %v", *output, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	w.Write([]string{
		"spare_capacity", "seed", "total_capacity", "failures", "repairs",
		"pending_failures", "buffer_tave", "repair_queue_tave", "failed_tave",
	})

	for _, capacity := range spares {
		for _, seed := range seeds {
			fmt.Fprintf(os.Stderr, "spares=%d seed=%d\n", capacity, seed)
			cfg := fleet.DefaultConfig()
			cfg.Horizon = *horizon
			cfg.Seed = int64(seed)
			cfg.Failure.BatchQuota = *quota
			cfg.Supply.SpareCapacity = capacity
			cfg.Supply.OnHand = capacity

			m, err := fleet.NewModel(cfg)
			if err != nil {
				log.Fatalf("spares=%d: %v", capacity, err)
			}
			res, err := m.Run()
			if err != nil {
				log.Fatalf("spares=%d seed=%d: %v", capacity, seed, err)
			}

			w.Write([]string{
				strconv.Itoa(capacity),
				strconv.Itoa(seed),
				fmt.Sprintf("%.3f", res.TotalCapacity),
				strconv.Itoa(res.Failures),
				strconv.Itoa(res.Repairs),
				strconv.Itoa(res.PendingFailures),
				fmt.Sprintf("%.6f", timeAverage(res, fleet.TrackBuffer)),
				fmt.Sprintf("%.6f", timeAverage(res, fleet.TrackRepairQueue)),
				fmt.Sprintf("%.6f", timeAverage(res, fleet.TrackFailed)),
			})
		}
	}

	fmt.Fprintf(os.Stderr, "Sweep complete. Output in %s\n", *output)
}

func timeAverage(res *fleet.Result, q fleet.TrackedQuantity) float64 {
	s, ok := res.Summary(q)
	if !ok {
		return 0
	}
	return s.TimeAverage
}

func parseInts(list string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(list, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
