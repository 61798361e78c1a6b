package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/sirupsen/logrus"
)

// HostFootprint is what the simulator process cost the machine it ran on.
type HostFootprint struct {
	WallTime   time.Duration
	RSSBytes   uint64
	CPUPercent float64
}

// measureHost samples this process. Probe failures are logged and leave the
// corresponding field zero.
func measureHost(start time.Time) HostFootprint {
	fp := HostFootprint{WallTime: time.Since(start)}
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logrus.Warnf("Host stats unavailable: %v", err)
		return fp
	}
	if mem, err := p.MemoryInfo(); err == nil {
		fp.RSSBytes = mem.RSS
	} else {
		logrus.Warnf("Reading RSS: %v", err)
	}
	if cpu, err := p.CPUPercent(); err == nil {
		fp.CPUPercent = cpu
	} else {
		logrus.Warnf("Reading CPU: %v", err)
	}
	return fp
}

func printHostFootprint(w io.Writer, fp HostFootprint) {
	fmt.Fprintf(w, "Host: wall %s, RSS %.1f MiB, CPU %.1f%%\n",
		fp.WallTime.Round(time.Millisecond), float64(fp.RSSBytes)/(1<<20), fp.CPUPercent)
}
