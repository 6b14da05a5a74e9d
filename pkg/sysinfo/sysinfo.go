package sysinfo

import (
	"fmt"
	"runtime"

	"github.com/df07/go-whitted-raytracer/pkg/core"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Info describes the host a render runs on
type Info struct {
	CPUModel     string  `json:"cpuModel"`
	ClockGHz     float64 `json:"clockGHz"`
	LogicalCores int     `json:"logicalCores"`
	TotalRAMGB   float64 `json:"totalRamGB"`
	GoMaxProcs   int     `json:"goMaxProcs"`
}

// Describe gathers host information. Fields that cannot be read are left
// at their zero value and the first error is returned alongside the partial result.
func Describe() (Info, error) {
	info := Info{
		LogicalCores: runtime.NumCPU(),
		GoMaxProcs:   runtime.GOMAXPROCS(0),
	}
	var firstErr error

	cpuInfo, err := cpu.Info()
	switch {
	case err != nil:
		firstErr = fmt.Errorf("cpu info: %w", err)
	case len(cpuInfo) > 0:
		info.CPUModel = cpuInfo[0].ModelName
		info.ClockGHz = cpuInfo[0].Mhz / 1000
	}

	if cores, err := cpu.Counts(true); err == nil && cores > 0 {
		info.LogicalCores = cores
	}

	memInfo, err := mem.VirtualMemory()
	if err != nil {
		if firstErr == nil {
			firstErr = fmt.Errorf("memory info: %w", err)
		}
	} else {
		info.TotalRAMGB = float64(memInfo.Total) / (1024 * 1024 * 1024)
	}

	return info, firstErr
}

// describe is swapped out in tests
var describe = Describe

// Report describes the host and logs it. When some fields cannot be read the
// partial result is still logged and returned.
func Report(logger core.Logger) Info {
	info, err := describe()
	if err != nil {
		logger.Printf("Host information incomplete: %v", err)
	}
	logger.Printf("Host: %s", info)
	return info
}

// String formats the info for a log line
func (i Info) String() string {
	model := i.CPUModel
	if model == "" {
		model = "unknown CPU"
	}
	return fmt.Sprintf("%s @ %.2f GHz, %d logical cores, %.1f GB RAM, GOMAXPROCS=%d",
		model, i.ClockGHz, i.LogicalCores, i.TotalRAMGB, i.GoMaxProcs)
}
