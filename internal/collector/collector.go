package collector

import (
	"sort"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"

	"codeberg.org/halver/sysmond/internal/errors"
)

const (
	terminateTimeout = 3 * time.Second
	terminatePoll    = 100 * time.Millisecond
	bytesPerMB       = 1024 * 1024
)

// collector reads host and process metrics through gopsutil. Process
// handles are cached across calls so per-process CPU percentages are
// deltas between snapshots rather than since process start.
type collector struct {
	mu      sync.Mutex
	handles map[int32]*process.Process
}

func New() Source {
	// Prime the kernel CPU counter so the next Sample reads a real delta.
	// The first reading after start may still report 0.
	_, _ = cpu.Percent(0, false)

	return &collector{handles: make(map[int32]*process.Process)}
}

func (c *collector) Sample() (Sample, error) {
	errFactory := errors.New()

	percentages, err := cpu.Percent(0, false)
	if err != nil {
		return Sample{}, errFactory.Wrap(ErrSampleFailed, err)
	}
	if len(percentages) == 0 {
		return Sample{}, errFactory.WithMessage(ErrSampleFailed, "no CPU readings returned")
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return Sample{}, errFactory.Wrap(ErrSampleFailed, err)
	}

	return Sample{
		Timestamp:     time.Now(),
		CPUPercent:    percentages[0],
		MemoryPercent: vm.UsedPercent,
		MemoryUsed:    vm.Used,
		MemoryTotal:   vm.Total,
	}, nil
}

func (c *collector) Processes() ([]ProcessInfo, error) {
	errFactory := errors.New()

	procs, err := process.Processes()
	if err != nil {
		return nil, errFactory.Wrap(ErrProcessListFailed, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	seen := make(map[int32]struct{}, len(procs))
	infos := make([]ProcessInfo, 0, len(procs))

	for _, p := range procs {
		seen[p.Pid] = struct{}{}

		handle, ok := c.handles[p.Pid]
		if !ok {
			handle = p
			c.handles[p.Pid] = p
		}

		info, ok := readProcess(handle)
		if !ok {
			// Vanished, denied, or turned zombie mid-read.
			continue
		}
		infos = append(infos, info)
	}

	// Drop handles for pids no longer in the process table.
	for pid := range c.handles {
		if _, ok := seen[pid]; !ok {
			delete(c.handles, pid)
		}
	}

	SortByCPU(infos)

	return infos, nil
}

// readProcess collects per-process details best-effort. A false return
// means the entry should be excluded from the snapshot.
func readProcess(p *process.Process) (ProcessInfo, bool) {
	name, err := p.Name()
	if err != nil {
		return ProcessInfo{}, false
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return ProcessInfo{}, false
	}

	info := ProcessInfo{
		PID:        p.Pid,
		Name:       name,
		Status:     "unknown",
		CPUPercent: cpuPercent,
	}

	if statuses, err := p.Status(); err == nil && len(statuses) > 0 {
		info.Status = statuses[0]
	}

	if memInfo, err := p.MemoryInfo(); err == nil && memInfo != nil {
		info.MemoryMB = float64(memInfo.RSS) / bytesPerMB
	}

	return info, true
}

// SortByCPU sorts a process snapshot by CPU usage descending. The sort
// is stable: ties keep their original enumeration order.
func SortByCPU(infos []ProcessInfo) {
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].CPUPercent > infos[j].CPUPercent
	})
}

func (c *collector) Terminate(pid int32) bool {
	p, err := process.NewProcess(pid)
	if err != nil {
		// No such pid.
		return false
	}

	if err := p.Terminate(); err != nil {
		return false
	}

	deadline := time.Now().Add(terminateTimeout)
	for time.Now().Before(deadline) {
		running, err := p.IsRunning()
		if err != nil || !running {
			return true
		}
		time.Sleep(terminatePoll)
	}

	return false
}
