package collector

import "time"

// Source is the OS-facing sampling contract consumed by the monitor.
type Source interface {
	// Sample returns one system-wide reading. It fails closed: an OS
	// query error is returned as an error, never as a zeroed sample.
	Sample() (Sample, error)

	// Processes returns a snapshot of all visible processes, sorted by
	// CPU usage descending. Entries that vanish or deny access during
	// collection are silently dropped.
	Processes() ([]ProcessInfo, error)

	// Terminate requests graceful termination of pid and waits for the
	// process to exit. It reports whether the process is confirmed gone.
	Terminate(pid int32) bool
}

// Sample is a single system-wide reading. Immutable once returned.
type Sample struct {
	Timestamp     time.Time
	CPUPercent    float64
	MemoryPercent float64
	MemoryUsed    uint64
	MemoryTotal   uint64
}

// ProcessInfo is a point-in-time snapshot of one process. Pids may be
// recycled by the OS between snapshots; no identity is preserved across
// calls beyond the pid itself.
type ProcessInfo struct {
	PID        int32
	Name       string
	Status     string
	CPUPercent float64 // may exceed 100 on multi-core hosts
	MemoryMB   float64 // resident set size
}
