package telemetry

import (
	"context"
	"time"
)

// Collector records tick outcomes for later analysis. It is an audit
// sink only: the in-memory rolling history is never restored from it.
type Collector interface {
	Record(ctx context.Context, record *TickRecord) error
	Close() error
}

// Repository defines the interface for telemetry storage.
type Repository interface {
	Store(ctx context.Context, record *TickRecord) error
	Close() error
}

// TickRecord is one persisted tick outcome.
type TickRecord struct {
	Timestamp     time.Time
	CPUPercent    float64
	MemoryPercent float64
	MemoryUsed    uint64
	MemoryTotal   uint64
	AlertCount    int
}
