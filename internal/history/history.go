package history

import (
	"sync"
	"time"

	"codeberg.org/halver/sysmond/internal/collector"
)

// DefaultCapacity bounds the rolling history when no capacity is given.
const DefaultCapacity = 60

// Store keeps a bounded, arrival-ordered series of host samples as three
// parallel sequences of equal length. Capacity is fixed at construction.
type Store struct {
	mu       sync.RWMutex
	capacity int
	times    []time.Time
	cpu      []float64
	memory   []float64
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Store{
		capacity: capacity,
		times:    make([]time.Time, 0, capacity),
		cpu:      make([]float64, 0, capacity),
		memory:   make([]float64, 0, capacity),
	}
}

// Append records the sample's timestamp, CPU and memory percentages,
// evicting the oldest triple once the store is at capacity. Entries are
// kept in arrival order and never re-sorted by timestamp.
func (s *Store) Append(sample collector.Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.times = append(s.times, sample.Timestamp)
	s.cpu = append(s.cpu, sample.CPUPercent)
	s.memory = append(s.memory, sample.MemoryPercent)

	if len(s.times) > s.capacity {
		s.times = s.times[1:]
		s.cpu = s.cpu[1:]
		s.memory = s.memory[1:]
	}
}

// Snapshot returns copies of the three sequences, oldest first. Mutating
// a snapshot cannot corrupt the store.
func (s *Store) Snapshot() (times []time.Time, cpu, memory []float64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	times = make([]time.Time, len(s.times))
	cpu = make([]float64, len(s.cpu))
	memory = make([]float64, len(s.memory))
	copy(times, s.times)
	copy(cpu, s.cpu)
	copy(memory, s.memory)

	return times, cpu, memory
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.times)
}

func (s *Store) Capacity() int {
	return s.capacity
}
