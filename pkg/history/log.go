package history

import (
	"context"
	"sync"
)

// Log is the append-only persistence seam for delivery records.
type Log interface {
	// Append stores a record. Records are never updated or removed.
	Append(ctx context.Context, rec Record) error

	// List returns records matching the filter in append order.
	List(ctx context.Context, f Filter) ([]Record, error)
}

// MemoryLog is an in-memory Log for tests and local development.
type MemoryLog struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryLog creates an empty in-memory history log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{}
}

func (l *MemoryLog) Append(ctx context.Context, rec Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = append(l.records, rec)
	return nil
}

func (l *MemoryLog) List(ctx context.Context, f Filter) ([]Record, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Record, 0, len(l.records))
	for _, r := range l.records {
		if f.matches(r) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Len returns the total number of records.
func (l *MemoryLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.records)
}
