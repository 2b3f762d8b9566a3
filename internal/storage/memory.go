package storage

import (
	"context"
	"sync"

	"github.com/quarrylabs/leadharvest/internal/extract"
)

// MemorySink keeps records in memory. Used for dry runs and tests.
type MemorySink struct {
	mu    sync.Mutex
	leads []extract.LeadRecord
}

// NewMemorySink returns an empty in-memory sink.
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// Save stages one record.
func (s *MemorySink) Save(_ context.Context, lead extract.LeadRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads = append(s.leads, lead)
	return nil
}

// Flush is a no-op; saved records are already visible.
func (s *MemorySink) Flush(context.Context) error { return nil }

// Close is a no-op.
func (s *MemorySink) Close() {}

// Leads returns a copy of everything saved so far.
func (s *MemorySink) Leads() []extract.LeadRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]extract.LeadRecord, len(s.leads))
	copy(out, s.leads)
	return out
}
