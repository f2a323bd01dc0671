package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/espdash/espdash/server/internal/measure"
	"github.com/espdash/espdash/server/internal/metrics"
	"github.com/espdash/espdash/server/internal/persist"
)

const (
	// DefaultCapacity bounds the store to the most recent N records.
	DefaultCapacity = 1000

	// Limit bounds for Tail. A zero or negative limit falls back to the
	// default; anything above MaxLimit is clamped down to it.
	DefaultLimit = 200
	MaxLimit     = 2000
)

// Store is the bounded, ordered, persisted measurement log.
//
// Records are kept in ingestion order; when capacity is exceeded the oldest
// records are dropped from the front. Every successful append persists the
// full sequence through the Persister; persistence failures are logged and
// swallowed — the in-memory state stays authoritative for the running
// process. Append/trim/persist runs as one critical section so the capacity
// and ordering invariants hold under concurrent producers.
type Store struct {
	mu        sync.Mutex
	records   []measure.Record
	capacity  int
	persister persist.Persister
	now       func() time.Time // injectable for deterministic tests
}

// New creates a Store with the given capacity, persisting through p.
// A capacity <= 0 falls back to DefaultCapacity.
func New(capacity int, p persist.Persister) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if p == nil {
		p = persist.Nop{}
	}
	return &Store{
		capacity:  capacity,
		persister: p,
		now:       time.Now,
	}
}

// Load pulls the initial state from the persister. Failures are logged and
// leave the store empty — a broken backing file must not stop the server.
// Loaded state beyond capacity is trimmed like any other mutation.
func (s *Store) Load() {
	records, err := s.persister.Load()
	if err != nil {
		slog.Error("store: load failed — starting empty", "err", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = records
	s.trim()
	metrics.StoreRecords.Set(float64(len(s.records)))
	if n := len(s.records); n > 0 {
		slog.Info("store: loaded persisted measurements", "count", n)
	}
}

// Append builds a record from raw, stamps id and timestamp, appends it,
// trims to capacity, and persists the full sequence. It never fails from
// the caller's point of view; the saved record is always returned.
func (s *Store) Append(raw map[string]any) measure.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := measure.New(raw, s.now())
	s.records = append(s.records, rec)
	s.trim()
	metrics.StoreRecords.Set(float64(len(s.records)))

	if err := s.persister.Save(s.records); err != nil {
		metrics.PersistFailuresTotal.Inc()
		slog.Error("store: persist failed — in-memory state remains authoritative", "err", err)
	}
	return rec
}

// Latest returns the most recent record, or false when the store is empty.
func (s *Store) Latest() (measure.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return measure.Record{}, false
	}
	return s.records[len(s.records)-1], true
}

// Tail returns a copy of the last min(limit, Len) records in insertion
// order. A limit <= 0 falls back to DefaultLimit; limits above MaxLimit are
// clamped to MaxLimit.
func (s *Store) Tail(limit int) []measure.Record {
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if limit > len(s.records) {
		limit = len(s.records)
	}
	out := make([]measure.Record, limit)
	copy(out, s.records[len(s.records)-limit:])
	return out
}

// Len returns the number of records currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// trim drops oldest records until len == capacity. Caller holds mu.
func (s *Store) trim() {
	if len(s.records) > s.capacity {
		s.records = s.records[len(s.records)-s.capacity:]
	}
}
