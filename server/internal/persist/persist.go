package persist

import "github.com/espdash/espdash/server/internal/measure"

// Persister is the save/load contract the store persists through.
//
// Save receives the full record sequence and must replace any previously
// persisted state wholesale — the store never writes deltas. Load returns
// the previously saved sequence in order; a backend with nothing saved yet
// returns (nil, nil), not an error.
type Persister interface {
	Load() ([]measure.Record, error)
	Save(records []measure.Record) error
}

// Nop discards saves and loads nothing. Used when persistence is disabled
// and as the default in tests.
type Nop struct{}

func (Nop) Load() ([]measure.Record, error)  { return nil, nil }
func (Nop) Save([]measure.Record) error      { return nil }
