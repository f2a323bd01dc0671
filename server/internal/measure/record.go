package measure

import "time"

// isoMillis matches the producer-facing timestamp format: UTC, millisecond
// precision, trailing Z (what the dashboard's Date parser expects).
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Record is one stored sensor observation.
//
// Temp, Humi and Light are nil when the value could not be derived from the
// payload; encoding/json renders nil as null, which consumers treat as
// "fall back to raw.*". The original payload is kept verbatim in Raw and is
// never modified after the record is built.
type Record struct {
	ID    int64          `json:"id"`
	TS    string         `json:"ts"`
	Raw   map[string]any `json:"raw"`
	Temp  *float64       `json:"temp"`
	Humi  *float64       `json:"humi"`
	Light *float64       `json:"light"`
}

// New builds a Record from a producer payload, stamping the id and timestamp
// from now and deriving the numeric fields via Normalize. The id is the unix
// millisecond timestamp; two records in the same millisecond share an id,
// which is accepted — ids order records, they do not key them.
func New(raw map[string]any, now time.Time) Record {
	r := Normalize(raw)
	return Record{
		ID:    now.UnixMilli(),
		TS:    now.UTC().Format(isoMillis),
		Raw:   raw,
		Temp:  r.Temp,
		Humi:  r.Humi,
		Light: r.Light,
	}
}

// Time parses the record's timestamp. Falls back to the id millis when the
// string does not parse (records loaded from a hand-edited backing file).
func (r Record) Time() time.Time {
	if t, err := time.Parse(time.RFC3339, r.TS); err == nil {
		return t
	}
	return time.UnixMilli(r.ID)
}
