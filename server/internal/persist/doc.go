// Package persist implements the store's pluggable save/load backends.
//
// Persistence is best-effort and snapshot-shaped: every save replaces the
// previously persisted state with the full record sequence. Two real
// backends exist — File (a JSON array, atomically replaced via temp file +
// rename) and SQLite (one row per record via modernc.org/sqlite) — plus Nop
// for disabled persistence. The store decides what to do with failures;
// backends only report them.
package persist
