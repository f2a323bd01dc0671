// Package store holds the bounded in-memory measurement log and drives its
// persistence. It keeps the most recent N records in ingestion order,
// evicting from the front, and snapshots the full sequence through a
// persist.Persister after every append. Reads never fail; persistence
// failures are logged and swallowed.
package store
