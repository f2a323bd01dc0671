// Package config loads the server-side configuration from the `server:`
// section of config.yaml (the `agent:` key is ignored by the server binary).
//
// Config fields:
//   - HTTPPort        — port for the HTTP API, WebSocket hub and /metrics (default 8080)
//   - Store.Capacity  — max records kept in memory, oldest evicted first (default 1000)
//   - Store.Backend   — persistence backend: file | sqlite | none (default file)
//   - Store.Path      — backing file or database location (default data.json)
//   - Stream.Interval — WebSocket broadcast cadence (default 5s)
//   - Alerts          — threshold rules and webhook delivery targets
//
// Load(path) applies defaults before unmarshalling, then validates.
package config
