// Package api implements the HTTP JSON API for espdash-server.
//
// New(store, engine) returns a handler that serves:
//
//	POST /measurements — ingest one producer payload; 400 only for an
//	                     empty or non-JSON body, never for bad sensor values
//	GET  /latest       — most recent record, or null
//	GET  /history      — last ?limit= records (clamped [1,2000], default 200)
//	GET  /alerts       — firing alerts plus recently resolved ones
//	GET  /healthz      — liveness and store size
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Carry permissive CORS headers; OPTIONS preflight answers 204
//   - Return 405 for unexpected methods
//
// JSON types are defined in types.go. No external HTTP framework is used.
package api
