// Package shipper delivers sensor payloads to espdash-server over HTTP
// (POST /measurements).
//
// Shipper.Ship() is non-blocking: payloads are placed in an in-memory
// channel (default capacity 100). When the buffer is full the oldest entry
// is evicted so the newest reading is always preserved.
//
// Shipper.Run() drains the buffer in a loop, retrying with truncated
// exponential backoff (1s→60s, ±25% jitter) on connection or server errors.
// A 4xx response is permanent — the payload is discarded rather than
// retried forever.
package shipper
