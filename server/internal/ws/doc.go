// Package ws implements the WebSocket hub for espdash-server.
//
// Hub manages a set of connected dashboard clients and broadcasts the
// current measurement snapshot to all of them on a configurable interval
// (default 5s in production).
//
// New(store, interval) creates a Hub.
// Hub.Run(ctx) starts the broadcast ticker — blocks until ctx is cancelled,
// then closes all active connections.
// Hub.ServeHTTP upgrades an HTTP connection to WebSocket, sends the current
// snapshot immediately on connect, then streams updates on each tick.
//
// Message format sent to clients:
//
//	{
//	  "event": "measurement",
//	  "data":  { "latest": <record>|null, "count": <int>, "generated_at": <RFC3339> }
//	}
//
// The upgrader accepts all origins, matching the HTTP API's open CORS
// policy. WebSocket endpoint is mounted at /ws/stream by the server.
package ws
