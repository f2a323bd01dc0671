package api

import (
	"github.com/espdash/espdash/server/internal/alerts"
	"github.com/espdash/espdash/server/internal/measure"
)

// IngestResponse is the payload for POST /measurements.
type IngestResponse struct {
	OK    bool           `json:"ok"`
	Saved measure.Record `json:"saved"`
}

// LatestResponse is the payload for GET /latest.
// Latest is null when the store is empty.
type LatestResponse struct {
	OK     bool            `json:"ok"`
	Latest *measure.Record `json:"latest"`
}

// HistoryResponse is the payload for GET /history.
// Count is the total store length; Items is the requested window,
// oldest-to-newest.
type HistoryResponse struct {
	OK    bool             `json:"ok"`
	Count int              `json:"count"`
	Items []measure.Record `json:"items"`
}

// AlertsResponse is the payload for GET /alerts.
type AlertsResponse struct {
	OK     bool            `json:"ok"`
	Alerts []*alerts.Alert `json:"alerts"`
}

// HealthResponse is the payload for GET /healthz.
type HealthResponse struct {
	OK            bool  `json:"ok"`
	Count         int   `json:"count"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
