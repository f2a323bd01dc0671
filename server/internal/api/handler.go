package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/espdash/espdash/server/internal/alerts"
	"github.com/espdash/espdash/server/internal/metrics"
	"github.com/espdash/espdash/server/internal/store"
)

// maxBodyBytes caps an ingestion request body. Sensor payloads are tiny;
// anything near this size is not a sensor.
const maxBodyBytes = 1 << 20

// Handler is the HTTP handler for the measurement API.
// It owns the ingestion path and the read projections over the store.
type Handler struct {
	store   *store.Store
	engine  *alerts.Engine
	mux     *http.ServeMux
	started time.Time
}

// New creates a Handler wired to the given store and alert engine and
// registers all routes. engine may be nil when alerting is not configured.
func New(st *store.Store, engine *alerts.Engine) *Handler {
	h := &Handler{
		store:   st,
		engine:  engine,
		mux:     http.NewServeMux(),
		started: time.Now(),
	}

	h.mux.HandleFunc("/measurements", h.ingest)
	h.mux.HandleFunc("/latest", h.latest)
	h.mux.HandleFunc("/history", h.history)
	h.mux.HandleFunc("/alerts", h.alerts)
	h.mux.HandleFunc("/healthz", h.healthz)

	return h
}

// Routes lists the paths this handler serves, for mounting on an outer mux
// that also carries /metrics, /ws/stream and the static UI.
func (h *Handler) Routes() []string {
	return []string{"/measurements", "/latest", "/history", "/alerts", "/healthz"}
}

// ServeHTTP applies CORS headers to every response and answers preflight
// before routing. The dashboard may be served from a different origin than
// the API, and the firmware sends no Origin at all.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// ingest handles POST /measurements — one producer payload in, the saved
// record out. Only a missing or syntactically broken body is rejected;
// semantically useless payloads are stored anyway with null sensor fields.
func (h *Handler) ingest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil || len(body) == 0 {
		metrics.RejectedTotal.Inc()
		jsonErr(w, http.StatusBadRequest, "empty body")
		return
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		metrics.RejectedTotal.Inc()
		jsonErr(w, http.StatusBadRequest, "invalid json")
		return
	}

	rec := h.store.Append(raw)
	metrics.IngestedTotal.Inc()
	if rec.Temp == nil && rec.Humi == nil && rec.Light == nil {
		metrics.EmptyReadingsTotal.Inc()
		slog.Warn("ingest: no numeric field derivable — stored raw payload only", "id", rec.ID)
	}
	h.engine.Evaluate(rec)

	jsonResp(w, http.StatusOK, IngestResponse{OK: true, Saved: rec})
}

// latest handles GET /latest — the most recent record, or null.
func (h *Handler) latest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := LatestResponse{OK: true}
	if rec, ok := h.store.Latest(); ok {
		resp.Latest = &rec
	}
	jsonResp(w, http.StatusOK, resp)
}

// history handles GET /history?limit= — the last min(limit, length) records
// oldest-to-newest, plus the total store length. An absent or unparseable
// limit falls back to the store's default.
func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items := h.store.Tail(limit)
	jsonResp(w, http.StatusOK, HistoryResponse{
		OK:    true,
		Count: h.store.Len(),
		Items: items,
	})
}

// alerts handles GET /alerts — firing alerts plus recently resolved ones.
func (h *Handler) alerts(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	resp := AlertsResponse{OK: true, Alerts: []*alerts.Alert{}}
	if h.engine != nil {
		resp.Alerts = h.engine.Active()
	}
	jsonResp(w, http.StatusOK, resp)
}

// healthz handles GET /healthz — liveness plus basic store stats.
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	jsonResp(w, http.StatusOK, HealthResponse{
		OK:            true,
		Count:         h.store.Len(),
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
	})
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
