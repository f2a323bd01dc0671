package shipper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/espdash/espdash/agent/internal/config"
)

// mockServer records ingestion requests and can reject the first N of them.
type mockServer struct {
	mu       sync.Mutex
	received []map[string]any
	rejectN  int // answer the first N calls with this status
	status   int
}

func (m *mockServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()

		if m.rejectN > 0 {
			m.rejectN--
			http.Error(w, "rejected", m.status)
			return
		}

		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		m.received = append(m.received, payload)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok":true}`)) //nolint:errcheck
	}
}

func (m *mockServer) payloads() []map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]map[string]any, len(m.received))
	copy(out, m.received)
	return out
}

func newShipper(t *testing.T, srv *mockServer, bufSize int) *Shipper {
	t.Helper()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)
	return New(config.AgentConfig{ServerURL: ts.URL, BufferSize: bufSize})
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	// Generous deadline: the retry tests sit through one or two backoff
	// waits before the delivery lands.
	deadline := time.Now().Add(8 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestShip_Delivers(t *testing.T) {
	srv := &mockServer{}
	s := newShipper(t, srv, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Ship(map[string]any{"valueA": 22.5})

	waitFor(t, func() bool { return len(srv.payloads()) == 1 }, "payload not delivered")
	if got := srv.payloads()[0]["valueA"]; got != 22.5 {
		t.Errorf("valueA: got %v, want 22.5", got)
	}
}

func TestShip_BufferFullEvictsOldest(t *testing.T) {
	srv := &mockServer{}
	s := newShipper(t, srv, 2)
	// No Run loop — buffer fills up.

	s.Ship(map[string]any{"n": 1.0})
	s.Ship(map[string]any{"n": 2.0})
	s.Ship(map[string]any{"n": 3.0}) // evicts 1

	if s.Pending() != 2 {
		t.Fatalf("Pending: got %d, want 2", s.Pending())
	}

	first := <-s.buf
	if first["n"] != 2.0 {
		t.Errorf("oldest surviving payload: got %v, want 2", first["n"])
	}
}

func TestRun_RetriesOnServerError(t *testing.T) {
	srv := &mockServer{rejectN: 2, status: http.StatusInternalServerError}
	s := newShipper(t, srv, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Ship(map[string]any{"valueA": 1.0})

	// Two 500s, then success on the third attempt (after ~1s+2s backoff).
	waitFor(t, func() bool { return len(srv.payloads()) == 1 },
		"payload not delivered after retries")
}

func TestRun_DiscardsOnClientError(t *testing.T) {
	srv := &mockServer{rejectN: 1, status: http.StatusBadRequest}
	s := newShipper(t, srv, 10)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	s.Ship(map[string]any{"valueA": 1.0})
	s.Ship(map[string]any{"valueA": 2.0})

	// The first payload hits the 400 and is dropped; the second lands.
	waitFor(t, func() bool { return len(srv.payloads()) == 1 }, "second payload not delivered")
	time.Sleep(100 * time.Millisecond)
	if n := len(srv.payloads()); n != 1 {
		t.Errorf("delivered: got %d, want 1 (4xx payload must be dropped)", n)
	}
	if got := srv.payloads()[0]["valueA"]; got != 2.0 {
		t.Errorf("delivered valueA: got %v, want 2", got)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	srv := &mockServer{}
	s := newShipper(t, srv, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestBackoff_GrowsAndResets(t *testing.T) {
	bo := newBackoff()

	first := bo.next()
	if first > backoffInitial+backoffInitial/4 {
		t.Errorf("first backoff: got %v, want ≈%v", first, backoffInitial)
	}

	// Advance far enough to hit the cap.
	for i := 0; i < 10; i++ {
		bo.next()
	}
	if bo.current != backoffMax {
		t.Errorf("current after growth: got %v, want cap %v", bo.current, backoffMax)
	}

	bo.reset()
	if bo.current != backoffInitial {
		t.Errorf("current after reset: got %v, want %v", bo.current, backoffInitial)
	}
}
