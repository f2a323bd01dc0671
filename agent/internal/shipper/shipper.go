package shipper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/espdash/espdash/agent/internal/config"
)

const (
	backoffInitial    = 1 * time.Second
	backoffMax        = 60 * time.Second
	backoffMultiplier = 2.0
	sendTimeout       = 10 * time.Second
)

// Shipper buffers sensor payloads and POSTs them to espdash-server's
// ingestion endpoint. Ship() is non-blocking; when the buffer is full the
// oldest payload is evicted. Run() must be called in a goroutine to drain
// the buffer and handle retries.
type Shipper struct {
	cfg    config.AgentConfig
	buf    chan map[string]any
	client *http.Client
}

// New creates a Shipper using the given agent config.
func New(cfg config.AgentConfig) *Shipper {
	return &Shipper{
		cfg:    cfg,
		buf:    make(chan map[string]any, cfg.BufferSize),
		client: &http.Client{Timeout: sendTimeout},
	}
}

// Ship enqueues a payload for delivery. If the buffer is full the oldest
// entry is evicted to make room — the newest reading always survives.
func (s *Shipper) Ship(payload map[string]any) {
	select {
	case s.buf <- payload:
	default:
		select {
		case <-s.buf:
			slog.Warn("shipper: buffer full, evicted oldest reading",
				"buffer_cap", cap(s.buf))
		default:
		}
		s.buf <- payload
	}
}

// Pending returns the number of buffered, undelivered payloads.
func (s *Shipper) Pending() int {
	return len(s.buf)
}

// Run drains the buffer, sending payloads to the server. Failed sends are
// retried with truncated exponential backoff; the payload goes back into
// the buffer unless the server rejected it as a client error (4xx), in
// which case retrying would never succeed and it is dropped.
// Run blocks until ctx is cancelled.
func (s *Shipper) Run(ctx context.Context) {
	bo := newBackoff()

	for {
		select {
		case <-ctx.Done():
			return

		case payload := <-s.buf:
			err := s.send(ctx, payload)
			if err == nil {
				bo.reset()
				continue
			}

			if isPermanent(err) {
				slog.Error("shipper: server rejected reading, discarding", "err", err)
				bo.reset()
				continue
			}

			// Put the payload back if there's room; it is lost otherwise,
			// which is acceptable — the next sample supersedes it.
			select {
			case s.buf <- payload:
			default:
			}

			wait := bo.next()
			slog.Warn("shipper: send failed, will retry",
				"server", s.cfg.ServerURL,
				"err", err,
				"retry_in", wait)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}
}

// send POSTs one payload to the server's ingestion endpoint.
func (s *Shipper) send(ctx context.Context, payload map[string]any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return &permanentError{fmt.Errorf("encode payload: %w", err)}
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(sendCtx, http.MethodPost,
		s.cfg.ServerURL+"/measurements", bytes.NewReader(body))
	if err != nil {
		return &permanentError{fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	switch {
	case resp.StatusCode < 300:
		return nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return &permanentError{fmt.Errorf("server returned HTTP %d", resp.StatusCode)}
	default:
		return fmt.Errorf("server returned HTTP %d", resp.StatusCode)
	}
}

// permanentError marks a failure that a retry cannot fix.
type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

func isPermanent(err error) bool {
	_, ok := err.(*permanentError)
	return ok
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: backoffInitial}
}

// next returns the current backoff duration and advances the internal state.
func (b *backoff) next() time.Duration {
	d := b.current
	// Apply ±25 % jitter.
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	// Advance for next call.
	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > backoffMax {
		b.current = backoffMax
	}
	return d
}

func (b *backoff) reset() {
	b.current = backoffInitial
}
