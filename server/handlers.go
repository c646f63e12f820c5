package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/onnwee/stream-herald/store"
	"github.com/onnwee/stream-herald/watch"
)

// Handlers carries the dependencies the HTTP endpoints read from. All
// endpoints are read-only; config mutations go through Discord commands.
type Handlers struct {
	Engine   *watch.Engine
	Registry *store.Registry

	// ReadyCheck verifies upstream credentials work (e.g. a Twitch app token
	// can be obtained). Nil skips the check.
	ReadyCheck func(ctx context.Context) error

	PollInterval time.Duration
}

// HandleHealthz responds to liveness probe requests.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz responds to readiness probe requests with detailed checks.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"stores", func() error {
			// A readable tracked list proves both documents loaded.
			_ = h.Registry.ListAccounts()
			return nil
		}},
		{"twitch", func() error {
			if h.ReadyCheck == nil {
				return nil
			}
			ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
			defer cancel()
			return h.ReadyCheck(ctx)
		}},
	}

	for _, check := range checks {
		if err := check.fn(); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{
				"status":       "not_ready",
				"failed_check": check.name,
				"error":        err.Error(),
			})
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ready"})
}

// statusResponse is the /status payload.
type statusResponse struct {
	Tracked      int      `json:"tracked"`
	Live         []string `json:"live"`
	LastTick     string   `json:"last_tick,omitempty"`
	PollInterval string   `json:"poll_interval"`
}

// HandleStatus reports the poller's current view: tracked streamer count,
// who is believed live, and when the last tick completed.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	resp := statusResponse{
		Tracked:      len(h.Registry.ListAccounts()),
		Live:         h.Engine.LiveLogins(),
		PollInterval: h.PollInterval.String(),
	}
	if last := h.Engine.LastTick(); !last.IsZero() {
		resp.LastTick = last.UTC().Format(time.RFC3339)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
