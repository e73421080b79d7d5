package server

import (
	"net/http"
	"time"
)

// Health answers liveness checks with the server's uptime.
type Health struct {
	Started time.Time
}

func (h Health) Routes() []string { return []string{"GET /healthz"} }

func (h Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if h.Started.IsZero() {
		w.Write([]byte("ok\n"))
		return
	}
	w.Write([]byte("ok " + time.Since(h.Started).Round(time.Second).String() + "\n"))
}
