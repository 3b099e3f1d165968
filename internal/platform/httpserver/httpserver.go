// Package httpserver builds the process HTTP server. Shutdown is driven by
// the caller; see cmd/server.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server with conservative timeouts. WriteTimeout stays well
// above the per-request middleware timeout so CSV exports and case reports
// are cut off by the handler chain, not by the server.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}
