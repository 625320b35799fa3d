// Package httpserver constructs the process's HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// New builds the server for the security pipeline's API. Only the header
// read is bounded here; per-request deadlines come from the timeout
// middleware so streaming exports are not cut off by a server-wide limit.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
