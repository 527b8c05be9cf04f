// Package httpserver builds the engine's HTTP server.
package httpserver

import (
	"net/http"
	"time"
)

// New returns a server for addr. Only the header read is bounded here;
// per-request deadlines belong to the handlers, which never stream.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
