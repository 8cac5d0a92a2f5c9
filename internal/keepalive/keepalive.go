// Package keepalive runs the tiny HTTP server hosting platforms ping to keep
// the bot process alive.
package keepalive

import (
	"net/http"

	"terabox-relay-bot/internal/logger"
)

// Start serves a health endpoint on addr in a background goroutine. A blank
// addr disables the server.
func Start(addr string) {
	if addr == "" {
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("I am alive!"))
	})

	go func() {
		logger.Info.Printf("keep-alive server listening on %s", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error.Printf("keep-alive server stopped: %v", err)
		}
	}()
}
