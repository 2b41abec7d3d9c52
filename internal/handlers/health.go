package handlers

import (
	"net/http"
	"time"
)

var startTime = time.Now()

// ping responds with a plain-text liveness probe kept for storefront
// compatibility.
func ping(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("Alive!"))
}

// health responds with a simple status payload for monitoring and readiness checks.
func health(w http.ResponseWriter, _ *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(startTime).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
