// Package health exposes the liveness endpoint.
package health

import (
	"net/http"
)

// Handler responds with a static JSON health status.
func Handler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
