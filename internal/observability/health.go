package observability

import (
	"context"
	"encoding/json"
	"net/http"
)

// ReadyCheck reports whether a dependency is ready to serve traffic.
type ReadyCheck func(ctx context.Context) error

// HealthHandler always reports ok; liveness is "the process is running".
func HealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeHealthJSON(w, http.StatusOK, "ok")
	})
}

// ReadyHandler runs every check and reports unavailable if any fails.
func ReadyHandler(checks ...ReadyCheck) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, check := range checks {
			if err := check(r.Context()); err != nil {
				writeHealthJSON(w, http.StatusServiceUnavailable, "unavailable")
				return
			}
		}
		writeHealthJSON(w, http.StatusOK, "ok")
	})
}

func writeHealthJSON(w http.ResponseWriter, status int, state string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	writeOrDiscard(w, map[string]string{"status": state})
}

func writeOrDiscard(w http.ResponseWriter, body map[string]string) {
	_ = json.NewEncoder(w).Encode(body)
}
