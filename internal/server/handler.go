package server

import (
	"context"
	"net/http"

	"rangeq/internal/logging"
)

// HandleHealth returns a trivial liveness handler.
func HandleHealth(ctx context.Context) http.Handler {
	logger := logging.FromContext(ctx)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-ctx.Done():
			logger.Debugf("health: context closed")
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status": "ok"}`))
		}
	})
}
