package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// HealthChecker defines interface for health checking
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// LivenessHandler answers as long as the process is up; it never touches the database.
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy"})
}

// ReadinessHandler reports whether the database can be reached. The ping
// error goes to the log only; it may carry connection details.
func ReadinessHandler(checker HealthChecker, logger *zap.Logger) http.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		body := map[string]string{"status": "ready"}
		code := http.StatusOK
		if err := checker.Ping(ctx); err != nil {
			logger.Warn("readiness check failed",
				zap.String("request_id", GetRequestID(r.Context())),
				zap.Error(err),
			)
			body = map[string]string{"status": "unavailable"}
			code = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(body)
	}
}
