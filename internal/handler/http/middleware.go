package http

import (
	"crypto/subtle"
	"log/slog"
	"net/http"
	"strings"

	apperrors "github.com/carlajeanne/plantpal-backend/pkg/errors"
)

// cors allows the dashboard origin(s) to call the API from the browser. A
// lone "*" allows any origin.
func cors(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := len(allowedOrigins) == 1 && allowedOrigins[0] == "*"
	originSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originSet[strings.TrimRight(o, "/")] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				allowed := allowAll
				if !allowed {
					_, allowed = originSet[strings.TrimRight(origin, "/")]
				}
				if allowed {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Vary", "Origin")
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Correlation-ID, X-Device-Key")
					w.Header().Set("Access-Control-Max-Age", "300")
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// requireJSONContentType rejects bodied requests whose Content-Type is not
// JSON, before any handler touches the body.
func requireJSONContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				writeJSON(w, http.StatusUnsupportedMediaType, errorResponse{
					Code:    "UNSUPPORTED_MEDIA_TYPE",
					Message: "Content-Type must be application/json",
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// deviceKey gates the ingestion endpoint behind a shared key when one is
// configured. With an empty key the endpoint stays open, matching
// deployments where the sensor cannot hold a secret.
func deviceKey(key string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get("X-Device-Key")
			if subtle.ConstantTimeCompare([]byte(presented), []byte(key)) != 1 {
				writeError(w, logger, apperrors.Unauthorized("invalid device key"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
