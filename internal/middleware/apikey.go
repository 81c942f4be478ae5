package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"time"
)

// APIKeyHeader carries the shared client credential.
const APIKeyHeader = "X-API-Key"

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSONError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(errorResponse{Success: false, Error: msg})
}

// APIKey enforces the static shared-secret credential. Checks run in a fixed
// order: presence, match, expiry. A zero expiresAt means the key never
// expires. The now func is injectable for tests and defaults to time.Now.
func APIKey(secret string, expiresAt time.Time, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing api key")
				return
			}
			if subtle.ConstantTimeCompare([]byte(key), []byte(secret)) != 1 {
				writeJSONError(w, http.StatusForbidden, "invalid api key")
				return
			}
			if !expiresAt.IsZero() && now().After(expiresAt) {
				writeJSONError(w, http.StatusForbidden, "api key expired")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
