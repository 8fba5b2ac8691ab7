package account

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

// Middleware rejects requests without a valid bearer ID token and puts the
// verified Identity in the request context.
func Middleware(provider Provider, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			idToken, ok := strings.CutPrefix(authHeader, "Bearer ")
			idToken = strings.TrimSpace(idToken)
			if !ok || idToken == "" {
				unauthorized(w, "missing bearer token")
				return
			}

			identity, err := provider.VerifyIDToken(r.Context(), idToken)
			if err != nil {
				logger.Warn("rejected id token", "error", err, "path", r.URL.Path)
				unauthorized(w, "invalid token")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", "Bearer")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
