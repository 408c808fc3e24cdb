package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hongminglow/minigames-be/internal/auth"
	"github.com/hongminglow/minigames-be/internal/http/respond"
	"github.com/hongminglow/minigames-be/internal/metrics"
)

// RequireUser rejects requests without a resolvable identity with 401. Store
// failures while resolving are 500s.
func RequireUser(gate *auth.Gate, logger *slog.Logger, rec metrics.Recorder) func(http.Handler) http.Handler {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := gate.Resolve(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if errors.Is(err, auth.ErrUnauthenticated) {
					rec.RecordAuthFailure("token")
					respond.Error(w, http.StatusUnauthorized, "unauthenticated")
					return
				}
				logger.ErrorContext(r.Context(), "resolve identity failed", slog.Any("error", err))
				respond.Error(w, http.StatusInternalServerError, "internal server error")
				return
			}
			noteUserID(r.Context(), id.ID)
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// OptionalUser attaches the caller's identity when one resolves and lets the
// request through as a guest otherwise, including on store failures.
func OptionalUser(gate *auth.Gate, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := gate.Resolve(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if !errors.Is(err, auth.ErrUnauthenticated) {
					logger.WarnContext(r.Context(), "resolve identity failed; continuing as guest", slog.Any("error", err))
				}
				next.ServeHTTP(w, r)
				return
			}
			noteUserID(r.Context(), id.ID)
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}
