package auth

import (
	"log/slog"
	"net/http"

	"github.com/artha-erp/artha-erp/internal/platform/httpx"
	"github.com/artha-erp/artha-erp/internal/shared"
)

// SessionLoader resolves the request's session and stores it in the context.
// It never rejects; RequireAuth does that where a route needs it.
func SessionLoader(logger *slog.Logger, sessions *shared.SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := sessions.Load(r.Context(), r)
			if err != nil {
				logger.Error("load session", slog.Any("error", err))
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			next.ServeHTTP(w, r.WithContext(shared.ContextWithSession(r.Context(), sess)))
		})
	}
}

// RequireAuth rejects requests without an authenticated session.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := shared.SessionFromContext(r.Context())
		if !sess.Authenticated() {
			httpx.RespondError(w, shared.Unauthorized("login required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
