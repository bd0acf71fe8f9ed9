package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"
	"github.com/boddenberg/stock-admin-panel-go/internal/infra/observability"
	"github.com/boddenberg/stock-admin-panel-go/internal/port"
	"github.com/boddenberg/stock-admin-panel-go/internal/session"

	"go.uber.org/zap"
)

// RequireSession guards screens that need a signed-in operator. Without a
// token, or with a JWT whose exp has passed, the session is cleared, the
// navigator is sent to /sign-in and the request gets 401.
func RequireSession(store port.SessionStore, nav port.Navigator, metrics *observability.Metrics, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := store.Token()
			info := session.Describe(token, ok, time.Now())

			if !info.Authenticated {
				logger.Warn("session: missing token", zap.String("path", r.URL.Path))
				nav.Push(domain.RouteSignIn)
				writeError(w, http.StatusUnauthorized, "Sessão não iniciada")
				return
			}

			if info.Expired {
				logger.Warn("session: token expired",
					zap.String("path", r.URL.Path),
					zap.String("expires_at", info.ExpiresAt),
				)
				if err := store.ClearToken(); err != nil {
					logger.Error("session: clear expired token", zap.Error(err))
				} else {
					metrics.IncrSessionEvent("cleared")
				}
				nav.Push(domain.RouteSignIn)
				writeError(w, http.StatusUnauthorized, "Sessão expirada")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
