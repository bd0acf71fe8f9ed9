package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"
	"github.com/boddenberg/stock-admin-panel-go/internal/port"
	"github.com/boddenberg/stock-admin-panel-go/internal/session"
)

// ============================================================
// Session
// ============================================================

func sessionHandler(store port.SessionStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := store.Token()
		writeJSON(w, http.StatusOK, session.Describe(token, ok, time.Now()))
	}
}

func logoutHandler(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/session/logout")
		defer span.End()

		_, had := d.Sessions.Token()
		if err := d.Sessions.ClearToken(); err != nil {
			handleServiceError(w, err, d.Logger)
			return
		}
		if had {
			d.Metrics.IncrSessionEvent("cleared")
			d.Logger.Info("session: logged out")
		}
		d.History.Push(domain.RouteSignIn)

		writeJSON(w, http.StatusOK, viewResponse{
			Location: d.History.Current(),
			View:     domain.SessionInfo{},
		})
	}
}
