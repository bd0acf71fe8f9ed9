package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/stock-admin-panel-go/internal/domain"
	"github.com/boddenberg/stock-admin-panel-go/internal/infra/observability"
	"github.com/boddenberg/stock-admin-panel-go/internal/navigation"
	"github.com/boddenberg/stock-admin-panel-go/internal/port"
	"github.com/boddenberg/stock-admin-panel-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// BreakerReporter exposes the upstream circuit breaker state.
type BreakerReporter interface {
	BreakerState() gobreaker.State
}

// Deps are the collaborators the router serves.
type Deps struct {
	SignIn     *service.SignInView
	Register   *service.RegisterCompanyView
	CreateUser *service.CreateUserView
	Catalog    *service.CatalogView

	Sessions port.SessionStore
	History  *navigation.History
	Upstream BreakerReporter

	Metrics *observability.Metrics
	Logger  *zap.Logger
}

// NewRouter creates the HTTP router the renderer talks to.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(d.Logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(d.Upstream))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {
		r.Get("/metrics/panel", panelMetricsHandler(d.Metrics))

		r.Get("/session", sessionHandler(d.Sessions))
		r.Post("/session/logout", logoutHandler(d))

		r.Route("/views", func(r chi.Router) {
			r.Route("/sign-in", func(r chi.Router) {
				r.Get("/", signInSnapshotHandler(d))
				r.Patch("/", signInFieldsHandler(d))
				r.Post("/submit", signInSubmitHandler(d))
				r.Post("/toggle-password", signInTogglePasswordHandler(d))
				r.Post("/register", signInGoToRegisterHandler(d))
			})

			r.Route("/register", func(r chi.Router) {
				r.Get("/", registerSnapshotHandler(d))
				r.Patch("/", registerFieldsHandler(d))
				r.Post("/submit", registerSubmitHandler(d))
			})

			r.Route("/create-user", func(r chi.Router) {
				r.Post("/mount", createUserMountHandler(d))
				r.Get("/", createUserSnapshotHandler(d))
				r.Patch("/", createUserFieldsHandler(d))
				r.Post("/submit", createUserSubmitHandler(d))
			})

			r.Route("/products", func(r chi.Router) {
				r.Use(RequireSession(d.Sessions, d.History, d.Metrics, d.Logger))

				r.Post("/mount", catalogMountHandler(d))
				r.Delete("/", catalogUnmountHandler(d))
				r.Get("/", catalogSnapshotHandler(d))
				r.Post("/reload", catalogReloadHandler(d))
				r.Post("/form", catalogOpenFormHandler(d))
				r.Delete("/form", catalogCloseFormHandler(d))
				r.Patch("/form", catalogFieldsHandler(d))
				r.Post("/form/image", catalogUploadHandler(d))
				r.Post("/form/submit", catalogSubmitHandler(d))
			})
		})
	})

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(upstream BreakerReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "stock-admin-panel", Status: "healthy", LastChecked: now},
		}

		if upstream != nil {
			status := "healthy"
			switch upstream.BreakerState() {
			case gobreaker.StateHalfOpen:
				status = "degraded"
			case gobreaker.StateOpen:
				status = "unhealthy"
			}
			services = append(services, domain.ServiceHealth{
				Name: "stock-api", Status: status, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func panelMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
