package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/stepup/internal/security/token"
	"github.com/dropDatabas3/stepup/internal/stepup"
)

// RouterDeps agrupa lo necesario para armar el router.
type RouterDeps struct {
	Verifier    *token.Verifier
	Svc         *stepup.Service
	AdminAPIKey string
	CORSOrigins []string

	// Handlers montados por área
	StepUp  StepUpRoutes
	Admin   AdminRoutes
	Health  HealthRoutes
	Metrics http.Handler
}

// StepUpRoutes son los endpoints del flujo de step-up.
type StepUpRoutes interface {
	SendCode(w http.ResponseWriter, r *http.Request)
	VerifyCode(w http.ResponseWriter, r *http.Request)
	Status(w http.ResponseWriter, r *http.Request)
}

// AdminRoutes son los endpoints administrativos.
type AdminRoutes interface {
	List(w http.ResponseWriter, r *http.Request)
}

// HealthRoutes son los endpoints de salud.
type HealthRoutes interface {
	Healthz(w http.ResponseWriter, r *http.Request)
	Readyz(w http.ResponseWriter, r *http.Request)
}

// NewRouter arma el router chi con middlewares y rutas.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", d.Health.Healthz)
	r.Get("/readyz", d.Health.Readyz)
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/step-up", func(r chi.Router) {
			r.Use(WithAuth(d.Verifier, d.Svc))
			r.Post("/send-code", d.StepUp.SendCode)
			r.Post("/verify-code", d.StepUp.VerifyCode)
			r.Get("/status", d.StepUp.Status)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(WithAdminKey(d.AdminAPIKey))
			r.Get("/blocks", d.Admin.List)
		})
	})

	var h http.Handler = r
	h = WithMetrics(h)
	h = WithCORS(h, d.CORSOrigins)
	h = WithRequestID(h)
	return h
}
