// Package router arma el árbol de rutas de la API.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dropDatabas3/consentgate/internal/http/controllers"
	httperrors "github.com/dropDatabas3/consentgate/internal/http/errors"
	mw "github.com/dropDatabas3/consentgate/internal/http/middlewares"
	"github.com/dropDatabas3/consentgate/internal/rate"
)

// Deps contiene todo lo que el router necesita ya construido.
type Deps struct {
	Controllers *controllers.Controllers

	// OperatorAuth protege issue/revoke. nil = endpoints abiertos (solo dev).
	OperatorAuth mw.Middleware

	// Limiters opcionales por grupo de rutas.
	IssueLimiter rate.Limiter
	RunLimiter   rate.Limiter

	CORSAllowedOrigins []string
	MetricsEnabled     bool
}

// New construye el handler raíz con la cadena de middlewares global.
func New(d Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.WithRequestID())
	r.Use(mw.WithLogging())
	r.Use(mw.WithRecover())
	if len(d.CORSAllowedOrigins) > 0 {
		r.Use(mw.WithCORS(d.CORSAllowedOrigins))
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrRouteNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		httperrors.WriteError(w, httperrors.ErrMethodNotAllowed)
	})

	r.Get("/healthz", d.Controllers.Health.Check)
	if d.MetricsEnabled {
		r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/tokens", func(r chi.Router) {
			r.Use(toChi(mw.WithRateLimit(d.IssueLimiter, nil)))
			// validate no exige operador: cualquier portador puede preguntar
			// por su propio token.
			r.Post("/validate", d.Controllers.Tokens.Validate)

			r.Group(func(r chi.Router) {
				if d.OperatorAuth != nil {
					r.Use(toChi(d.OperatorAuth))
				}
				r.Post("/", d.Controllers.Tokens.Issue)
				r.Post("/revoke", d.Controllers.Tokens.Revoke)
			})
		})

		r.Route("/agent", func(r chi.Router) {
			r.Use(toChi(mw.WithRateLimit(d.RunLimiter, nil)))
			r.Post("/run", d.Controllers.Agent.Run)
		})
	})

	return r
}

// toChi adapta nuestro tipo Middleware al que espera chi (son el mismo shape).
func toChi(m mw.Middleware) func(http.Handler) http.Handler {
	return m
}
