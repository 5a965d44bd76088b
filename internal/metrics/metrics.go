package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Engine and token protocol Prometheus metrics. Standalone package to avoid
// import cycles between the engine and HTTP packages.

var (
	TokensIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consent_tokens_issued_total",
		Help: "Tokens de consentimiento emitidos",
	})

	TokensRevoked = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "consent_tokens_revoked_total",
		Help: "Revocaciones explícitas registradas",
	})

	ValidationFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "consent_validation_failures_total",
		Help: "Validaciones fallidas por razón",
	}, []string{"reason"})

	EngineDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_decisions_total",
		Help: "Decisiones del engine por operación y outcome",
	}, []string{"operation", "outcome"})

	CollaboratorLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "collaborator_latency_ms",
		Help:    "Latencia de llamadas a colaboradores externos en milisegundos",
		Buckets: prometheus.ExponentialBuckets(1, 2, 14),
	}, []string{"collaborator"})
)

// Register registers the metrics on the given registry (or default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	for _, c := range []prometheus.Collector{
		TokensIssued,
		TokensRevoked,
		ValidationFailures,
		EngineDecisions,
		CollaboratorLatency,
	} {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
