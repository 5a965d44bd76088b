// Package services contiene la capa de servicios de la API: traduce DTOs a
// llamadas al dominio (consent.Service, agent.Engine) y mapea resultados a
// errores HTTP. Los controllers no tocan el dominio directamente.
package services

import (
	"github.com/dropDatabas3/consentgate/internal/agent"
	"github.com/dropDatabas3/consentgate/internal/consent"
)

// Services agrupa los servicios de la API.
type Services struct {
	Tokens *TokensService
	Agent  *AgentService
	Health *HealthService
}

// Deps son las dependencias de dominio ya construidas por el wiring.
type Deps struct {
	Consent *consent.Service
	Engine  *agent.Engine
	Env     string
	// Backends describe los kinds configurados (revocation/audit/vault),
	// expuesto por healthz para diagnóstico.
	Backends map[string]string
}

// New construye los servicios.
func New(d Deps) *Services {
	return &Services{
		Tokens: NewTokensService(d.Consent),
		Agent:  NewAgentService(d.Engine),
		Health: NewHealthService(d.Env, d.Backends),
	}
}
