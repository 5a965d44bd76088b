// Package controllers contiene los handlers HTTP. Un controller valida el
// request, delega en su service y serializa la respuesta; nada de lógica de
// dominio acá.
package controllers

import "github.com/dropDatabas3/consentgate/internal/http/services"

// Controllers agrupa los controllers de la API.
type Controllers struct {
	Tokens *TokensController
	Agent  *AgentController
	Health *HealthController
}

// New construye los controllers a partir de los services.
func New(svcs *services.Services) *Controllers {
	return &Controllers{
		Tokens: NewTokensController(svcs.Tokens),
		Agent:  NewAgentController(svcs.Agent),
		Health: NewHealthController(svcs.Health),
	}
}
