package controllers

import (
	"net/http"

	dto "github.com/dropDatabas3/consentgate/internal/http/dto"
	httperrors "github.com/dropDatabas3/consentgate/internal/http/errors"
	"github.com/dropDatabas3/consentgate/internal/http/helpers"
	"github.com/dropDatabas3/consentgate/internal/http/services"
)

// AgentController maneja POST /v1/agent/run.
type AgentController struct {
	svc *services.AgentService
}

func NewAgentController(svc *services.AgentService) *AgentController {
	return &AgentController{svc: svc}
}

// Run ejecuta un intent. El body de respuesta siempre lleva el detalle de los
// pasos, también en denegaciones (403) y fallos de colaborador (502).
func (c *AgentController) Run(w http.ResponseWriter, r *http.Request) {
	var req dto.RunIntentRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	resp, status, err := c.svc.Run(r.Context(), req)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, status, resp)
}
