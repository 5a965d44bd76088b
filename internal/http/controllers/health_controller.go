package controllers

import (
	"net/http"

	"github.com/dropDatabas3/consentgate/internal/http/helpers"
	"github.com/dropDatabas3/consentgate/internal/http/services"
)

// HealthController maneja GET /healthz.
type HealthController struct {
	svc *services.HealthService
}

func NewHealthController(svc *services.HealthService) *HealthController {
	return &HealthController{svc: svc}
}

func (c *HealthController) Check(w http.ResponseWriter, r *http.Request) {
	helpers.WriteJSON(w, http.StatusOK, c.svc.Check())
}
