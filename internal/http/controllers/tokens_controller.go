package controllers

import (
	"net/http"

	dto "github.com/dropDatabas3/consentgate/internal/http/dto"
	httperrors "github.com/dropDatabas3/consentgate/internal/http/errors"
	"github.com/dropDatabas3/consentgate/internal/http/helpers"
	"github.com/dropDatabas3/consentgate/internal/http/services"
)

// TokensController maneja las rutas de emisión/validación/revocación.
type TokensController struct {
	svc *services.TokensService
}

func NewTokensController(svc *services.TokensService) *TokensController {
	return &TokensController{svc: svc}
}

// Issue maneja POST /v1/tokens.
func (c *TokensController) Issue(w http.ResponseWriter, r *http.Request) {
	var req dto.IssueTokenRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	resp, err := c.svc.Issue(r.Context(), req)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, resp)
}

// Validate maneja POST /v1/tokens/validate.
func (c *TokensController) Validate(w http.ResponseWriter, r *http.Request) {
	var req dto.ValidateTokenRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	resp, err := c.svc.Validate(r.Context(), req)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}

// Revoke maneja POST /v1/tokens/revoke.
func (c *TokensController) Revoke(w http.ResponseWriter, r *http.Request) {
	var req dto.RevokeTokenRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}

	resp, err := c.svc.Revoke(r.Context(), req)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resp)
}
