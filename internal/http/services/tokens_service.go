package services

import (
	"context"
	"errors"
	"time"

	"github.com/dropDatabas3/consentgate/internal/consent"
	dto "github.com/dropDatabas3/consentgate/internal/http/dto"
	httperrors "github.com/dropDatabas3/consentgate/internal/http/errors"
	"github.com/dropDatabas3/consentgate/internal/metrics"
)

// TokensService expone issue/validate/revoke sobre consent.Service.
type TokensService struct {
	consent *consent.Service
}

func NewTokensService(svc *consent.Service) *TokensService {
	return &TokensService{consent: svc}
}

// Issue emite un token de consentimiento.
func (s *TokensService) Issue(ctx context.Context, req dto.IssueTokenRequest) (*dto.IssueTokenResponse, error) {
	if req.UserID == "" || req.AgentID == "" {
		return nil, httperrors.ErrMissingFields.WithDetail("user_id y agent_id son requeridos")
	}
	if len(req.Scopes) == 0 {
		return nil, httperrors.ErrMissingFields.WithDetail("scopes no puede estar vacío")
	}

	tok, err := s.consent.Issue(ctx, req.UserID, req.AgentID, req.Scopes,
		time.Duration(req.TTLMs)*time.Millisecond)
	if err != nil {
		if errors.Is(err, consent.ErrInvalidScope) {
			return nil, httperrors.ErrInvalidScope.WithDetail(err.Error())
		}
		return nil, httperrors.ErrBadRequest.WithDetail(err.Error())
	}

	metrics.TokensIssued.Inc()
	return &dto.IssueTokenResponse{
		Token:       tok.Serialized,
		UserID:      tok.UserID,
		AgentID:     tok.AgentID,
		Scopes:      tok.Scopes,
		IssuedAtMs:  tok.IssuedAtMs,
		ExpiresAtMs: tok.ExpiresAtMs,
	}, nil
}

// Validate evalúa el veredicto tri-estado. Nunca retorna error por un token
// inválido: la invalidez es una respuesta, no una falla.
func (s *TokensService) Validate(ctx context.Context, req dto.ValidateTokenRequest) (*dto.ValidateTokenResponse, error) {
	if req.Token == "" {
		return nil, httperrors.ErrMissingFields.WithDetail("token es requerido")
	}

	verdict := s.consent.Validate(ctx, req.Token, req.Scope)
	if !verdict.OK {
		return &dto.ValidateTokenResponse{Valid: false, Reason: verdict.Reason}, nil
	}
	return &dto.ValidateTokenResponse{
		Valid:       true,
		UserID:      verdict.Token.UserID,
		AgentID:     verdict.Token.AgentID,
		Scopes:      verdict.Token.Scopes,
		ExpiresAtMs: verdict.Token.ExpiresAtMs,
	}, nil
}

// Revoke agrega el token al registry. Idempotente.
func (s *TokensService) Revoke(ctx context.Context, req dto.RevokeTokenRequest) (*dto.RevokeTokenResponse, error) {
	if req.Token == "" {
		return nil, httperrors.ErrMissingFields.WithDetail("token es requerido")
	}
	if err := s.consent.Revoke(ctx, req.Token); err != nil {
		return nil, httperrors.ErrInternalServerError.WithCause(err)
	}
	metrics.TokensRevoked.Inc()
	return &dto.RevokeTokenResponse{Status: "revoked"}, nil
}
