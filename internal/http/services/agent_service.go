package services

import (
	"context"
	"errors"

	"github.com/dropDatabas3/consentgate/internal/agent"
	"github.com/dropDatabas3/consentgate/internal/audit"
	dto "github.com/dropDatabas3/consentgate/internal/http/dto"
	httperrors "github.com/dropDatabas3/consentgate/internal/http/errors"
)

// AgentService expone el engine de orquestación.
type AgentService struct {
	engine *agent.Engine
}

func NewAgentService(engine *agent.Engine) *AgentService {
	return &AgentService{engine: engine}
}

// Run ejecuta un intent. El status HTTP refleja el outcome terminal:
// 200 allowed, 403 denied, 502 error de colaborador, 404 intent desconocido.
func (s *AgentService) Run(ctx context.Context, req dto.RunIntentRequest) (*dto.RunIntentResponse, int, error) {
	if req.UserID == "" || req.Token == "" || req.Intent == "" {
		return nil, 0, httperrors.ErrMissingFields.WithDetail("user_id, token e intent son requeridos")
	}

	res, err := s.engine.Run(ctx, req.UserID, req.Token, req.Intent, agent.Args(req.Args))
	if err != nil {
		if errors.Is(err, agent.ErrUnknownOperation) {
			return nil, 0, httperrors.ErrUnknownIntent.WithDetail(req.Intent)
		}
		return nil, 0, httperrors.ErrInternalServerError.WithCause(err)
	}

	resp := &dto.RunIntentResponse{
		Intent:  res.Intent,
		Outcome: res.Outcome,
		Reason:  res.Reason,
		Steps:   make([]dto.RunStep, 0, len(res.Steps)),
		Output:  res.Output,
	}
	for _, st := range res.Steps {
		resp.Steps = append(resp.Steps, dto.RunStep{
			Operation: st.Operation,
			Outcome:   st.Outcome,
			Reason:    st.Reason,
			Output:    st.Output,
		})
	}

	status := 200
	switch res.Outcome {
	case audit.OutcomeDenied:
		status = httperrors.ErrConsentDenied.HTTPStatus
	case audit.OutcomeError:
		status = httperrors.ErrCollaboratorFailure.HTTPStatus
	}
	return resp, status, nil
}
