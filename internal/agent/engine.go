package agent

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/consentgate/internal/audit"
	"github.com/dropDatabas3/consentgate/internal/consent"
	"github.com/dropDatabas3/consentgate/internal/metrics"
	"github.com/dropDatabas3/consentgate/internal/observability/logger"
)

// maxChainDepth corta cadenas de seguimiento mal configuradas (ciclos).
const maxChainDepth = 8

// ReasonUserMismatch: el token es válido pero pertenece a otro usuario.
const ReasonUserMismatch = "user mismatch"

// Step es el resultado de un paso de orquestación (una operación).
type Step struct {
	Operation string         `json:"operation"`
	Outcome   string         `json:"outcome"`
	Reason    string         `json:"reason,omitempty"`
	Output    map[string]any `json:"output,omitempty"`
}

// RunResult agrega los pasos ejecutados. Outcome/Reason reflejan el paso
// terminal: denied y error nunca se confunden (autorización vs ejecución).
type RunResult struct {
	Intent  string         `json:"intent"`
	Outcome string         `json:"outcome"`
	Reason  string         `json:"reason,omitempty"`
	Steps   []Step         `json:"steps"`
	Output  map[string]any `json:"output,omitempty"`
}

// Engine rutea intents por el gate de consentimiento. No tiene concurrencia
// interna: cada llamada a Run corre hasta completarse (incluida la cadena) y
// es reentrante; el único estado mutable compartido vive en el Registry de
// revocación y el audit sink.
type Engine struct {
	tokens   *consent.Service
	registry *Registry
	sink     audit.Sink
}

func NewEngine(tokens *consent.Service, registry *Registry, sink audit.Sink) *Engine {
	return &Engine{tokens: tokens, registry: registry, sink: sink}
}

// Run ejecuta un intent: lookup → validación por scope → handler → audit,
// encadenando operaciones de seguimiento con el mismo token.
//
// Retorna error solo para UnknownOperation / InvalidOperationConfig (defectos
// de deployment, ruidosos). Denegaciones y fallos de colaborador se reportan
// en RunResult, nunca ejecutan parcialmente el handler y nunca se reintentan
// desde aquí.
func (e *Engine) Run(ctx context.Context, userID, serializedToken, intent string, args Args) (*RunResult, error) {
	res := &RunResult{Intent: intent}

	name := intent
	current := args
	for depth := 0; ; depth++ {
		if depth >= maxChainDepth {
			return nil, fmt.Errorf("%w: cadena excede %d pasos desde %q", ErrInvalidOperationConfig, maxChainDepth, intent)
		}

		// Lookup primero: un intent desconocido se rechaza sin consultar el
		// token (fail closed antes de toda decisión de confianza).
		op, err := e.registry.Lookup(name)
		if err != nil {
			return nil, err
		}
		if len(op.RequiredScopes) == 0 {
			return nil, fmt.Errorf("%w: %q", ErrInvalidOperationConfig, op.Name)
		}

		step, output := e.runStep(ctx, userID, serializedToken, op, current)
		res.Steps = append(res.Steps, step)
		res.Outcome = step.Outcome
		res.Reason = step.Reason
		res.Output = step.Output

		if step.Outcome != audit.OutcomeAllowed || op.Next == "" {
			return res, nil
		}
		// La cadena reusa el par identidad/token original tal cual y mergea
		// el output del paso en los args del siguiente.
		name = op.Next
		current = current.Merged(output)
	}
}

// runStep ejecuta una operación: Validating → {Denied, Executing} → Recorded.
func (e *Engine) runStep(ctx context.Context, userID, serializedToken string, op *Operation, args Args) (Step, map[string]any) {
	log := logger.From(ctx).With(
		logger.UserID(userID),
		logger.Operation(op.Name),
	)

	// Un validate por scope requerido, en orden de declaración, para que la
	// razón del primer fallo sea determinística.
	var token *consent.Token
	for _, scope := range op.RequiredScopes {
		verdict := e.tokens.Validate(ctx, serializedToken, scope)
		if !verdict.OK {
			metrics.ValidationFailures.WithLabelValues(verdict.Reason).Inc()
			log.Info("operation denied", logger.Scope(scope), logger.Reason(verdict.Reason))
			return e.record(ctx, userID, "", op.Name, audit.OutcomeDenied, verdict.Reason, ""), nil
		}
		token = verdict.Token
	}

	// El token valida pero fue emitido para otro usuario: denegar.
	if token.UserID != userID {
		log.Info("operation denied", logger.Reason(ReasonUserMismatch))
		return e.record(ctx, userID, token.AgentID, op.Name, audit.OutcomeDenied, ReasonUserMismatch, ""), nil
	}

	result, err := op.Handler(ctx, Request{
		UserID:     userID,
		Token:      token,
		Serialized: serializedToken,
		Args:       args,
	})
	if err != nil {
		// Fallo de colaborador: distinto de una denegación. El caller puede
		// reintentar la misma operación con el mismo token aún válido.
		log.Warn("collaborator failure", logger.Err(err))
		return e.record(ctx, userID, token.AgentID, op.Name, audit.OutcomeError, err.Error(), ""), nil
	}

	log.Info("operation executed", logger.AgentID(token.AgentID), logger.Outcome(audit.OutcomeAllowed))
	step := e.record(ctx, userID, token.AgentID, op.Name, audit.OutcomeAllowed, "", result.Summary)
	step.Output = result.Output
	return step, result.Output
}

// record escribe la entrada de auditoría y arma el Step. El audit write es
// fire-and-forget: un fallo se loguea pero no bloquea el resultado.
func (e *Engine) record(ctx context.Context, userID, agentID, operation, outcome, reason, summary string) Step {
	metrics.EngineDecisions.WithLabelValues(operation, outcome).Inc()

	entry := audit.NewEntry(userID, agentID, operation, outcome, reason, summary)
	if err := e.sink.Record(ctx, entry); err != nil {
		logger.From(ctx).Warn("audit record failed",
			logger.Operation(operation),
			logger.Err(err),
		)
	}
	return Step{Operation: operation, Outcome: outcome, Reason: reason}
}
