// Package audit define el registro append-only de decisiones de acceso.
// El engine escribe una entrada por paso de orquestación; la retención y el
// borrado son asunto del sink, nunca de este paquete.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Outcomes posibles de una entrada.
const (
	OutcomeAllowed = "allowed"
	OutcomeDenied  = "denied"
	OutcomeError   = "error"
)

// Entry es el registro inmutable de una decisión o acción ejecutada.
// Summary lleva un resumen del resultado, nunca secretos crudos.
type Entry struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	AgentID     string `json:"agent_id,omitempty"`
	Operation   string `json:"operation"`
	Outcome     string `json:"outcome"`
	Reason      string `json:"reason,omitempty"`
	Summary     string `json:"summary,omitempty"`
	TimestampMs int64  `json:"timestamp_ms"`
}

// NewEntry arma una entrada con ID y timestamp poblados.
func NewEntry(userID, agentID, operation, outcome, reason, summary string) Entry {
	return Entry{
		ID:          uuid.NewString(),
		UserID:      userID,
		AgentID:     agentID,
		Operation:   operation,
		Outcome:     outcome,
		Reason:      reason,
		Summary:     summary,
		TimestampMs: time.Now().UnixMilli(),
	}
}

// Sink recibe entradas. Para el engine es fire-and-forget: un error de
// persistencia se loguea pero no bloquea el resultado de la operación.
type Sink interface {
	Record(ctx context.Context, e Entry) error
}
