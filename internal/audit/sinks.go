package audit

import (
	"context"
	"sync"

	"github.com/dropDatabas3/consentgate/internal/observability/logger"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LogSink emite cada entrada como evento estructurado vía zap.
type LogSink struct{}

func NewLogSink() *LogSink { return &LogSink{} }

func (s *LogSink) Record(ctx context.Context, e Entry) error {
	logger.From(ctx).Named("audit").Info("access decision",
		logger.String("audit_id", e.ID),
		logger.UserID(e.UserID),
		logger.AgentID(e.AgentID),
		logger.Operation(e.Operation),
		logger.Outcome(e.Outcome),
		logger.Reason(e.Reason),
		logger.String("summary", e.Summary),
		logger.Any("timestamp_ms", e.TimestampMs),
	)
	return nil
}

// MemorySink acumula entradas en memoria. Usado en tests y para la
// introspección local del engine.
type MemorySink struct {
	mu      sync.Mutex
	entries []Entry
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (s *MemorySink) Record(ctx context.Context, e Entry) error {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
	return nil
}

// Entries retorna una copia del log acumulado.
func (s *MemorySink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// PGSink persiste entradas en Postgres. Esquema:
//
//	CREATE TABLE IF NOT EXISTS audit_entries (
//	    id           TEXT PRIMARY KEY,
//	    user_id      TEXT NOT NULL,
//	    agent_id     TEXT NOT NULL DEFAULT '',
//	    operation    TEXT NOT NULL,
//	    outcome      TEXT NOT NULL,
//	    reason       TEXT NOT NULL DEFAULT '',
//	    summary      TEXT NOT NULL DEFAULT '',
//	    timestamp_ms BIGINT NOT NULL
//	);
type PGSink struct {
	pool *pgxpool.Pool
}

func NewPGSink(pool *pgxpool.Pool) *PGSink { return &PGSink{pool: pool} }

// EnsureSchema crea la tabla si no existe. Llamar una vez al arrancar.
func (s *PGSink) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS audit_entries (
			id           TEXT PRIMARY KEY,
			user_id      TEXT NOT NULL,
			agent_id     TEXT NOT NULL DEFAULT '',
			operation    TEXT NOT NULL,
			outcome      TEXT NOT NULL,
			reason       TEXT NOT NULL DEFAULT '',
			summary      TEXT NOT NULL DEFAULT '',
			timestamp_ms BIGINT NOT NULL
		)`)
	return err
}

func (s *PGSink) Record(ctx context.Context, e Entry) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO audit_entries (id, user_id, agent_id, operation, outcome, reason, summary, timestamp_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.UserID, e.AgentID, e.Operation, e.Outcome, e.Reason, e.Summary, e.TimestampMs)
	return err
}

// MultiSink abanica cada entrada a varios sinks. El primer error se retorna
// pero no corta el fan-out.
type MultiSink struct {
	sinks []Sink
}

func NewMultiSink(sinks ...Sink) *MultiSink { return &MultiSink{sinks: sinks} }

func (s *MultiSink) Record(ctx context.Context, e Entry) error {
	var first error
	for _, sk := range s.sinks {
		if err := sk.Record(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}
