package consent

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRegistry persiste la revocación en Postgres. Esquema esperado:
//
//	CREATE TABLE IF NOT EXISTS revoked_tokens (
//	    token_hash TEXT PRIMARY KEY,
//	    revoked_at TIMESTAMPTZ NOT NULL DEFAULT now()
//	);
type PGRegistry struct {
	pool *pgxpool.Pool
}

func NewPGRegistry(pool *pgxpool.Pool) *PGRegistry {
	return &PGRegistry{pool: pool}
}

// EnsureSchema crea la tabla si no existe. Llamar una vez al arrancar.
func (r *PGRegistry) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS revoked_tokens (
			token_hash TEXT PRIMARY KEY,
			revoked_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

func (r *PGRegistry) Revoke(ctx context.Context, serialized string) error {
	// ON CONFLICT DO NOTHING: re-revocar es un no-op, no un error.
	_, err := r.pool.Exec(ctx,
		`INSERT INTO revoked_tokens (token_hash) VALUES ($1) ON CONFLICT DO NOTHING`,
		hashSerialized(serialized))
	return err
}

func (r *PGRegistry) IsRevoked(ctx context.Context, serialized string) (bool, error) {
	var revoked bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_hash = $1)`,
		hashSerialized(serialized)).Scan(&revoked)
	return revoked, err
}
