package consent

import (
	"context"
	"sync"
)

// Registry es el conjunto process-wide de tokens revocados.
// La revocación es monotónica: una vez revocado, un token nunca vuelve a ser
// válido, y re-revocar es un no-op. Las implementaciones deben ser seguras
// bajo lectura/escritura concurrente, con Revoke linealizando contra los
// IsRevoked que empiecen después de su retorno.
//
// La interfaz es inyectable para poder sustituir el set en memoria por un
// backing persistente (Redis, Postgres) sin tocar el protocolo de tokens.
type Registry interface {
	Revoke(ctx context.Context, serialized string) error
	IsRevoked(ctx context.Context, serialized string) (bool, error)
}

// MemoryRegistry: set en memoria protegido por RWMutex. No sobrevive restarts.
type MemoryRegistry struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{revoked: make(map[string]struct{})}
}

func (r *MemoryRegistry) Revoke(ctx context.Context, serialized string) error {
	r.mu.Lock()
	r.revoked[serialized] = struct{}{}
	r.mu.Unlock()
	return nil
}

func (r *MemoryRegistry) IsRevoked(ctx context.Context, serialized string) (bool, error) {
	r.mu.RLock()
	_, ok := r.revoked[serialized]
	r.mu.RUnlock()
	return ok, nil
}
