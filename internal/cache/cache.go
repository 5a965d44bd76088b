// Package cache provee una abstracción mínima de cache de bytes con soporte
// multi-backend (memoria in-process y Redis). La usan el vault de contexto
// del agente y el cache de respuestas del adapter de calendario.
package cache

import "time"

// Cache define las operaciones mínimas de un cache de bytes con TTL.
type Cache interface {
	Get(k string) ([]byte, bool)
	Set(k string, v []byte, ttl time.Duration)
	Delete(k string)
}
