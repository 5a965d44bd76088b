package consent

import (
	"context"
	"crypto/sha256"
	"encoding/base64"

	rdb "github.com/redis/go-redis/v9"
)

// RedisRegistry guarda los tokens revocados en un SET de Redis, de modo que
// la revocación sobrevive restarts del proceso y es visible entre réplicas.
// Se almacena el SHA-256 (base64url) de la forma serializada, no el token.
type RedisRegistry struct {
	client *rdb.Client
	key    string
}

func NewRedisRegistry(client *rdb.Client, prefix string) *RedisRegistry {
	if prefix == "" {
		prefix = "cg:revoked:"
	}
	return &RedisRegistry{client: client, key: prefix + "set"}
}

func (r *RedisRegistry) Revoke(ctx context.Context, serialized string) error {
	return r.client.SAdd(ctx, r.key, hashSerialized(serialized)).Err()
}

func (r *RedisRegistry) IsRevoked(ctx context.Context, serialized string) (bool, error) {
	return r.client.SIsMember(ctx, r.key, hashSerialized(serialized)).Result()
}

// hashSerialized acota el tamaño de las entradas del set (los tokens crecen
// con el número de scopes). El hash identifica la forma serializada exacta.
func hashSerialized(serialized string) string {
	sum := sha256.Sum256([]byte(serialized))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
