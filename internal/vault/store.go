package vault

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dropDatabas3/consentgate/internal/cache"
)

// Store es la memoria de contexto por usuario del agente. Cada valor se
// serializa a JSON, se cifra con el Box y se guarda en el cache backing
// (memoria o Redis) bajo una key namespaced por usuario.
type Store struct {
	box        *Box
	backing    cache.Cache
	defaultTTL time.Duration
}

func NewStore(box *Box, backing cache.Cache, defaultTTL time.Duration) *Store {
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Minute
	}
	return &Store{box: box, backing: backing, defaultTTL: defaultTTL}
}

func contextKey(userID, key string) string {
	return "ctx:" + userID + ":" + key
}

// SaveContext cifra y guarda un valor de contexto para el usuario.
func (s *Store) SaveContext(userID, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal context: %w", err)
	}
	boxed, err := s.box.Encrypt(raw)
	if err != nil {
		return fmt.Errorf("encrypt context: %w", err)
	}
	s.backing.Set(contextKey(userID, key), []byte(boxed), s.defaultTTL)
	return nil
}

// LoadContext descifra el valor en dst. Retorna false si no hay valor.
func (s *Store) LoadContext(userID, key string, dst any) (bool, error) {
	boxed, ok := s.backing.Get(contextKey(userID, key))
	if !ok {
		return false, nil
	}
	raw, err := s.box.Decrypt(string(boxed))
	if err != nil {
		return false, fmt.Errorf("decrypt context: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("unmarshal context: %w", err)
	}
	return true, nil
}

// ClearContext elimina el valor de contexto.
func (s *Store) ClearContext(userID, key string) {
	s.backing.Delete(contextKey(userID, key))
}
