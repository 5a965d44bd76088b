package consent

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// hkdfInfo separa el uso de la clave derivada de otros usos del master secret.
const hkdfInfo = "consentgate/token-mac/v1"

// Signer computa y verifica la firma HMAC-SHA256 sobre el plaintext canónico.
// La clave se deriva una sola vez vía HKDF del master secret configurado; el
// secreto crudo nunca actúa directamente como clave MAC.
type Signer struct {
	key []byte
}

// NewSigner deriva la clave de firma. Falla si el secreto está vacío.
func NewSigner(masterSecret string) (*Signer, error) {
	if masterSecret == "" {
		return nil, fmt.Errorf("master secret vacío")
	}
	r := hkdf.New(sha256.New, []byte(masterSecret), nil, []byte(hkdfInfo))
	key := make([]byte, sha256.Size)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("hkdf: %w", err)
	}
	return &Signer{key: key}, nil
}

// Sign retorna la firma en hex minúsculas.
func (s *Signer) Sign(plaintext string) string {
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(plaintext))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify compara en tiempo constante la firma esperada contra la recibida.
func (s *Signer) Verify(plaintext, sigHex string) bool {
	got, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(plaintext))
	return hmac.Equal(mac.Sum(nil), got)
}
