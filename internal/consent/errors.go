package consent

import "errors"

// Taxonomía de fallos del protocolo de tokens. Las razones user-visible de
// Validate son strings fijos (ver Verdict); estos errores cubren los paths
// que sí retornan error (emisión, stores).
var (
	// ErrInvalidScope: emisión con scopes vacíos o con nombre inválido.
	ErrInvalidScope = errors.New("invalid scope")

	// ErrMalformed: estructura no parseable (prefijo, base64, campos, timestamps).
	ErrMalformed = errors.New("malformed token")
)

// Razones user-visible del resultado de Validate. Nunca incluyen la clave
// de firma ni contenido de tokens de otros usuarios.
const (
	ReasonRevoked           = "revoked"
	ReasonMalformed         = "malformed"
	ReasonBadSignature      = "bad signature"
	ReasonScopeMismatch     = "scope mismatch"
	ReasonExpired           = "expired"
	ReasonRevocationFailure = "revocation check failed"
)
