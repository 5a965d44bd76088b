package consent

import (
	"context"
	"fmt"
	"time"

	"github.com/dropDatabas3/consentgate/internal/observability/logger"
	"github.com/dropDatabas3/consentgate/internal/validation"
)

// Token es una credencial firmada, con scopes y acotada en el tiempo, que
// autoriza a un agente a actuar por un usuario. Inmutable una vez emitido:
// "revocar" nunca edita el token, solo agrega su forma serializada al Registry.
type Token struct {
	UserID      string   `json:"user_id"`
	AgentID     string   `json:"agent_id"`
	Scopes      []string `json:"scopes"`
	IssuedAtMs  int64    `json:"issued_at_ms"`
	ExpiresAtMs int64    `json:"expires_at_ms"`
	Signature   string   `json:"signature"`
	// Serialized es lo único que el caller posee y presenta de vuelta.
	Serialized string `json:"token"`
}

// HasScope reporta si el token lleva el scope exacto.
func (t *Token) HasScope(scope string) bool {
	for _, s := range t.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// Verdict es el resultado tri-estado de Validate. Nunca hay error: o el token
// es válido (OK + Token) o no lo es (Reason con uno de los strings fijos).
type Verdict struct {
	OK     bool
	Reason string
	Token  *Token
}

// Service compone codec, firmador y registry en issue/validate/revoke.
// Es el único dueño de la clave de firma y del Registry: nadie más toma
// decisiones de confianza sobre tokens.
type Service struct {
	signer     *Signer
	registry   Registry
	defaultTTL time.Duration

	// now es inyectable para tests de expiración.
	now func() time.Time
}

func NewService(signer *Signer, registry Registry, defaultTTL time.Duration) *Service {
	if defaultTTL <= 0 {
		defaultTTL = 24 * time.Hour
	}
	return &Service{
		signer:     signer,
		registry:   registry,
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// WithClock reemplaza la fuente de tiempo. Solo para tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Issue emite un token firmado. Es el único camino que produce una firma
// válida; no hay forma de construir un Token sin pasar por aquí.
// ttl <= 0 usa el TTL por defecto del servicio.
func (s *Service) Issue(ctx context.Context, userID, agentID string, scopes []string, ttl time.Duration) (*Token, error) {
	if len(scopes) == 0 {
		return nil, fmt.Errorf("%w: lista vacía", ErrInvalidScope)
	}
	for _, sc := range scopes {
		if !validation.ValidScopeName(sc) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidScope, sc)
		}
	}
	if ttl <= 0 {
		ttl = s.defaultTTL
	}

	issuedAt := s.now().UnixMilli()
	expiresAt := issuedAt + ttl.Milliseconds()

	plaintext, err := EncodePlaintext(userID, agentID, scopes, issuedAt, expiresAt)
	if err != nil {
		return nil, err
	}
	sig := s.signer.Sign(plaintext)

	tok := &Token{
		UserID:      userID,
		AgentID:     agentID,
		Scopes:      append([]string(nil), scopes...),
		IssuedAtMs:  issuedAt,
		ExpiresAtMs: expiresAt,
		Signature:   sig,
		Serialized:  EncodeSerialized(plaintext, sig),
	}

	logger.From(ctx).Info("consent token issued",
		logger.UserID(userID),
		logger.AgentID(agentID),
		logger.Scopes(scopes),
		logger.Any("expires_at_ms", expiresAt),
	)
	return tok, nil
}

// Validate es una función total: siempre retorna un Verdict, nunca error.
// Orden de chequeo (fijo): revocado → estructura → firma → scope → expiración.
// La expiración se chequea DESPUÉS de la firma para que un token forjado y
// expirado no se distinga de uno válido y expirado por el timing del chequeo
// de expiración.
func (s *Service) Validate(ctx context.Context, serialized string, expectedScope string) Verdict {
	revoked, err := s.registry.IsRevoked(ctx, serialized)
	if err != nil {
		// Fail closed: si no podemos consultar el registry no autorizamos.
		logger.From(ctx).Error("revocation check failed", logger.Err(err))
		return Verdict{Reason: ReasonRevocationFailure}
	}
	if revoked {
		return Verdict{Reason: ReasonRevoked}
	}

	dec, err := DecodeSerialized(serialized)
	if err != nil {
		return Verdict{Reason: ReasonMalformed}
	}

	if !s.signer.Verify(dec.Plaintext, dec.SigHex) {
		return Verdict{Reason: ReasonBadSignature}
	}

	if expectedScope != "" {
		found := false
		for _, sc := range dec.Scopes {
			if sc == expectedScope {
				found = true
				break
			}
		}
		if !found {
			return Verdict{Reason: ReasonScopeMismatch}
		}
	}

	if s.now().UnixMilli() > dec.ExpiresAtMs {
		return Verdict{Reason: ReasonExpired}
	}

	return Verdict{
		OK: true,
		Token: &Token{
			UserID:      dec.UserID,
			AgentID:     dec.AgentID,
			Scopes:      dec.Scopes,
			IssuedAtMs:  dec.IssuedAtMs,
			ExpiresAtMs: dec.ExpiresAtMs,
			Signature:   dec.SigHex,
			Serialized:  serialized,
		},
	}
}

// Revoke agrega la forma serializada exacta al registry. Idempotente, y no
// exige que el token valide: un token expirado o malformado también puede
// revocarse (defensa en profundidad; lo único observable es el crecimiento
// del registry).
func (s *Service) Revoke(ctx context.Context, serialized string) error {
	if err := s.registry.Revoke(ctx, serialized); err != nil {
		return fmt.Errorf("revoke: %w", err)
	}
	logger.From(ctx).Info("consent token revoked")
	return nil
}
