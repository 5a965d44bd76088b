// Package dto define los cuerpos de request/response de la API.
package dto

// IssueTokenRequest es el cuerpo de POST /v1/tokens.
type IssueTokenRequest struct {
	UserID  string   `json:"user_id"`
	AgentID string   `json:"agent_id"`
	Scopes  []string `json:"scopes"`
	// TTLMs opcional; 0 usa el TTL por defecto del servicio.
	TTLMs int64 `json:"ttl_ms,omitempty"`
}

// IssueTokenResponse devuelve el token serializado y su metadata.
type IssueTokenResponse struct {
	Token       string   `json:"token"`
	UserID      string   `json:"user_id"`
	AgentID     string   `json:"agent_id"`
	Scopes      []string `json:"scopes"`
	IssuedAtMs  int64    `json:"issued_at_ms"`
	ExpiresAtMs int64    `json:"expires_at_ms"`
}

// ValidateTokenRequest es el cuerpo de POST /v1/tokens/validate.
type ValidateTokenRequest struct {
	Token string `json:"token"`
	// Scope opcional: si está, el token debe llevarlo.
	Scope string `json:"scope,omitempty"`
}

// ValidateTokenResponse refleja el veredicto tri-estado.
type ValidateTokenResponse struct {
	Valid       bool     `json:"valid"`
	Reason      string   `json:"reason,omitempty"`
	UserID      string   `json:"user_id,omitempty"`
	AgentID     string   `json:"agent_id,omitempty"`
	Scopes      []string `json:"scopes,omitempty"`
	ExpiresAtMs int64    `json:"expires_at_ms,omitempty"`
}

// RevokeTokenRequest es el cuerpo de POST /v1/tokens/revoke.
type RevokeTokenRequest struct {
	Token string `json:"token"`
}

// RevokeTokenResponse confirma la revocación (idempotente).
type RevokeTokenResponse struct {
	Status string `json:"status"`
}
