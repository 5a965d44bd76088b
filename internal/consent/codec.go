package consent

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Formato de wire:
//
//	HCT:base64url(userId|agentId|scopesJSON|issuedAtMs|expiresAtMs).firma_hex
//
// Los scopes van como array JSON dentro del plaintext canónico para que un
// scope manipulado no pueda forjar un límite de campo. El separador "|" está
// prohibido dentro de userId/agentId (se rechaza al emitir) y el charset de
// scopes válidos lo excluye (ver internal/validation).
const (
	TokenPrefix = "HCT"
	fieldSep    = "|"
)

// EncodePlaintext produce el plaintext canónico de los cinco campos.
// Es la entrada exacta del firmador: cualquier mutación lo invalida.
func EncodePlaintext(userID, agentID string, scopes []string, issuedAtMs, expiresAtMs int64) (string, error) {
	if strings.Contains(userID, fieldSep) {
		return "", fmt.Errorf("%w: user id contiene %q", ErrMalformed, fieldSep)
	}
	if strings.Contains(agentID, fieldSep) {
		return "", fmt.Errorf("%w: agent id contiene %q", ErrMalformed, fieldSep)
	}
	scopesJSON, err := json.Marshal(scopes)
	if err != nil {
		return "", fmt.Errorf("%w: scopes: %v", ErrMalformed, err)
	}
	return strings.Join([]string{
		userID,
		agentID,
		string(scopesJSON),
		strconv.FormatInt(issuedAtMs, 10),
		strconv.FormatInt(expiresAtMs, 10),
	}, fieldSep), nil
}

// EncodeSerialized arma la forma de transporte a partir del plaintext y la firma hex.
func EncodeSerialized(plaintext, sigHex string) string {
	return TokenPrefix + ":" + base64.URLEncoding.EncodeToString([]byte(plaintext)) + "." + sigHex
}

// decoded contiene el resultado de parsear la forma serializada.
type decoded struct {
	UserID      string
	AgentID     string
	Scopes      []string
	IssuedAtMs  int64
	ExpiresAtMs int64
	// Plaintext es el byte-a-byte que se firmó; se recomputa la firma sobre esto.
	Plaintext string
	SigHex    string
}

// DecodeSerialized parsea la forma de transporte. Todo fallo estructural es ErrMalformed.
func DecodeSerialized(serialized string) (*decoded, error) {
	prefix, rest, ok := strings.Cut(serialized, ":")
	if !ok || prefix != TokenPrefix {
		return nil, fmt.Errorf("%w: prefijo inválido", ErrMalformed)
	}
	encoded, sigHex, ok := strings.Cut(rest, ".")
	if !ok || sigHex == "" {
		return nil, fmt.Errorf("%w: falta firma", ErrMalformed)
	}
	raw, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrMalformed, err)
	}
	parts := strings.Split(string(raw), fieldSep)
	if len(parts) != 5 {
		return nil, fmt.Errorf("%w: %d campos, esperaba 5", ErrMalformed, len(parts))
	}
	var scopes []string
	if err := json.Unmarshal([]byte(parts[2]), &scopes); err != nil {
		return nil, fmt.Errorf("%w: scopes: %v", ErrMalformed, err)
	}
	issuedAt, err := strconv.ParseInt(parts[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: issued_at no numérico", ErrMalformed)
	}
	expiresAt, err := strconv.ParseInt(parts[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: expires_at no numérico", ErrMalformed)
	}
	return &decoded{
		UserID:      parts[0],
		AgentID:     parts[1],
		Scopes:      scopes,
		IssuedAtMs:  issuedAt,
		ExpiresAtMs: expiresAt,
		Plaintext:   string(raw),
		SigHex:      sigHex,
	}, nil
}
