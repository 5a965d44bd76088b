package consent

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	plaintext, err := EncodePlaintext("user-1", "agent-cal", []string{"calendar.read", "calendar.write"}, 1000, 2000)
	if err != nil {
		t.Fatalf("EncodePlaintext: %v", err)
	}
	serialized := EncodeSerialized(plaintext, "deadbeef")

	if !strings.HasPrefix(serialized, TokenPrefix+":") {
		t.Fatalf("serialized sin prefijo %q: %s", TokenPrefix, serialized)
	}

	dec, err := DecodeSerialized(serialized)
	if err != nil {
		t.Fatalf("DecodeSerialized: %v", err)
	}
	if dec.UserID != "user-1" || dec.AgentID != "agent-cal" {
		t.Fatalf("identidad no coincide: %+v", dec)
	}
	if len(dec.Scopes) != 2 || dec.Scopes[0] != "calendar.read" || dec.Scopes[1] != "calendar.write" {
		t.Fatalf("scopes no coinciden: %v", dec.Scopes)
	}
	if dec.IssuedAtMs != 1000 || dec.ExpiresAtMs != 2000 {
		t.Fatalf("timestamps no coinciden: %+v", dec)
	}
	if dec.Plaintext != plaintext {
		t.Fatalf("plaintext no es byte-a-byte el firmado")
	}
	if dec.SigHex != "deadbeef" {
		t.Fatalf("firma no coincide: %s", dec.SigHex)
	}
}

func TestEncodePlaintextRejectsFieldSeparator(t *testing.T) {
	if _, err := EncodePlaintext("user|1", "agent", []string{"calendar.read"}, 1, 2); !errors.Is(err, ErrMalformed) {
		t.Fatalf("user id con separador debería fallar, obtuvo %v", err)
	}
	if _, err := EncodePlaintext("user", "agent|x", []string{"calendar.read"}, 1, 2); !errors.Is(err, ErrMalformed) {
		t.Fatalf("agent id con separador debería fallar, obtuvo %v", err)
	}
}

func TestDecodeSerializedMalformed(t *testing.T) {
	good, _ := EncodePlaintext("u", "a", []string{"calendar.read"}, 1, 2)

	cases := map[string]string{
		"sin prefijo":        base64.URLEncoding.EncodeToString([]byte(good)) + ".abc",
		"prefijo incorrecto": "XXX:" + base64.URLEncoding.EncodeToString([]byte(good)) + ".abc",
		"sin firma":          TokenPrefix + ":" + base64.URLEncoding.EncodeToString([]byte(good)),
		"firma vacía":        TokenPrefix + ":" + base64.URLEncoding.EncodeToString([]byte(good)) + ".",
		"base64 inválido":    TokenPrefix + ":!!!no-base64!!!.abc",
		"faltan campos":      TokenPrefix + ":" + base64.URLEncoding.EncodeToString([]byte("solo|tres|campos")) + ".abc",
		"scopes no JSON":     TokenPrefix + ":" + base64.URLEncoding.EncodeToString([]byte("u|a|no-json|1|2")) + ".abc",
		"issued no numérico": TokenPrefix + ":" + base64.URLEncoding.EncodeToString([]byte(`u|a|["s"]|x|2`)) + ".abc",
		"expires no num":     TokenPrefix + ":" + base64.URLEncoding.EncodeToString([]byte(`u|a|["s"]|1|x`)) + ".abc",
		"vacío":              "",
	}
	for name, tok := range cases {
		if _, err := DecodeSerialized(tok); !errors.Is(err, ErrMalformed) {
			t.Fatalf("%s: esperaba ErrMalformed, obtuvo %v", name, err)
		}
	}
}

func TestSignerDeterministicAndConstantVerify(t *testing.T) {
	s, err := NewSigner("super-secret")
	if err != nil {
		t.Fatalf("NewSigner: %v", err)
	}
	sig1 := s.Sign("payload")
	sig2 := s.Sign("payload")
	if sig1 != sig2 {
		t.Fatalf("firma no determinística: %s vs %s", sig1, sig2)
	}
	if !s.Verify("payload", sig1) {
		t.Fatalf("Verify debería aceptar la firma propia")
	}
	if s.Verify("payload-alterado", sig1) {
		t.Fatalf("Verify aceptó un plaintext alterado")
	}
	if s.Verify("payload", "zz"+sig1[2:]) {
		t.Fatalf("Verify aceptó hex inválido")
	}

	other, _ := NewSigner("otro-secreto")
	if other.Verify("payload", sig1) {
		t.Fatalf("una clave distinta verificó la firma")
	}
}

func TestNewSignerEmptySecret(t *testing.T) {
	if _, err := NewSigner(""); err == nil {
		t.Fatalf("secreto vacío debería fallar")
	}
}
