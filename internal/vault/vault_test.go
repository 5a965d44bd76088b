package vault

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	cachememory "github.com/dropDatabas3/consentgate/internal/cache/memory"
)

func testKey() string {
	return base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
}

func TestNewBoxRejectsBadKeys(t *testing.T) {
	if _, err := NewBox("no-base64!!"); err == nil {
		t.Fatalf("clave no-base64 debería fallar")
	}
	short := base64.StdEncoding.EncodeToString([]byte("corta"))
	if _, err := NewBox(short); err == nil {
		t.Fatalf("clave corta debería fallar")
	}
}

func TestBoxRoundTrip(t *testing.T) {
	box, err := NewBox(testKey())
	if err != nil {
		t.Fatalf("NewBox: %v", err)
	}

	boxed, err := box.Encrypt([]byte("contexto del agente"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}
	if !strings.Contains(boxed, "|") {
		t.Fatalf("formato esperado nonce|ciphertext, obtuvo %q", boxed)
	}

	pt, err := box.Decrypt(boxed)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	if string(pt) != "contexto del agente" {
		t.Fatalf("round trip incorrecto: %q", pt)
	}
}

func TestBoxDetectsTampering(t *testing.T) {
	box, _ := NewBox(testKey())
	boxed, err := box.Encrypt([]byte("dato sensible"))
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	// alterar el último carácter del ciphertext
	tampered := boxed[:len(boxed)-2] + "A="
	if tampered == boxed {
		tampered = boxed[:len(boxed)-2] + "B="
	}
	if _, err := box.Decrypt(tampered); err == nil {
		t.Fatalf("ciphertext alterado debería fallar")
	}

	if _, err := box.Decrypt("sin-separador"); err == nil {
		t.Fatalf("formato inválido debería fallar")
	}
}

func TestBoxWrongKeyFails(t *testing.T) {
	box1, _ := NewBox(testKey())
	otherKey := base64.StdEncoding.EncodeToString([]byte("fedcba9876543210fedcba9876543210"))
	box2, _ := NewBox(otherKey)

	boxed, _ := box1.Encrypt([]byte("secreto"))
	if _, err := box2.Decrypt(boxed); err == nil {
		t.Fatalf("otra clave no debería descifrar")
	}
}

func TestStoreSaveLoadClear(t *testing.T) {
	box, _ := NewBox(testKey())
	store := NewStore(box, cachememory.New(time.Minute), time.Minute)

	type fb struct {
		Busy []string `json:"busy"`
	}

	found, err := store.LoadContext("alice", "last_free_busy", &fb{})
	if err != nil || found {
		t.Fatalf("contexto inexistente: found=%v err=%v", found, err)
	}

	if err := store.SaveContext("alice", "last_free_busy", fb{Busy: []string{"a", "b"}}); err != nil {
		t.Fatalf("SaveContext: %v", err)
	}

	var got fb
	found, err = store.LoadContext("alice", "last_free_busy", &got)
	if err != nil || !found {
		t.Fatalf("LoadContext: found=%v err=%v", found, err)
	}
	if len(got.Busy) != 2 || got.Busy[0] != "a" {
		t.Fatalf("contexto no coincide: %+v", got)
	}

	// el contexto de otro usuario no se mezcla
	found, _ = store.LoadContext("bob", "last_free_busy", &fb{})
	if found {
		t.Fatalf("el contexto es por usuario")
	}

	store.ClearContext("alice", "last_free_busy")
	found, _ = store.LoadContext("alice", "last_free_busy", &fb{})
	if found {
		t.Fatalf("ClearContext no eliminó el valor")
	}
}
