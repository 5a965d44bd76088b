// Package agent contiene el registro de operaciones y el engine que rutea
// intents a través del gate de consentimiento. Ninguna operación se ejecuta
// sin un token válido, no revocado y con los scopes requeridos.
package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/dropDatabas3/consentgate/internal/consent"
)

// Scopes del dominio calendario. El protocolo de tokens los trata como
// strings opacos; este paquete es el único que interpreta su significado.
const (
	ScopeCalendarRead  = "calendar.read"
	ScopeCalendarWrite = "calendar.write"
)

var (
	// ErrUnknownOperation: el intent no está registrado. Se rechaza antes de
	// inspeccionar el token (fail closed previo a toda decisión de confianza).
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrInvalidOperationConfig: defecto de configuración (operación sin
	// scopes o sin handler). Nunca se permite silenciosamente.
	ErrInvalidOperationConfig = errors.New("invalid operation config")
)

// Args son los argumentos específicos del intent.
type Args map[string]any

// String lee un argumento string, "" si no está o no es string.
func (a Args) String(key string) string {
	if v, ok := a[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Bool lee un argumento booleano.
func (a Args) Bool(key string) bool {
	if v, ok := a[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// Map lee un argumento objeto.
func (a Args) Map(key string) map[string]any {
	if v, ok := a[key]; ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

// Merged retorna una copia de a con los pares de extra por encima.
func (a Args) Merged(extra map[string]any) Args {
	out := make(Args, len(a)+len(extra))
	for k, v := range a {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// Request es lo que recibe un handler: identidad ya validada por el engine.
// El handler jamás toma decisiones de confianza propias.
type Request struct {
	UserID string
	// Token es el token parseado (solo el scope set y metadata, ya verificado).
	Token *consent.Token
	// Serialized se reenvía a los colaboradores que lo exigen aguas abajo.
	Serialized string
	Args       Args
}

// Result es la salida de un handler. Output se mergea en los args del
// siguiente paso cuando la operación encadena; Summary va al audit log
// (resumen, nunca secretos crudos).
type Result struct {
	Summary string
	Output  map[string]any
}

// Handler invoca al colaborador externo correspondiente a la operación.
type Handler func(ctx context.Context, req Request) (*Result, error)

// Operation es una unidad de trabajo registrada estáticamente.
// RequiredScopes es AND: todos deben estar presentes en el token.
type Operation struct {
	Name           string
	RequiredScopes []string
	// Next encadena una operación de seguimiento con el mismo token y los
	// args mergeados con el Output del paso anterior. Vacío = fin de cadena.
	Next    string
	Handler Handler
}

// Registry es el set cerrado de operaciones, read-only después del arranque.
type Registry struct {
	ops map[string]*Operation
}

func NewRegistry() *Registry {
	return &Registry{ops: make(map[string]*Operation)}
}

// Register agrega una operación. Una operación sin scopes requeridos es un
// defecto de configuración: el registry nunca debe contener una operación
// que saltee el chequeo de scopes.
func (r *Registry) Register(op Operation) error {
	if op.Name == "" {
		return fmt.Errorf("%w: nombre vacío", ErrInvalidOperationConfig)
	}
	if len(op.RequiredScopes) == 0 {
		return fmt.Errorf("%w: %q sin scopes requeridos", ErrInvalidOperationConfig, op.Name)
	}
	if op.Handler == nil {
		return fmt.Errorf("%w: %q sin handler", ErrInvalidOperationConfig, op.Name)
	}
	if _, dup := r.ops[op.Name]; dup {
		return fmt.Errorf("%w: %q duplicada", ErrInvalidOperationConfig, op.Name)
	}
	r.ops[op.Name] = &op
	return nil
}

// MustRegister es Register con panic: las operaciones se registran en el
// arranque y un defecto de configuración debe ser ruidoso.
func (r *Registry) MustRegister(op Operation) {
	if err := r.Register(op); err != nil {
		panic(err)
	}
}

// Lookup resuelve un intent a su operación.
func (r *Registry) Lookup(name string) (*Operation, error) {
	op, ok := r.ops[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
	}
	return op, nil
}

// Names lista las operaciones registradas (para discovery/debug).
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.ops))
	for name := range r.ops {
		out = append(out, name)
	}
	return out
}
