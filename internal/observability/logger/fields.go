package logger

import (
	"time"

	"go.uber.org/zap"
)

// =================================================================================
// CAMPOS ESTÁNDAR - HTTP
// =================================================================================

// RequestID crea un campo para el ID del request.
func RequestID(v string) zap.Field {
	return zap.String("request_id", v)
}

// Method crea un campo para el método HTTP.
func Method(v string) zap.Field {
	return zap.String("method", v)
}

// Path crea un campo para el path del request.
func Path(v string) zap.Field {
	return zap.String("path", v)
}

// Status crea un campo para el status code HTTP.
func Status(v int) zap.Field {
	return zap.Int("status", v)
}

// Duration crea un campo para la duración del request.
func Duration(v time.Duration) zap.Field {
	return zap.Duration("duration", v)
}

// ClientIP crea un campo para la IP del cliente.
func ClientIP(v string) zap.Field {
	return zap.String("client_ip", v)
}

// Bytes crea un campo para los bytes escritos en la respuesta.
func Bytes(v int) zap.Field {
	return zap.Int("bytes", v)
}

// DurationMs crea un campo para la duración en milisegundos.
func DurationMs(v int64) zap.Field {
	return zap.Int64("duration_ms", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - DOMINIO CONSENT
// =================================================================================

// UserID crea un campo para el ID del usuario dueño del consentimiento.
func UserID(v string) zap.Field {
	return zap.String("user_id", v)
}

// AgentID crea un campo para el ID del agente autorizado.
func AgentID(v string) zap.Field {
	return zap.String("agent_id", v)
}

// Intent crea un campo para el intent solicitado al engine.
func Intent(v string) zap.Field {
	return zap.String("intent", v)
}

// Operation crea un campo para la operación en ejecución.
func Operation(v string) zap.Field {
	return zap.String("operation", v)
}

// Scope crea un campo para un scope individual.
func Scope(v string) zap.Field {
	return zap.String("scope", v)
}

// Scopes crea un campo para una lista de scopes.
func Scopes(v []string) zap.Field {
	return zap.Strings("scopes", v)
}

// Outcome crea un campo para el resultado de una decisión (allowed/denied/error).
func Outcome(v string) zap.Field {
	return zap.String("outcome", v)
}

// Reason crea un campo para la razón de una denegación.
func Reason(v string) zap.Field {
	return zap.String("reason", v)
}

// =================================================================================
// CAMPOS ESTÁNDAR - SISTEMA
// =================================================================================

// Component crea un campo para el componente/módulo.
func Component(v string) zap.Field {
	return zap.String("component", v)
}

// Op crea un campo para la operación interna actual.
func Op(v string) zap.Field {
	return zap.String("op", v)
}

// Err crea un campo para un error.
func Err(err error) zap.Field {
	return zap.Error(err)
}

// Count crea un campo para un conteo.
func Count(v int) zap.Field {
	return zap.Int("count", v)
}

// String crea un campo string genérico.
func String(key, v string) zap.Field {
	return zap.String(key, v)
}

// Any crea un campo genérico para cualquier tipo.
func Any(key string, v any) zap.Field {
	return zap.Any(key, v)
}
