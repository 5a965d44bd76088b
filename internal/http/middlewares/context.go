package middlewares

import "context"

type ctxKey string

const (
	// ctxRequestIDKey guarda el request ID
	ctxRequestIDKey ctxKey = "request_id"
	// ctxOperatorKey guarda el subject del token de operador
	ctxOperatorKey ctxKey = "operator"
)

// setRequestID inyecta el request ID en el contexto (interno)
func setRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxRequestIDKey, requestID)
}

// GetRequestID obtiene el request ID del contexto.
// Retorna cadena vacía si no hay request ID.
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(ctxRequestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// setOperator inyecta el subject del operador en el contexto (interno)
func setOperator(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, ctxOperatorKey, subject)
}

// GetOperator obtiene el subject del operador autenticado.
// Retorna cadena vacía si la ruta no pasó por el middleware de operador.
func GetOperator(ctx context.Context) string {
	if v := ctx.Value(ctxOperatorKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
