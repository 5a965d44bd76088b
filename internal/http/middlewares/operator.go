package middlewares

import (
	"fmt"
	"net/http"
	"strings"

	jwtv5 "github.com/golang-jwt/jwt/v5"

	"github.com/dropDatabas3/consentgate/internal/http/errors"
	"github.com/dropDatabas3/consentgate/internal/observability/logger"
)

// WithOperatorAuth protege los endpoints de emisión/revocación de tokens.
// Exige un Bearer JWT HS256 firmado con el secreto de operador. El token de
// operador es ortogonal al token de consentimiento: autentica al backend que
// llama a la API, no al usuario dueño del consentimiento.
func WithOperatorAuth(secret, issuer string) Middleware {
	keyFunc := func(t *jwtv5.Token) (any, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	}

	opts := []jwtv5.ParserOption{jwtv5.WithValidMethods([]string{"HS256"})}
	if issuer != "" {
		opts = append(opts, jwtv5.WithIssuer(issuer))
	}
	parser := jwtv5.NewParser(opts...)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				errors.WriteError(w, errors.ErrOperatorTokenMissing)
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			var claims jwtv5.RegisteredClaims
			if _, err := parser.ParseWithClaims(raw, &claims, keyFunc); err != nil {
				logger.From(r.Context()).Warn("operator token rejected", logger.Err(err))
				errors.WriteError(w, errors.ErrOperatorTokenInvalid)
				return
			}

			ctx := setOperator(r.Context(), claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
