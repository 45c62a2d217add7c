// Package auth resolves the caller identity from a bearer JWT. The token's
// subject claim is the identity string; the middleware never touches stores,
// so verification stays a pure signature check.
package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	id "partyreg/pkg/domain"
	"partyreg/pkg/requestcontext"
)

const bearerPrefix = "Bearer "

// RequireIdentity rejects requests without a valid bearer token and stores
// the subject identity in the request context.
func RequireIdentity(signingKey []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			caller, err := callerFromHeader(r, signingKey)
			if err != nil {
				ctx := r.Context()
				logger.WarnContext(ctx, "identity token rejected",
					"request_id", requestcontext.RequestID(ctx),
					"error", err,
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"valid bearer token required"}`))
				return
			}
			next.ServeHTTP(w, r.WithContext(requestcontext.WithCaller(r.Context(), caller)))
		})
	}
}

func callerFromHeader(r *http.Request, signingKey []byte) (id.Identity, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return id.ZeroIdentity, jwt.ErrTokenMalformed
	}
	raw := strings.TrimPrefix(header, bearerPrefix)

	token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return signingKey, nil
	})
	if err != nil {
		return id.ZeroIdentity, err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return id.ZeroIdentity, err
	}
	return id.ParseIdentity(subject)
}

// Token mints a signed token for an identity. Used by tests and by the dev
// token endpoint; production deployments terminate auth upstream.
func Token(signingKey []byte, caller id.Identity) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": caller.String(),
	})
	return token.SignedString(signingKey)
}
