package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/financial-rails/M15-campaign-funding-service/internal/application"
)

type contextKey string

const (
	actorKey     contextKey = "actor"
	requestIDKey contextKey = "request_id"
)

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := strings.TrimSpace(r.Header.Get("X-Request-Id"))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// authMiddleware resolves the caller identity from the bearer token. With a
// signing secret configured the token must be a valid HS256 JWT and the
// subject claim becomes the account identity; without one (local runs) the
// raw bearer value is taken as an opaque subject.
func authMiddleware(jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				writeError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", requestIDFromContext(r.Context()))
				return
			}
			token := strings.TrimSpace(auth[7:])
			if token == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "empty bearer token", requestIDFromContext(r.Context()))
				return
			}

			subject := token
			role := strings.ToLower(strings.TrimSpace(r.Header.Get("X-Actor-Role")))
			if jwtSecret != "" {
				claims := jwt.MapClaims{}
				parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
					if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
						return nil, jwt.ErrSignatureInvalid
					}
					return []byte(jwtSecret), nil
				})
				if err != nil || !parsed.Valid {
					writeError(w, http.StatusUnauthorized, "unauthorized", "invalid token", requestIDFromContext(r.Context()))
					return
				}
				sub, err := claims.GetSubject()
				if err != nil || strings.TrimSpace(sub) == "" {
					writeError(w, http.StatusUnauthorized, "unauthorized", "token missing subject", requestIDFromContext(r.Context()))
					return
				}
				subject = sub
				if v, ok := claims["role"].(string); ok && v != "" {
					role = strings.ToLower(v)
				}
			}
			if role == "" {
				role = "member"
			}

			actor := application.Actor{
				SubjectID:      subject,
				Role:           role,
				RequestID:      requestIDFromContext(r.Context()),
				IdempotencyKey: strings.TrimSpace(r.Header.Get("Idempotency-Key")),
			}
			ctx := context.WithValue(r.Context(), actorKey, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func actorFromContext(ctx context.Context) application.Actor {
	if v := ctx.Value(actorKey); v != nil {
		if a, ok := v.(application.Actor); ok {
			return a
		}
	}
	return application.Actor{}
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
