package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const actorIDKey contextKey = "actor_id"

// anonymousActor is recorded when a request carries no usable identity.
const anonymousActor = "anonymous"

// ActorMiddleware extracts the acting admin's identity from a Bearer
// token for audit trails. Authentication proper lives at the gateway;
// an absent or unparseable token degrades to the anonymous actor
// instead of rejecting the request.
func ActorMiddleware(secret string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actorID := anonymousActor

			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				raw := strings.TrimPrefix(auth, "Bearer ")
				token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
					return []byte(secret), nil
				}, jwt.WithValidMethods([]string{"HS256"}))
				if err != nil {
					logger.Debug("unparseable bearer token", zap.Error(err))
				} else if claims, ok := token.Claims.(jwt.MapClaims); ok {
					if sub, err := claims.GetSubject(); err == nil && sub != "" {
						actorID = sub
					}
				}
			}

			ctx := context.WithValue(r.Context(), actorIDKey, actorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ActorIDFromContext returns the audit actor for the request.
func ActorIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(actorIDKey).(string); ok && v != "" {
		return v
	}
	return anonymousActor
}
