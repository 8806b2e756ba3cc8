package auth

import (
	"context"
	"net/http"
	"strings"

	"daily-planner-bot/internal/analytics"
	"daily-planner-bot/internal/metrics"
)

type ctxKey string

const ownerIDKey ctxKey = "owner_id"

// Middleware checks the bearer token of the JSON API.
type Middleware struct {
	secret []byte
}

func New(secret []byte) Middleware {
	return Middleware{secret: secret}
}

// bearerToken достаёт токен из "Authorization: Bearer <jwt>", схема без учёта регистра.
func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func (m Middleware) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString, ok := bearerToken(r)
		if !ok {
			metrics.EventsTotal.WithLabelValues("http_auth", "missing_token").Inc()
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}

		ownerID, err := ParseToken(m.secret, tokenString)
		if err != nil {
			metrics.EventsTotal.WithLabelValues("http_auth", "invalid_token").Inc()
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}

		next(w, r.WithContext(WithUserID(r.Context(), ownerID)))
	}
}

// WithUserID stores the owner id for both auth and analytics lookups.
func WithUserID(ctx context.Context, ownerID int64) context.Context {
	ctx = context.WithValue(ctx, ownerIDKey, ownerID)
	// прокидываем owner_id в analytics context
	return analytics.WithUserID(ctx, ownerID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	ownerID, ok := ctx.Value(ownerIDKey).(int64)
	return ownerID, ok && ownerID != 0
}
