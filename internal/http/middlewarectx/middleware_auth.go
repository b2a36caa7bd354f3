// Package middlewarectx содержит HTTP middleware сервиса: проверку JWT,
// проверку доступа к маршрутам, ограничение частоты запросов, метрики
// и проверку подписи уведомлений платёжного шлюза.
package middlewarectx

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/omniclass/internal/access"
	"github.com/magabrotheeeer/omniclass/internal/http/response"
	"github.com/magabrotheeeer/omniclass/internal/lib/sl"
)

// Key тип для ключей контекста HTTP‑запроса.
type Key string

// CallerKey ключ аутентифицированного пользователя в контексте.
const CallerKey Key = "caller"

// Authenticator проверяет токен доступа.
type Authenticator interface {
	ValidateToken(ctx context.Context, token string) (access.Caller, error)
}

// WithCaller возвращает контекст с пользователем запроса.
func WithCaller(ctx context.Context, c access.Caller) context.Context {
	return context.WithValue(ctx, CallerKey, c)
}

// CallerFrom возвращает пользователя запроса из контекста.
func CallerFrom(ctx context.Context) (access.Caller, bool) {
	c, ok := ctx.Value(CallerKey).(access.Caller)
	return c, ok && c.UserID != ""
}

// JWTMiddleware возвращает middleware, который проверяет JWT в заголовке Authorization.
// При невалидном или отсутствующем токене отвечает 401.
func JWTMiddleware(auth Authenticator, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.JWTMiddleware"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				log.Warn("missing or invalid authorization header")
				response.Fail(w, r, http.StatusUnauthorized, "no token provided")
				return
			}
			token := strings.TrimPrefix(authHeader, "Bearer ")

			caller, err := auth.ValidateToken(r.Context(), token)
			if err != nil {
				log.Warn("invalid or expired token", sl.Err(err))
				response.Fail(w, r, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
		})
	}
}
