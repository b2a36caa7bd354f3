package middlewarectx

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/middleware"

	"github.com/magabrotheeeer/omniclass/internal/access"
	"github.com/magabrotheeeer/omniclass/internal/http/response"
	"github.com/magabrotheeeer/omniclass/internal/lib/sl"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

// SubscriptionChecker сообщает о наличии активной подписки.
type SubscriptionChecker interface {
	HasActive(ctx context.Context, userID string, subType models.SubscriptionType) (bool, error)
}

// Require возвращает middleware, применяющий требование маршрута.
// Подписка читается из хранилища на каждом запросе и только тогда,
// когда без неё решение принять нельзя.
func Require(req access.Requirement, subs SubscriptionChecker, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const op = "middlewarectx.Require"

			log := log.With(
				slog.String("op", op),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)

			caller, ok := CallerFrom(r.Context())
			if !ok {
				log.Warn("user identification missing")
				response.Fail(w, r, http.StatusUnauthorized, "authentication required")
				return
			}

			hasActive := false
			if access.NeedsSubscriptionLookup(caller, req) {
				var err error
				hasActive, err = subs.HasActive(r.Context(), caller.UserID, req.Subscription)
				if err != nil {
					log.Error("failed to check subscription", sl.Err(err))
					response.Fail(w, r, http.StatusInternalServerError, "internal server error")
					return
				}
			}

			switch access.Evaluate(caller, req, hasActive) {
			case access.DenyRole:
				log.Warn("access denied by role",
					slog.String("user_id", caller.UserID),
					slog.String("role", string(caller.Role)),
				)
				response.Fail(w, r, http.StatusForbidden, "insufficient permissions")
				return
			case access.DenySubscription:
				log.Warn("access denied by subscription", slog.String("user_id", caller.UserID))
				response.Fail(w, r, http.StatusForbidden,
					fmt.Sprintf("active %s subscription required", strings.ToLower(string(req.Subscription))))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
