// Package request содержит общие шаги разбора входящих HTTP‑запросов.
package request

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/omniclass/internal/http/middlewarectx"
	"github.com/magabrotheeeer/omniclass/internal/http/response"
	"github.com/magabrotheeeer/omniclass/internal/lib/sl"
)

// Decode читает JSON‑тело в dst и валидирует его.
// При ошибке ответ уже записан и возвращается false.
func Decode(w http.ResponseWriter, r *http.Request, log *slog.Logger, v *validator.Validate, dst any) bool {
	if err := render.DecodeJSON(r.Body, dst); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		response.Fail(w, r, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := v.Struct(dst); err != nil {
		log.Warn("validation failed", sl.Err(err))
		response.Invalid(w, r, err)
		return false
	}
	return true
}

// UserID возвращает идентификатор аутентифицированного пользователя.
// Если пользователя нет в контексте, пишет 401 и возвращает false.
func UserID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (string, bool) {
	caller, ok := middlewarectx.CallerFrom(r.Context())
	if !ok {
		log.Error("user identification missing")
		response.Fail(w, r, http.StatusUnauthorized, "authentication required")
		return "", false
	}
	return caller.UserID, true
}
