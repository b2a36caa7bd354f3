// Package users реализует обработчики профиля текущего пользователя.
package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/omniclass/internal/http/request"
	"github.com/magabrotheeeer/omniclass/internal/http/response"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

// Service описывает операции над профилем.
type Service interface {
	Get(ctx context.Context, id string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, req models.UpdateProfileRequest) (*models.User, error)
}

// Handler обрабатывает запросы /api/users/me.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
	errs     response.Errors
}

// New создаёт Handler.
func New(log *slog.Logger, service Service, errs response.Errors) *Handler {
	return &Handler{log: log, service: service, validate: validator.New(), errs: errs}
}

// Me godoc
// @Summary Профиль текущего пользователя
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.User}
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /users/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.Me"
	log := h.log.With(slog.String("op", op), slog.String("request_id", middleware.GetReqID(r.Context())))

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	user, err := h.service.Get(r.Context(), userID)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, user)
}

// UpdateMe godoc
// @Summary Обновление имени и фамилии
// @Description Пустые поля не изменяются.
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.UpdateProfileRequest true "Новые данные"
// @Success 200 {object} response.Response{data=models.User}
// @Failure 400 {object} response.ErrorResponse
// @Router /users/me [put]
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.UpdateMe"
	log := h.log.With(slog.String("op", op), slog.String("request_id", middleware.GetReqID(r.Context())))

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	user, err := h.service.UpdateProfile(r.Context(), userID, req)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	log.Info("profile updated", slog.String("user_id", userID))
	response.OK(w, r, user)
}
