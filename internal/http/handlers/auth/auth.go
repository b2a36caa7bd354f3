// Package auth реализует HTTP‑обработчики регистрации, входа, обновления
// токенов и восстановления пароля.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/omniclass/internal/http/request"
	"github.com/magabrotheeeer/omniclass/internal/http/response"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

// Service описывает бизнес‑логику аутентификации.
type Service interface {
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error)
	Login(ctx context.Context, email, password string) (*models.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
}

// Handler обрабатывает запросы /api/auth/*.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
	errs     response.Errors
}

// New создаёт Handler.
func New(log *slog.Logger, service Service, errs response.Errors) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
		errs:     errs,
	}
}

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}

// Register godoc
// @Summary Регистрация пользователя
// @Description Создаёт пользователя и возвращает пару токенов. Адреса из списка основателей получают роль ADMIN.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Данные пользователя"
// @Success 201 {object} response.Response{data=models.AuthResult}
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 409 {object} response.ErrorResponse "Пользователь уже существует"
// @Failure 500 {object} response.ErrorResponse
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.Register")

	var req models.RegisterRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	res, err := h.service.Register(r.Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrAlreadyExists) {
			log.Info("user already exists")
			response.Fail(w, r, http.StatusConflict, "user already exists")
			return
		}
		h.errs.Write(w, r, log, err)
		return
	}

	log.Info("user registered", slog.String("user_id", res.User.ID), slog.String("role", string(res.User.Role)))
	response.Created(w, r, res)
}

// Login godoc
// @Summary Вход пользователя
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Учётные данные"
// @Success 200 {object} response.Response{data=models.AuthResult}
// @Failure 400 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 401 {object} response.ErrorResponse "Неверные учётные данные"
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.Login")

	var req models.LoginRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	res, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}

	log.Info("login success", slog.String("user_id", res.User.ID))
	response.OK(w, r, res)
}

// Refresh godoc
// @Summary Обновление пары токенов
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.RefreshRequest true "Refresh‑токен"
// @Success 200 {object} response.Response{data=models.TokenPair}
// @Failure 400 {object} response.ErrorResponse "Токен не передан"
// @Failure 401 {object} response.ErrorResponse "Невалидный refresh‑токен"
// @Router /auth/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.Refresh")

	var req models.RefreshRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		if errors.Is(err, models.ErrInvalidToken) || errors.Is(err, models.ErrNotFound) {
			log.Warn("refresh rejected")
			response.Fail(w, r, http.StatusUnauthorized, "invalid refresh token")
			return
		}
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, pair)
}

// ForgotPassword godoc
// @Summary Запрос на сброс пароля
// @Description Всегда отвечает одинаково, независимо от существования адреса.
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.ForgotPasswordRequest true "Email"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse
// @Router /auth/forgot-password [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.ForgotPassword")

	var req models.ForgotPasswordRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	if err := h.service.ForgotPassword(r.Context(), req.Email); err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]string{"message": "If the email exists, a reset link has been sent"})
}

// ResetPassword godoc
// @Summary Установка нового пароля по токену сброса
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body models.ResetPasswordRequest true "Токен и новый пароль"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Невалидный или просроченный токен"
// @Router /auth/reset-password [post]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.auth.ResetPassword")

	var req models.ResetPasswordRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	log.Info("password reset")
	response.OK(w, r, map[string]string{"message": "Password has been reset"})
}
