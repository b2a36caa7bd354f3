// Package admin реализует обработчики панели администратора.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/omniclass/internal/http/request"
	"github.com/magabrotheeeer/omniclass/internal/http/response"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

// Service описывает операции администратора.
type Service interface {
	Users(ctx context.Context, page models.Page, role models.Role) (*models.UserList, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	Subscriptions(ctx context.Context, filter models.SubscriptionFilter) ([]models.Subscription, error)
	Payments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
	Stats(ctx context.Context) (*models.Stats, error)
}

// UsersQuery параметры списка пользователей.
type UsersQuery struct {
	Page  int         `validate:"gte=0"`
	Limit int         `validate:"gte=0"`
	Role  models.Role `validate:"omitempty,oneof=STUDENT INSTRUCTOR ADMIN"`
}

// SubscriptionsQuery фильтр списка подписок.
type SubscriptionsQuery struct {
	Status models.SubscriptionStatus `validate:"omitempty,oneof=ACTIVE CANCELLED EXPIRED"`
	Type   models.SubscriptionType   `validate:"omitempty,oneof=STUDENT INSTRUCTOR"`
}

// PaymentsQuery фильтр списка платежей.
type PaymentsQuery struct {
	Status models.PaymentStatus `validate:"omitempty,oneof=PENDING COMPLETED FAILED"`
	Method models.PaymentMethod `validate:"omitempty,oneof=ECOCASH ONEMONEY OMARI BANK_CARD BANK_TRANSFER"`
}

// Handler обрабатывает запросы /api/admin/*.
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

func (h *Handler) logger(r *http.Request, op string) *slog.Logger {
	return h.log.With(slog.String("op", op), slog.String("request_id", middleware.GetReqID(r.Context())))
}

func (h *Handler) check(w http.ResponseWriter, r *http.Request, q any) bool {
	if err := h.validate.Struct(q); err != nil {
		response.Invalid(w, r, err)
		return false
	}
	return true
}

func upper(q url.Values, key string) string {
	return strings.ToUpper(strings.TrimSpace(q.Get(key)))
}

func intParam(q url.Values, key string) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}

// Users godoc
// @Summary Пользователи
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Страница" default(1)
// @Param limit query int false "Размер страницы" default(20)
// @Param role query string false "Роль" Enums(STUDENT, INSTRUCTOR, ADMIN)
// @Success 200 {object} response.Response{data=models.UserList}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /admin/users [get]
func (h *Handler) Users(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.Users")

	q := r.URL.Query()
	page, err := intParam(q, "page")
	if err != nil {
		response.Fail(w, r, http.StatusBadRequest, err.Error())
		return
	}
	limit, err := intParam(q, "limit")
	if err != nil {
		response.Fail(w, r, http.StatusBadRequest, err.Error())
		return
	}
	query := UsersQuery{Page: page, Limit: limit, Role: models.Role(upper(q, "role"))}
	if !h.check(w, r, query) {
		return
	}

	list, err := h.service.Users(r.Context(), models.Page{Page: query.Page, Limit: query.Limit}, query.Role)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, list)
}

// UpdateRole godoc
// @Summary Смена роли пользователя
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID пользователя"
// @Param request body models.UpdateRoleRequest true "Новая роль"
// @Success 200 {object} response.Response{data=models.User}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /admin/users/{id}/role [put]
func (h *Handler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.UpdateRole")

	var req models.UpdateRoleRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	id := chi.URLParam(r, "id")
	user, err := h.service.UpdateRole(r.Context(), id, req.Role)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	log.Info("role updated", slog.String("user_id", id), slog.String("role", string(req.Role)))
	response.OK(w, r, user)
}

// Subscriptions godoc
// @Summary Подписки
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Статус" Enums(ACTIVE, CANCELLED, EXPIRED)
// @Param type query string false "Тип" Enums(STUDENT, INSTRUCTOR)
// @Success 200 {object} response.Response{data=[]models.Subscription}
// @Router /admin/subscriptions [get]
func (h *Handler) Subscriptions(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.Subscriptions")

	q := r.URL.Query()
	query := SubscriptionsQuery{
		Status: models.SubscriptionStatus(upper(q, "status")),
		Type:   models.SubscriptionType(upper(q, "type")),
	}
	if !h.check(w, r, query) {
		return
	}
	list, err := h.service.Subscriptions(r.Context(), models.SubscriptionFilter(query))
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, list)
}

// Payments godoc
// @Summary Платежи
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param status query string false "Статус" Enums(PENDING, COMPLETED, FAILED)
// @Param method query string false "Способ оплаты"
// @Success 200 {object} response.Response{data=[]models.Payment}
// @Router /admin/payments [get]
func (h *Handler) Payments(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.Payments")

	q := r.URL.Query()
	query := PaymentsQuery{
		Status: models.PaymentStatus(upper(q, "status")),
		Method: models.PaymentMethod(upper(q, "method")),
	}
	if !h.check(w, r, query) {
		return
	}
	list, err := h.service.Payments(r.Context(), models.PaymentFilter(query))
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, list)
}

// Stats godoc
// @Summary Статистика платформы
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.Stats}
// @Router /admin/stats [get]
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.admin.Stats")

	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, stats)
}
