// Package subscriptions реализует обработчики подписок пользователя:
// обзор активных подписок, оформление, историю и отмену.
package subscriptions

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/omniclass/internal/access"
	"github.com/magabrotheeeer/omniclass/internal/http/middlewarectx"
	"github.com/magabrotheeeer/omniclass/internal/http/request"
	"github.com/magabrotheeeer/omniclass/internal/http/response"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

// AdminBypassMessage ответ администратору на попытку оформить подписку.
const AdminBypassMessage = "Admin access - subscription not required"

// Service описывает бизнес‑логику подписок.
type Service interface {
	Overview(ctx context.Context, caller access.Caller) (*models.SubscriptionOverview, error)
	Create(ctx context.Context, userID string, subType models.SubscriptionType, period models.BillingPeriod) (*models.Subscription, error)
	History(ctx context.Context, userID string) ([]models.Subscription, error)
	Cancel(ctx context.Context, id, userID string) (int, error)
}

// Handler обрабатывает запросы /api/subscriptions/*.
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

// Me godoc
// @Summary Активные подписки текущего пользователя
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.SubscriptionOverview}
// @Failure 401 {object} response.ErrorResponse
// @Router /subscriptions/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subscriptions.Me")

	caller, ok := middlewarectx.CallerFrom(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	overview, err := h.service.Overview(r.Context(), caller)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, overview)
}

// Student godoc
// @Summary Оформление студенческой подписки
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateSubscriptionRequest false "Период оплаты"
// @Success 201 {object} response.Response{data=models.Subscription}
// @Success 200 {object} response.Response "Администратору подписка не нужна"
// @Failure 400 {object} response.ErrorResponse
// @Router /subscriptions/student [post]
func (h *Handler) Student(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, models.SubscriptionStudent)
}

// Instructor godoc
// @Summary Оформление подписки преподавателя
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateSubscriptionRequest false "Период оплаты"
// @Success 201 {object} response.Response{data=models.Subscription}
// @Success 200 {object} response.Response "Администратору подписка не нужна"
// @Failure 400 {object} response.ErrorResponse
// @Router /subscriptions/instructor [post]
func (h *Handler) Instructor(w http.ResponseWriter, r *http.Request) {
	h.create(w, r, models.SubscriptionInstructor)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request, subType models.SubscriptionType) {
	log := h.logger(r, "handlers.subscriptions.Create")

	caller, ok := middlewarectx.CallerFrom(r.Context())
	if !ok {
		response.Fail(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if caller.IsAdmin() {
		log.Info("admin subscription bypass", slog.String("user_id", caller.UserID))
		response.OK(w, r, map[string]string{"message": AdminBypassMessage})
		return
	}

	var req models.CreateSubscriptionRequest
	if r.ContentLength != 0 {
		if !request.Decode(w, r, log, h.validate, &req) {
			return
		}
	}

	sub, err := h.service.Create(r.Context(), caller.UserID, subType, req.BillingPeriod)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	log.Info("subscription created",
		slog.String("user_id", caller.UserID),
		slog.String("type", string(subType)),
		slog.String("subscription_id", sub.ID),
	)
	response.Created(w, r, sub)
}

// History godoc
// @Summary История подписок
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Subscription}
// @Router /subscriptions/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subscriptions.History")

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	subs, err := h.service.History(r.Context(), userID)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, subs)
}

// Cancel godoc
// @Summary Отмена подписки
// @Description Отменяет подписку пользователя. Чужой id не изменяет ничего, updated = 0.
// @Tags Subscriptions
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID подписки"
// @Success 200 {object} response.Response
// @Router /subscriptions/{id}/cancel [put]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subscriptions.Cancel")

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	updated, err := h.service.Cancel(r.Context(), id, userID)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	log.Info("subscription cancel", slog.String("subscription_id", id), slog.Int("updated", updated))
	response.OK(w, r, map[string]any{"message": "Subscription cancelled", "updated": updated})
}
