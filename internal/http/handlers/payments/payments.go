// Package payments реализует обработчики платежей: инициацию, приём
// уведомлений платёжного шлюза, историю и получение платежа.
package payments

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/omniclass/internal/http/request"
	"github.com/magabrotheeeer/omniclass/internal/http/response"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

// Service описывает бизнес‑логику платежей.
type Service interface {
	Initiate(ctx context.Context, userID string, req models.InitiatePaymentRequest) (*models.PaymentInitiation, error)
	HandleCallback(ctx context.Context, transactionID string, status models.PaymentStatus, metadata map[string]any) (*models.Payment, error)
	History(ctx context.Context, userID string) ([]models.Payment, error)
	Get(ctx context.Context, id, userID string) (*models.Payment, error)
}

// Handler обрабатывает запросы /api/payments/*.
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

// Initiate godoc
// @Summary Инициация платежа
// @Description Создаёт платёж в статусе PENDING и возвращает ссылку на страницу оплаты.
// @Tags Payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.InitiatePaymentRequest true "Параметры платежа"
// @Success 200 {object} response.Response{data=models.PaymentInitiation}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse "Подписка не найдена"
// @Router /payments/initiate [post]
func (h *Handler) Initiate(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.payments.Initiate")

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	var req models.InitiatePaymentRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	res, err := h.service.Initiate(r.Context(), userID, req)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	log.Info("payment initiated",
		slog.String("payment_id", res.Payment.ID),
		slog.String("method", string(req.PaymentMethod)),
	)
	response.OK(w, r, res)
}

// Callback godoc
// @Summary Уведомление платёжного шлюза
// @Description Обновляет статус платежа. COMPLETED активирует связанную подписку.
// @Tags Payments
// @Accept json
// @Produce json
// @Param method path string true "Способ оплаты"
// @Param request body models.PaymentCallbackRequest true "Статус транзакции"
// @Success 200 {object} response.Response{data=models.Payment}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse "Неверная подпись"
// @Failure 404 {object} response.ErrorResponse "Транзакция не найдена"
// @Router /payments/callback/{method} [post]
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.payments.Callback")

	method := strings.ToUpper(chi.URLParam(r, "method"))
	if !models.PaymentMethod(method).Valid() {
		log.Warn("callback for unsupported method", slog.String("method", method))
		response.Fail(w, r, http.StatusBadRequest, models.ErrUnsupportedMethod.Error())
		return
	}

	var req models.PaymentCallbackRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	payment, err := h.service.HandleCallback(r.Context(), req.TransactionID, req.Status, req.Metadata)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	log.Info("payment callback processed",
		slog.String("transaction_id", req.TransactionID),
		slog.String("status", string(req.Status)),
	)
	response.OK(w, r, payment)
}

// History godoc
// @Summary История платежей
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Payment}
// @Router /payments/history [get]
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.payments.History")

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	list, err := h.service.History(r.Context(), userID)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, list)
}

// Get godoc
// @Summary Платёж по id
// @Tags Payments
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID платежа"
// @Success 200 {object} response.Response{data=models.Payment}
// @Failure 404 {object} response.ErrorResponse
// @Router /payments/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.payments.Get")

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	payment, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, payment)
}
