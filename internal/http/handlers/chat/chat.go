// Package chat реализует обработчики чат‑сессий с ИИ‑репетитором.
package chat

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/omniclass/internal/http/request"
	"github.com/magabrotheeeer/omniclass/internal/http/response"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

// Service описывает бизнес‑логику чата.
type Service interface {
	Create(ctx context.Context, userID string, req models.CreateChatSessionRequest) (*models.ChatSession, error)
	List(ctx context.Context, userID string) ([]models.ChatSession, error)
	Get(ctx context.Context, id, userID string) (*models.ChatSession, error)
	Send(ctx context.Context, sessionID, userID string, req models.SendMessageRequest) (*models.ChatExchange, error)
	Delete(ctx context.Context, id, userID string) error
}

// Handler обрабатывает запросы /api/chat/*.
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

// Create godoc
// @Summary Новая чат‑сессия по предмету
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateChatSessionRequest true "Предмет и заголовок"
// @Success 201 {object} response.Response{data=models.ChatSession}
// @Failure 404 {object} response.ErrorResponse "Предмет или агент не найдены"
// @Router /chat/sessions [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.chat.Create")

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	var req models.CreateChatSessionRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	session, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	log.Info("chat session created", slog.String("session_id", session.ID))
	response.Created(w, r, session)
}

// List godoc
// @Summary Чат‑сессии пользователя
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.ChatSession}
// @Router /chat/sessions [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.chat.List")

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	list, err := h.service.List(r.Context(), userID)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, list)
}

// Get godoc
// @Summary Чат‑сессия с сообщениями
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 200 {object} response.Response{data=models.ChatSession}
// @Failure 404 {object} response.ErrorResponse
// @Router /chat/sessions/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.chat.Get")

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	session, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, session)
}

// Send godoc
// @Summary Сообщение в чат и ответ ИИ
// @Description Сообщение пользователя сохраняется даже при ошибке провайдера.
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Param request body models.SendMessageRequest true "Текст сообщения"
// @Success 200 {object} response.Response{data=models.ChatExchange}
// @Failure 404 {object} response.ErrorResponse
// @Failure 502 {object} response.ErrorResponse "Ошибка ИИ‑провайдера"
// @Router /chat/sessions/{id}/messages [post]
func (h *Handler) Send(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.chat.Send")

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	var req models.SendMessageRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	exchange, err := h.service.Send(r.Context(), chi.URLParam(r, "id"), userID, req)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, exchange)
}

// Delete godoc
// @Summary Удаление чат‑сессии
// @Tags Chat
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /chat/sessions/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.chat.Delete")

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, map[string]string{"message": "Session deleted"})
}
