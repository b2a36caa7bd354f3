// Package video реализует обработчики видеосессий: создание с фоновой
// генерацией сценария, чтение статуса и поток уведомления о завершении.
package video

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/omniclass/internal/http/request"
	"github.com/magabrotheeeer/omniclass/internal/http/response"
	"github.com/magabrotheeeer/omniclass/internal/lib/sl"
	"github.com/magabrotheeeer/omniclass/internal/models"
	videosvc "github.com/magabrotheeeer/omniclass/internal/services/video"
)

// StatusProcessing статус, который видит клиент сразу после создания сессии.
const StatusProcessing = "PROCESSING"

// Service описывает бизнес‑логику видеосессий.
type Service interface {
	Create(ctx context.Context, userID string, req models.CreateVideoSessionRequest) (*models.VideoSession, *videosvc.Task, error)
	List(ctx context.Context, userID string) ([]models.VideoSession, error)
	Get(ctx context.Context, id, userID string) (*models.VideoSession, error)
	Video(ctx context.Context, id, userID string) (*models.VideoSession, error)
	Await(ctx context.Context, id, userID string) (*models.VideoSession, error)
}

// CreateResponse ответ на создание видеосессии.
type CreateResponse struct {
	*models.VideoSession
	Status string `json:"status" example:"PROCESSING"`
}

// StreamResponse заглушка потока видео.
type StreamResponse struct {
	Message  string `json:"message"`
	VideoURL string `json:"videoUrl"`
	Note     string `json:"note"`
}

// SummaryResponse текстовое резюме видеосессии.
type SummaryResponse struct {
	Summary   string    `json:"summary"`
	Question  string    `json:"question"`
	CreatedAt time.Time `json:"createdAt"`
}

// Handler обрабатывает запросы /api/video/*.
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
// @Summary Новая видеосессия
// @Description Сессия создаётся в статусе PENDING, сценарий генерируется в фоне.
// @Tags Video
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CreateVideoSessionRequest true "Предмет и вопрос"
// @Success 201 {object} response.Response{data=CreateResponse}
// @Failure 404 {object} response.ErrorResponse "Предмет или агент не найдены"
// @Router /video/sessions [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.video.Create")

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	var req models.CreateVideoSessionRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}

	session, _, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	log.Info("video session started", slog.String("session_id", session.ID))
	response.Created(w, r, CreateResponse{VideoSession: session, Status: StatusProcessing})
}

// List godoc
// @Summary Видеосессии пользователя
// @Tags Video
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.VideoSession}
// @Router /video/sessions [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.video.List")

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
// @Summary Видеосессия
// @Tags Video
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 200 {object} response.Response{data=models.VideoSession}
// @Failure 404 {object} response.ErrorResponse
// @Router /video/sessions/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.video.Get")

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

// Video godoc
// @Summary Видео сессии
// @Description Возвращает адрес видео. Потоковая отдача не реализована.
// @Tags Video
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 200 {object} response.Response{data=StreamResponse}
// @Failure 404 {object} response.ErrorResponse "Видео ещё не готово"
// @Router /video/sessions/{id}/video [get]
func (h *Handler) Video(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.video.Video")

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	session, err := h.service.Video(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, StreamResponse{
		Message:  "Video streaming not fully implemented",
		VideoURL: session.VideoURL,
		Note:     "In production, this would stream the video without allowing download",
	})
}

// Summary godoc
// @Summary Текстовое резюме сессии
// @Tags Video
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 200 {object} response.Response{data=SummaryResponse}
// @Failure 404 {object} response.ErrorResponse
// @Router /video/sessions/{id}/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.video.Summary")

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	session, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, SummaryResponse{
		Summary:   session.TextSummary,
		Question:  session.Question,
		CreatedAt: session.CreatedAt,
	})
}

// Watch godoc
// @Summary Уведомление о завершении генерации
// @Description WebSocket. Отправляет сессию одним сообщением, когда генерация завершена, и закрывает соединение.
// @Tags Video
// @Security BearerAuth
// @Param id path string true "ID сессии"
// @Success 101 {object} models.VideoSession
// @Failure 404 {object} response.ErrorResponse
// @Router /video/sessions/{id}/ws [get]
func (h *Handler) Watch(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.video.Watch")

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	if _, err := h.service.Get(r.Context(), id, userID); err != nil {
		h.errs.Write(w, r, log, err)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Error("websocket accept failed", sl.Err(err))
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(r.Context())
	session, err := h.service.Await(ctx, id, userID)
	if err != nil {
		log.Warn("video session wait aborted", sl.Err(err))
		conn.Close(websocket.StatusGoingAway, "wait aborted")
		return
	}

	if err := wsjson.Write(ctx, conn, session); err != nil {
		log.Warn("failed to push video session", sl.Err(err))
		return
	}
	conn.Close(websocket.StatusNormalClosure, string(session.Status))
}
