// Package subjects реализует обработчики каталога предметов и программ.
// Чтение каталога публично, изменения доступны только администратору.
package subjects

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

// Service описывает бизнес‑логику каталога предметов.
type Service interface {
	List(ctx context.Context, level models.Level) ([]models.Subject, error)
	Get(ctx context.Context, id string) (*models.Subject, error)
	Syllabus(ctx context.Context, subjectID string) (*models.Syllabus, error)
	Create(ctx context.Context, req models.SubjectRequest) (*models.Subject, error)
	Update(ctx context.Context, id string, req models.SubjectRequest) (*models.Subject, error)
	Delete(ctx context.Context, id string) error
	AddSyllabus(ctx context.Context, subjectID string, req models.SyllabusRequest) (*models.Syllabus, error)
}

// Handler обрабатывает запросы /api/subjects/*.
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

// List godoc
// @Summary Список активных предметов
// @Tags Subjects
// @Produce json
// @Param level query string false "Уровень" Enums(ORDINARY, ADVANCED)
// @Success 200 {object} response.Response{data=[]models.Subject}
// @Failure 400 {object} response.ErrorResponse
// @Router /subjects [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subjects.List")

	level := models.Level(strings.ToUpper(r.URL.Query().Get("level")))
	if level != "" && level != models.LevelOrdinary && level != models.LevelAdvanced {
		response.Fail(w, r, http.StatusBadRequest, "level must be one of [ORDINARY ADVANCED]")
		return
	}

	list, err := h.service.List(r.Context(), level)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, list)
}

// Get godoc
// @Summary Предмет с текущей программой и агентом по умолчанию
// @Tags Subjects
// @Produce json
// @Param id path string true "ID предмета"
// @Success 200 {object} response.Response{data=models.Subject}
// @Failure 404 {object} response.ErrorResponse
// @Router /subjects/{id} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subjects.Get")

	subject, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, subject)
}

// Syllabus godoc
// @Summary Текущая программа предмета
// @Tags Subjects
// @Produce json
// @Param id path string true "ID предмета"
// @Success 200 {object} response.Response{data=models.Syllabus}
// @Failure 404 {object} response.ErrorResponse
// @Router /subjects/{id}/syllabus [get]
func (h *Handler) Syllabus(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subjects.Syllabus")

	syllabus, err := h.service.Syllabus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, syllabus)
}

// Create godoc
// @Summary Создание предмета
// @Tags Subjects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SubjectRequest true "Предмет"
// @Success 201 {object} response.Response{data=models.Subject}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Router /subjects [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subjects.Create")

	var req models.SubjectRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	subject, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	log.Info("subject created", slog.String("subject_id", subject.ID))
	response.Created(w, r, subject)
}

// Update godoc
// @Summary Изменение предмета
// @Tags Subjects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID предмета"
// @Param request body models.SubjectRequest true "Предмет"
// @Success 200 {object} response.Response{data=models.Subject}
// @Failure 404 {object} response.ErrorResponse
// @Router /subjects/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subjects.Update")

	var req models.SubjectRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	subject, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, subject)
}

// Delete godoc
// @Summary Деактивация предмета
// @Tags Subjects
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID предмета"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse
// @Router /subjects/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subjects.Delete")

	id := chi.URLParam(r, "id")
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	log.Info("subject deactivated", slog.String("subject_id", id))
	response.OK(w, r, map[string]string{"message": "Subject deactivated"})
}

// AddSyllabus godoc
// @Summary Новая версия программы предмета
// @Tags Subjects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID предмета"
// @Param request body models.SyllabusRequest true "Программа"
// @Success 201 {object} response.Response{data=models.Syllabus}
// @Failure 404 {object} response.ErrorResponse
// @Router /subjects/{id}/syllabus [post]
func (h *Handler) AddSyllabus(w http.ResponseWriter, r *http.Request) {
	log := h.logger(r, "handlers.subjects.AddSyllabus")

	var req models.SyllabusRequest
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	syllabus, err := h.service.AddSyllabus(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.Created(w, r, syllabus)
}
