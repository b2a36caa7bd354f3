// Package instructor реализует обработчики инструментов преподавателя:
// профиль, материалы, агенты, планы уроков, планы работы и задания.
package instructor

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

// Service описывает бизнес‑логику инструментов преподавателя.
type Service interface {
	Profile(ctx context.Context, userID string) (*models.InstructorProfile, error)
	SaveProfile(ctx context.Context, userID string, req models.InstructorProfileRequest) (*models.InstructorProfile, error)
	Materials(ctx context.Context, instructorID string) ([]models.Material, error)
	AddMaterial(ctx context.Context, instructorID string, req models.MaterialRequest) (*models.Material, error)
	Agents(ctx context.Context, instructorID string) ([]models.AgentConfig, error)
	AddAgent(ctx context.Context, instructorID string, req models.AgentConfigRequest) (*models.AgentConfig, error)
	LessonPlans(ctx context.Context, instructorID string) ([]models.LessonPlan, error)
	AddLessonPlan(ctx context.Context, instructorID string, req models.LessonPlanRequest) (*models.LessonPlan, error)
	GenerateLessonPlan(ctx context.Context, instructorID string, req models.GenerateLessonPlanRequest) (map[string]any, error)
	Schemes(ctx context.Context, instructorID string) ([]models.SchemeOfWork, error)
	AddScheme(ctx context.Context, instructorID string, req models.SchemeRequest) (*models.SchemeOfWork, error)
	GenerateScheme(ctx context.Context, req models.GenerateSchemeRequest) (map[string]any, error)
	Assessments(ctx context.Context, instructorID string) ([]models.Assessment, error)
	AddAssessment(ctx context.Context, instructorID string, req models.AssessmentRequest) (*models.Assessment, error)
	GenerateAssessment(ctx context.Context, req models.GenerateAssessmentRequest) (map[string]any, error)
	DownloadAssessment(ctx context.Context, id, instructorID, format string) (*models.AssessmentDownload, error)
}

// Handler обрабатывает запросы /api/instructors/*.
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

func list[T any](h *Handler, w http.ResponseWriter, r *http.Request, op string,
	fetch func(context.Context, string) (T, error)) {
	log := h.logger(r, op)

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	res, err := fetch(r.Context(), userID)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	response.OK(w, r, res)
}

func save[Req, Res any](h *Handler, w http.ResponseWriter, r *http.Request, op string, status int,
	store func(context.Context, string, Req) (Res, error)) {
	log := h.logger(r, op)

	userID, ok := request.UserID(w, r, log)
	if !ok {
		return
	}
	var req Req
	if !request.Decode(w, r, log, h.validate, &req) {
		return
	}
	res, err := store(r.Context(), userID, req)
	if err != nil {
		h.errs.Write(w, r, log, err)
		return
	}
	if status == http.StatusCreated {
		response.Created(w, r, res)
		return
	}
	response.OK(w, r, res)
}

// Profile godoc
// @Summary Профиль преподавателя
// @Description Пустой data, если профиль ещё не заполнен.
// @Tags Instructor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=models.InstructorProfile}
// @Router /instructors/me [get]
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, "handlers.instructor.Profile", h.service.Profile)
}

// SaveProfile godoc
// @Summary Создание или обновление профиля преподавателя
// @Tags Instructor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.InstructorProfileRequest true "Профиль"
// @Success 200 {object} response.Response{data=models.InstructorProfile}
// @Failure 403 {object} response.ErrorResponse "Нет подписки преподавателя"
// @Router /instructors/me [post]
func (h *Handler) SaveProfile(w http.ResponseWriter, r *http.Request) {
	save(h, w, r, "handlers.instructor.SaveProfile", http.StatusOK, h.service.SaveProfile)
}

// Materials godoc
// @Summary Материалы преподавателя
// @Tags Instructor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Material}
// @Router /instructors/materials [get]
func (h *Handler) Materials(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, "handlers.instructor.Materials", h.service.Materials)
}

// AddMaterial godoc
// @Summary Добавление материала
// @Tags Instructor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.MaterialRequest true "Материал"
// @Success 201 {object} response.Response{data=models.Material}
// @Failure 404 {object} response.ErrorResponse "Предмет не найден"
// @Router /instructors/materials [post]
func (h *Handler) AddMaterial(w http.ResponseWriter, r *http.Request) {
	save(h, w, r, "handlers.instructor.AddMaterial", http.StatusCreated, h.service.AddMaterial)
}

// Agents godoc
// @Summary ИИ‑агенты преподавателя
// @Tags Instructor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.AgentConfig}
// @Router /instructors/agents [get]
func (h *Handler) Agents(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, "handlers.instructor.Agents", h.service.Agents)
}

// AddAgent godoc
// @Summary Новый ИИ‑агент
// @Tags Instructor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.AgentConfigRequest true "Настройки агента"
// @Success 201 {object} response.Response{data=models.AgentConfig}
// @Router /instructors/agents [post]
func (h *Handler) AddAgent(w http.ResponseWriter, r *http.Request) {
	save(h, w, r, "handlers.instructor.AddAgent", http.StatusCreated, h.service.AddAgent)
}

// LessonPlans godoc
// @Summary Планы уроков
// @Tags Instructor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.LessonPlan}
// @Router /instructors/lesson-plans [get]
func (h *Handler) LessonPlans(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, "handlers.instructor.LessonPlans", h.service.LessonPlans)
}

// AddLessonPlan godoc
// @Summary Сохранение плана урока
// @Tags Instructor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.LessonPlanRequest true "План урока"
// @Success 201 {object} response.Response{data=models.LessonPlan}
// @Router /instructors/lesson-plans [post]
func (h *Handler) AddLessonPlan(w http.ResponseWriter, r *http.Request) {
	save(h, w, r, "handlers.instructor.AddLessonPlan", http.StatusCreated, h.service.AddLessonPlan)
}

// GenerateLessonPlan godoc
// @Summary Генерация плана урока
// @Tags Instructor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.GenerateLessonPlanRequest true "Предмет, уровень, тема"
// @Success 200 {object} response.Response{data=map[string]any}
// @Failure 404 {object} response.ErrorResponse "Предмет не найден"
// @Failure 502 {object} response.ErrorResponse "Ошибка ИИ‑провайдера"
// @Router /instructors/lesson-plans/generate [post]
func (h *Handler) GenerateLessonPlan(w http.ResponseWriter, r *http.Request) {
	save(h, w, r, "handlers.instructor.GenerateLessonPlan", http.StatusOK, h.service.GenerateLessonPlan)
}

// Schemes godoc
// @Summary Планы работы
// @Tags Instructor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.SchemeOfWork}
// @Router /instructors/schemes [get]
func (h *Handler) Schemes(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, "handlers.instructor.Schemes", h.service.Schemes)
}

// AddScheme godoc
// @Summary Сохранение плана работы
// @Tags Instructor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.SchemeRequest true "План работы"
// @Success 201 {object} response.Response{data=models.SchemeOfWork}
// @Router /instructors/schemes [post]
func (h *Handler) AddScheme(w http.ResponseWriter, r *http.Request) {
	save(h, w, r, "handlers.instructor.AddScheme", http.StatusCreated, h.service.AddScheme)
}

// GenerateScheme godoc
// @Summary Генерация плана работы
// @Tags Instructor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.GenerateSchemeRequest true "Предмет, уровень, срок"
// @Success 200 {object} response.Response{data=map[string]any}
// @Failure 404 {object} response.ErrorResponse "Предмет не найден"
// @Failure 502 {object} response.ErrorResponse "Ошибка ИИ‑провайдера"
// @Router /instructors/schemes/generate [post]
func (h *Handler) GenerateScheme(w http.ResponseWriter, r *http.Request) {
	save(h, w, r, "handlers.instructor.GenerateScheme", http.StatusOK,
		func(ctx context.Context, _ string, req models.GenerateSchemeRequest) (map[string]any, error) {
			return h.service.GenerateScheme(ctx, req)
		})
}

// Assessments godoc
// @Summary Задания
// @Tags Instructor
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]models.Assessment}
// @Router /instructors/assessments [get]
func (h *Handler) Assessments(w http.ResponseWriter, r *http.Request) {
	list(h, w, r, "handlers.instructor.Assessments", h.service.Assessments)
}

// AddAssessment godoc
// @Summary Сохранение задания
// @Tags Instructor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.AssessmentRequest true "Задание"
// @Success 201 {object} response.Response{data=models.Assessment}
// @Router /instructors/assessments [post]
func (h *Handler) AddAssessment(w http.ResponseWriter, r *http.Request) {
	save(h, w, r, "handlers.instructor.AddAssessment", http.StatusCreated, h.service.AddAssessment)
}

// GenerateAssessment godoc
// @Summary Генерация задания
// @Tags Instructor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.GenerateAssessmentRequest true "Предмет, тема, тип, число вопросов"
// @Success 200 {object} response.Response{data=map[string]any}
// @Failure 404 {object} response.ErrorResponse "Предмет не найден"
// @Failure 502 {object} response.ErrorResponse "Ошибка ИИ‑провайдера"
// @Router /instructors/assessments/generate [post]
func (h *Handler) GenerateAssessment(w http.ResponseWriter, r *http.Request) {
	save(h, w, r, "handlers.instructor.GenerateAssessment", http.StatusOK,
		func(ctx context.Context, _ string, req models.GenerateAssessmentRequest) (map[string]any, error) {
			return h.service.GenerateAssessment(ctx, req)
		})
}

// DownloadAssessment godoc
// @Summary Выгрузка задания
// @Tags Instructor
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID задания"
// @Param format query string false "Формат" Enums(pdf, docx)
// @Success 200 {object} response.Response{data=models.AssessmentDownload}
// @Failure 404 {object} response.ErrorResponse
// @Router /instructors/assessments/{id}/download [get]
func (h *Handler) DownloadAssessment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	format := r.URL.Query().Get("format")
	list(h, w, r, "handlers.instructor.DownloadAssessment",
		func(ctx context.Context, userID string) (*models.AssessmentDownload, error) {
			return h.service.DownloadAssessment(ctx, id, userID, format)
		})
}
