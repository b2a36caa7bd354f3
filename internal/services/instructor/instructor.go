// Package instructor реализует инструменты преподавателя: профиль, материалы,
// собственные конфигурации агентов, планы уроков, планы работы и задания,
// в том числе их генерацию через ИИ.
package instructor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/omniclass/internal/aiprovider"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000
	defaultAgentName   = "Custom agent"
)

// Repository описывает хранилище материалов преподавателя.
type Repository interface {
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	GetLatestSyllabus(ctx context.Context, subjectID string) (*models.Syllabus, error)

	GetInstructorProfile(ctx context.Context, userID string) (*models.InstructorProfile, error)
	UpsertInstructorProfile(ctx context.Context, profile models.InstructorProfile) (*models.InstructorProfile, error)

	ListMaterials(ctx context.Context, instructorID string) ([]models.Material, error)
	CreateMaterial(ctx context.Context, m models.Material) (*models.Material, error)

	ListAgentConfigs(ctx context.Context, instructorID string) ([]models.AgentConfig, error)
	CreateAgentConfig(ctx context.Context, cfg models.AgentConfig) (*models.AgentConfig, error)

	ListLessonPlans(ctx context.Context, instructorID string) ([]models.LessonPlan, error)
	CreateLessonPlan(ctx context.Context, lp models.LessonPlan) (*models.LessonPlan, error)
	ListSchemes(ctx context.Context, instructorID string) ([]models.SchemeOfWork, error)
	CreateScheme(ctx context.Context, sw models.SchemeOfWork) (*models.SchemeOfWork, error)
	ListAssessments(ctx context.Context, instructorID string) ([]models.Assessment, error)
	CreateAssessment(ctx context.Context, a models.Assessment) (*models.Assessment, error)
	GetAssessment(ctx context.Context, id, instructorID string) (*models.Assessment, error)
}

// Generator запрашивает у модели JSON‑ответ.
type Generator interface {
	CompleteJSON(ctx context.Context, req aiprovider.Request, out any) error
}

// Service обслуживает запросы преподавателей.
type Service struct {
	repo         Repository
	ai           Generator
	defaultModel string
	log          *slog.Logger
}

// NewService создаёт сервис преподавателя.
func NewService(repo Repository, ai Generator, defaultModel string, log *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		ai:           ai,
		defaultModel: defaultModel,
		log:          log,
	}
}

// Profile возвращает профиль или nil, если преподаватель его ещё не заполнил.
func (s *Service) Profile(ctx context.Context, userID string) (*models.InstructorProfile, error) {
	const op = "instructor.Profile"

	p, err := s.repo.GetInstructorProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// SaveProfile создаёт или перезаписывает профиль.
func (s *Service) SaveProfile(ctx context.Context, userID string, req models.InstructorProfileRequest) (*models.InstructorProfile, error) {
	const op = "instructor.SaveProfile"

	p, err := s.repo.UpsertInstructorProfile(ctx, models.InstructorProfile{
		UserID:         userID,
		Bio:            req.Bio,
		Qualifications: req.Qualifications,
		Subjects:       req.Subjects,
		Levels:         req.Levels,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

// Materials возвращает материалы преподавателя.
func (s *Service) Materials(ctx context.Context, instructorID string) ([]models.Material, error) {
	const op = "instructor.Materials"

	items, err := s.repo.ListMaterials(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// AddMaterial сохраняет материал.
func (s *Service) AddMaterial(ctx context.Context, instructorID string, req models.MaterialRequest) (*models.Material, error) {
	const op = "instructor.AddMaterial"

	if req.SubjectID != nil {
		if _, err := s.repo.GetSubject(ctx, *req.SubjectID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	m, err := s.repo.CreateMaterial(ctx, models.Material{
		ID:           uuid.NewString(),
		InstructorID: instructorID,
		SubjectID:    req.SubjectID,
		Title:        req.Title,
		Description:  req.Description,
		FileURL:      req.FileURL,
		FileType:     req.FileType,
		FileSize:     req.FileSize,
		IsActive:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return m, nil
}

// Agents возвращает конфигурации агентов преподавателя.
func (s *Service) Agents(ctx context.Context, instructorID string) ([]models.AgentConfig, error) {
	const op = "instructor.Agents"

	items, err := s.repo.ListAgentConfigs(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// AddAgent создаёт конфигурацию агента преподавателя. Незаданные параметры
// генерации получают значения по умолчанию.
func (s *Service) AddAgent(ctx context.Context, instructorID string, req models.AgentConfigRequest) (*models.AgentConfig, error) {
	const op = "instructor.AddAgent"

	if _, err := s.repo.GetSubject(ctx, req.SubjectID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cfg := models.AgentConfig{
		ID:           uuid.NewString(),
		SubjectID:    req.SubjectID,
		InstructorID: &instructorID,
		Name:         strings.TrimSpace(req.Name),
		SystemPrompt: req.SystemPrompt,
		Temperature:  defaultTemperature,
		MaxTokens:    defaultMaxTokens,
		Model:        req.Model,
	}
	if cfg.Name == "" {
		cfg.Name = defaultAgentName
	}
	if req.Temperature != nil {
		cfg.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		cfg.MaxTokens = *req.MaxTokens
	}
	if cfg.Model == "" {
		cfg.Model = s.defaultModel
	}

	created, err := s.repo.CreateAgentConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return created, nil
}

// LessonPlans возвращает планы уроков преподавателя.
func (s *Service) LessonPlans(ctx context.Context, instructorID string) ([]models.LessonPlan, error) {
	const op = "instructor.LessonPlans"

	items, err := s.repo.ListLessonPlans(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// AddLessonPlan сохраняет план урока.
func (s *Service) AddLessonPlan(ctx context.Context, instructorID string, req models.LessonPlanRequest) (*models.LessonPlan, error) {
	const op = "instructor.AddLessonPlan"

	if _, err := s.repo.GetSubject(ctx, req.SubjectID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	lp, err := s.repo.CreateLessonPlan(ctx, models.LessonPlan{
		ID:           uuid.NewString(),
		InstructorID: instructorID,
		SubjectID:    req.SubjectID,
		Title:        req.Title,
		Topic:        req.Topic,
		Content:      req.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return lp, nil
}

// GenerateLessonPlan генерирует план урока по программе предмета
// и активным материалам преподавателя. Результат не сохраняется.
func (s *Service) GenerateLessonPlan(ctx context.Context, instructorID string, req models.GenerateLessonPlanRequest) (map[string]any, error) {
	const op = "instructor.GenerateLessonPlan"

	subject, syllabus, err := s.subjectWithSyllabus(ctx, req.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	materials, err := s.repo.ListMaterials(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	var titles []string
	for _, m := range materials {
		if m.IsActive && m.SubjectID != nil && *m.SubjectID == subject.ID {
			titles = append(titles, m.Title)
		}
	}

	out := map[string]any{}
	genReq := aiprovider.LessonPlanRequest(s.defaultModel, *subject, syllabus, req.Topic, req.Duration, titles)
	if err := s.ai.CompleteJSON(ctx, genReq, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Schemes возвращает планы работы преподавателя.
func (s *Service) Schemes(ctx context.Context, instructorID string) ([]models.SchemeOfWork, error) {
	const op = "instructor.Schemes"

	items, err := s.repo.ListSchemes(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// AddScheme сохраняет план работы.
func (s *Service) AddScheme(ctx context.Context, instructorID string, req models.SchemeRequest) (*models.SchemeOfWork, error) {
	const op = "instructor.AddScheme"

	if _, err := s.repo.GetSubject(ctx, req.SubjectID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sw, err := s.repo.CreateScheme(ctx, models.SchemeOfWork{
		ID:           uuid.NewString(),
		InstructorID: instructorID,
		SubjectID:    req.SubjectID,
		Title:        req.Title,
		Term:         req.Term,
		Year:         req.Year,
		Content:      req.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sw, nil
}

// GenerateScheme генерирует план работы на четверть. Результат не сохраняется.
func (s *Service) GenerateScheme(ctx context.Context, req models.GenerateSchemeRequest) (map[string]any, error) {
	const op = "instructor.GenerateScheme"

	subject, syllabus, err := s.subjectWithSyllabus(ctx, req.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := map[string]any{}
	if err := s.ai.CompleteJSON(ctx, aiprovider.SchemeRequest(s.defaultModel, *subject, syllabus, req.Term, req.Year), &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// Assessments возвращает задания преподавателя.
func (s *Service) Assessments(ctx context.Context, instructorID string) ([]models.Assessment, error) {
	const op = "instructor.Assessments"

	items, err := s.repo.ListAssessments(ctx, instructorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// AddAssessment сохраняет задание.
func (s *Service) AddAssessment(ctx context.Context, instructorID string, req models.AssessmentRequest) (*models.Assessment, error) {
	const op = "instructor.AddAssessment"

	if _, err := s.repo.GetSubject(ctx, req.SubjectID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	a, err := s.repo.CreateAssessment(ctx, models.Assessment{
		ID:           uuid.NewString(),
		InstructorID: instructorID,
		SubjectID:    req.SubjectID,
		Title:        req.Title,
		Type:         req.Type,
		Content:      req.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// GenerateAssessment генерирует задание. Результат не сохраняется.
func (s *Service) GenerateAssessment(ctx context.Context, req models.GenerateAssessmentRequest) (map[string]any, error) {
	const op = "instructor.GenerateAssessment"

	subject, err := s.repo.GetSubject(ctx, req.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	out := map[string]any{}
	genReq := aiprovider.AssessmentRequest(s.defaultModel, *subject, req.Topic, req.Type, req.NumQuestions)
	if err := s.ai.CompleteJSON(ctx, genReq, &out); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

// DownloadAssessment отдаёт задание для выгрузки. Документ пока
// возвращается в JSON независимо от запрошенного формата.
func (s *Service) DownloadAssessment(ctx context.Context, id, instructorID, format string) (*models.AssessmentDownload, error) {
	const op = "instructor.DownloadAssessment"

	a, err := s.repo.GetAssessment(ctx, id, instructorID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &models.AssessmentDownload{
		Message:    "Document generation not fully implemented",
		Assessment: a,
		Format:     format,
		Note:       "PDF and Word export will replace this JSON payload",
	}, nil
}

func (s *Service) subjectWithSyllabus(ctx context.Context, subjectID string) (*models.Subject, *models.Syllabus, error) {
	subject, err := s.repo.GetSubject(ctx, subjectID)
	if err != nil {
		return nil, nil, err
	}
	syllabus, err := s.repo.GetLatestSyllabus(ctx, subjectID)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, nil, err
	}
	return subject, syllabus, nil
}
