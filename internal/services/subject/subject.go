// Package subject реализует каталог предметов, их программы и системные
// конфигурации ИИ‑агентов. Список предметов кешируется в Redis.
package subject

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/omniclass/internal/lib/sl"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

// ListTTL время жизни закешированного списка предметов.
const ListTTL = 10 * time.Minute

const listKeyPrefix = "subjects:list:"

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 2000
)

// Repository описывает хранилище предметов.
type Repository interface {
	ListSubjects(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error)
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	GetLatestSyllabus(ctx context.Context, subjectID string) (*models.Syllabus, error)
	CreateSubject(ctx context.Context, subject models.Subject, defaultAgent *models.AgentConfig) (*models.Subject, error)
	UpdateSubject(ctx context.Context, subject models.Subject) (*models.Subject, error)
	DeactivateSubject(ctx context.Context, id string) error
	AddSyllabus(ctx context.Context, syllabus models.Syllabus) (*models.Syllabus, error)
	GetDefaultAgentConfig(ctx context.Context, subjectID string) (*models.AgentConfig, error)
}

// Cache описывает кеш списков предметов.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Service управляет каталогом предметов.
type Service struct {
	repo         Repository
	cache        Cache
	defaultModel string
	log          *slog.Logger
}

// NewService создаёт сервис предметов. defaultModel записывается
// в системную конфигурацию агента новых предметов.
func NewService(repo Repository, cache Cache, defaultModel string, log *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		cache:        cache,
		defaultModel: defaultModel,
		log:          log,
	}
}

// List возвращает активные предметы с актуальной программой.
// Ошибки кеша не прерывают запрос.
func (s *Service) List(ctx context.Context, level models.Level) ([]models.Subject, error) {
	const op = "subject.List"

	key := listKeyPrefix + string(level)
	var cached []models.Subject
	ok, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("subject cache read failed", sl.Err(err))
	}
	if ok {
		return cached, nil
	}

	subjects, err := s.repo.ListSubjects(ctx, models.SubjectFilter{Level: level})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	if err := s.cache.Set(ctx, key, subjects, ListTTL); err != nil {
		s.log.Warn("subject cache write failed", sl.Err(err))
	}
	return subjects, nil
}

// Get возвращает предмет с актуальной программой и системной конфигурацией агента.
func (s *Service) Get(ctx context.Context, id string) (*models.Subject, error) {
	const op = "subject.Get"

	subject, err := s.repo.GetSubject(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	subject.Syllabus, err = s.repo.GetLatestSyllabus(ctx, id)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	subject.AgentConfig, err = s.repo.GetDefaultAgentConfig(ctx, id)
	if err != nil && !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return subject, nil
}

// Syllabus возвращает актуальную программу предмета.
func (s *Service) Syllabus(ctx context.Context, subjectID string) (*models.Syllabus, error) {
	const op = "subject.Syllabus"

	syllabus, err := s.repo.GetLatestSyllabus(ctx, subjectID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return syllabus, nil
}

// Create добавляет предмет вместе с системной конфигурацией агента.
func (s *Service) Create(ctx context.Context, req models.SubjectRequest) (*models.Subject, error) {
	const op = "subject.Create"

	subject := models.Subject{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Level:       req.Level,
		Description: req.Description,
	}
	prompt := req.SystemPrompt
	if prompt == "" {
		prompt = DefaultSystemPrompt(subject.Name, subject.Level)
	}
	agent := &models.AgentConfig{
		ID:           uuid.NewString(),
		SubjectID:    subject.ID,
		Name:         subject.Name + " tutor",
		SystemPrompt: prompt,
		Temperature:  defaultTemperature,
		MaxTokens:    defaultMaxTokens,
		Model:        s.defaultModel,
	}

	created, err := s.repo.CreateSubject(ctx, subject, agent)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	s.log.Info("subject created", slog.String("subject_id", created.ID), slog.String("name", created.Name))
	return created, nil
}

// Update меняет название, уровень и описание предмета.
func (s *Service) Update(ctx context.Context, id string, req models.SubjectRequest) (*models.Subject, error) {
	const op = "subject.Update"

	updated, err := s.repo.UpdateSubject(ctx, models.Subject{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Level:       req.Level,
		Description: req.Description,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return updated, nil
}

// Delete скрывает предмет из каталога.
func (s *Service) Delete(ctx context.Context, id string) error {
	const op = "subject.Delete"

	if err := s.repo.DeactivateSubject(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	s.log.Info("subject deactivated", slog.String("subject_id", id))
	return nil
}

// AddSyllabus добавляет новую версию программы; она становится актуальной.
func (s *Service) AddSyllabus(ctx context.Context, subjectID string, req models.SyllabusRequest) (*models.Syllabus, error) {
	const op = "subject.AddSyllabus"

	if _, err := s.repo.GetSubject(ctx, subjectID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	syllabus, err := s.repo.AddSyllabus(ctx, models.Syllabus{
		ID:        uuid.NewString(),
		SubjectID: subjectID,
		Title:     req.Title,
		Content:   req.Content,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx)
	return syllabus, nil
}

// DefaultSystemPrompt формирует системную подсказку агента по умолчанию.
func DefaultSystemPrompt(name string, level models.Level) string {
	levelName := "Ordinary"
	if level == models.LevelAdvanced {
		levelName = "Advanced"
	}
	return fmt.Sprintf("You are an expert %s teacher for %s Level students in Zimbabwe. "+
		"Explain concepts clearly and step-by-step, show all working, "+
		"use examples relevant to the Zimbabwean context and align explanations with the ZIMSEC curriculum.",
		name, levelName)
}

func (s *Service) invalidate(ctx context.Context) {
	keys := []string{
		listKeyPrefix,
		listKeyPrefix + string(models.LevelOrdinary),
		listKeyPrefix + string(models.LevelAdvanced),
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("subject cache invalidation failed", sl.Err(err))
	}
}
