// Package video реализует видеообъяснения: сессия создаётся в статусе PENDING,
// сценарий генерируется фоновой задачей, которая переводит сессию
// в COMPLETED или FAILED.
package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/omniclass/internal/aiprovider"
	"github.com/magabrotheeeer/omniclass/internal/lib/metrics"
	"github.com/magabrotheeeer/omniclass/internal/lib/sl"
	"github.com/magabrotheeeer/omniclass/internal/models"
)

// Repository описывает хранилище видеосессий.
type Repository interface {
	GetSubject(ctx context.Context, id string) (*models.Subject, error)
	GetDefaultAgentConfig(ctx context.Context, subjectID string) (*models.AgentConfig, error)
	CreateVideoSession(ctx context.Context, session models.VideoSession) (*models.VideoSession, error)
	ListVideoSessions(ctx context.Context, userID string) ([]models.VideoSession, error)
	GetVideoSession(ctx context.Context, id, userID string) (*models.VideoSession, error)
	CompleteVideoSession(ctx context.Context, id string, script models.VideoScript, videoURL string) error
	FailVideoSession(ctx context.Context, id string) error
}

// Generator запрашивает у модели JSON‑ответ.
type Generator interface {
	CompleteJSON(ctx context.Context, req aiprovider.Request, out any) error
}

// Service создаёт видеосессии и управляет их генерацией.
type Service struct {
	repo   Repository
	ai     Generator
	runner *Runner
	log    *slog.Logger
}

// NewService создаёт сервис видеообъяснений.
func NewService(repo Repository, ai Generator, runner *Runner, log *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		ai:     ai,
		runner: runner,
		log:    log,
	}
}

// VideoURL адрес воспроизведения сгенерированного видео.
func VideoURL(sessionID string) string {
	return "/api/video/sessions/" + sessionID + "/video"
}

// Create сохраняет сессию в статусе PENDING и запускает генерацию сценария.
// Генерация не зависит от контекста запроса и продолжается после ответа клиенту.
func (s *Service) Create(ctx context.Context, userID string, req models.CreateVideoSessionRequest) (*models.VideoSession, *Task, error) {
	const op = "video.Create"

	subject, err := s.repo.GetSubject(ctx, req.SubjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	agent, err := s.repo.GetDefaultAgentConfig(ctx, subject.ID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, models.ErrAgentNotConfigured)
		}
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	session, err := s.repo.CreateVideoSession(ctx, models.VideoSession{
		ID:            uuid.NewString(),
		UserID:        userID,
		SubjectID:     subject.ID,
		AgentConfigID: agent.ID,
		Question:      req.Question,
		Status:        models.VideoPending,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	bg := context.WithoutCancel(ctx)
	task := s.runner.Start(session.ID, func() {
		s.generate(bg, session.ID, *agent, *subject, req.Question)
	})
	return session, task, nil
}

func (s *Service) generate(ctx context.Context, id string, agent models.AgentConfig, subject models.Subject, question string) {
	log := s.log.With(slog.String("video_session_id", id))

	var script models.VideoScript
	err := s.ai.CompleteJSON(ctx, aiprovider.VideoScriptRequest(agent, subject, question), &script)
	if err != nil {
		log.Error("video script generation failed", sl.Err(err))
		metrics.VideoGenerations.WithLabelValues("failed").Inc()
		if err := s.repo.FailVideoSession(ctx, id); err != nil {
			log.Error("failed to mark video session failed", sl.Err(err))
		}
		return
	}

	if err := s.repo.CompleteVideoSession(ctx, id, script, VideoURL(id)); err != nil {
		log.Error("failed to store video script", sl.Err(err))
		metrics.VideoGenerations.WithLabelValues("failed").Inc()
		if err := s.repo.FailVideoSession(ctx, id); err != nil {
			log.Error("failed to mark video session failed", sl.Err(err))
		}
		return
	}
	metrics.VideoGenerations.WithLabelValues("completed").Inc()
	log.Info("video script generated", slog.Int("steps", len(script.Steps)))
}

// List возвращает видеосессии пользователя, новые первыми.
func (s *Service) List(ctx context.Context, userID string) ([]models.VideoSession, error) {
	const op = "video.List"

	sessions, err := s.repo.ListVideoSessions(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return sessions, nil
}

// Get возвращает видеосессию пользователя.
func (s *Service) Get(ctx context.Context, id, userID string) (*models.VideoSession, error) {
	const op = "video.Get"

	session, err := s.repo.GetVideoSession(ctx, id, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return session, nil
}

// Video возвращает сессию с готовым видео. Пока адреса нет, возвращается ErrNotFound.
func (s *Service) Video(ctx context.Context, id, userID string) (*models.VideoSession, error) {
	const op = "video.Video"

	session, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if session.VideoURL == "" {
		return nil, fmt.Errorf("%s: video not ready: %w", op, models.ErrNotFound)
	}
	return session, nil
}

// Await ждёт, пока генерация сессии не завершится, и возвращает её
// итоговое состояние. Для сессии в конечном статусе ожидания нет.
func (s *Service) Await(ctx context.Context, id, userID string) (*models.VideoSession, error) {
	const op = "video.Await"

	session, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if session.Status.Terminal() {
		return session, nil
	}

	if task, ok := s.runner.Wait(id); ok {
		select {
		case <-task.Done():
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		}
	}
	return s.Get(ctx, id, userID)
}
