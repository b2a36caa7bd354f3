package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

const (
	subjectColumns     = `id, name, level, description, is_active, created_at, updated_at`
	syllabusColumns    = `id, subject_id, title, content, created_at`
	agentConfigColumns = `id, subject_id, instructor_id, name, system_prompt, temperature, max_tokens, model, created_at`
)

func scanSubject(row rowScanner) (*models.Subject, error) {
	sub := &models.Subject{}
	if err := row.Scan(&sub.ID, &sub.Name, &sub.Level, &sub.Description, &sub.IsActive,
		&sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	return sub, nil
}

func scanSyllabus(row rowScanner) (*models.Syllabus, error) {
	s := &models.Syllabus{}
	var content []byte
	if err := row.Scan(&s.ID, &s.SubjectID, &s.Title, &content, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Content = json.RawMessage(content)
	return s, nil
}

func scanAgentConfig(row rowScanner) (*models.AgentConfig, error) {
	c := &models.AgentConfig{}
	if err := row.Scan(&c.ID, &c.SubjectID, &c.InstructorID, &c.Name, &c.SystemPrompt,
		&c.Temperature, &c.MaxTokens, &c.Model, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// ListSubjects возвращает активные предметы по алфавиту с актуальной программой.
func (s *Storage) ListSubjects(ctx context.Context, filter models.SubjectFilter) ([]models.Subject, error) {
	const op = "storage.ListSubjects"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + prefixed("s", subjectColumns) + `,
			      y.id, y.subject_id, y.title, y.content, y.created_at
			  FROM subjects s
			  LEFT JOIN LATERAL (
			      SELECT ` + syllabusColumns + ` FROM syllabi
			      WHERE subject_id = s.id
			      ORDER BY created_at DESC
			      LIMIT 1
			  ) y ON true
			  WHERE s.is_active AND ($1::text IS NULL OR s.level = $1)
			  ORDER BY s.name, s.level`
	rows, err := s.DB.QueryContext(ctx, query, nullIfEmpty(string(filter.Level)))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	result := []models.Subject{}
	for rows.Next() {
		var (
			sub       models.Subject
			syllabus  models.Syllabus
			syID      sql.NullString
			sySubject sql.NullString
			syTitle   sql.NullString
			syContent []byte
			syCreated sql.NullTime
		)
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Level, &sub.Description, &sub.IsActive,
			&sub.CreatedAt, &sub.UpdatedAt, &syID, &sySubject, &syTitle, &syContent, &syCreated); err != nil {
			return nil, wrapErr(op, err)
		}
		if syID.Valid {
			syllabus = models.Syllabus{
				ID:        syID.String,
				SubjectID: sySubject.String,
				Title:     syTitle.String,
				Content:   json.RawMessage(syContent),
				CreatedAt: syCreated.Time,
			}
			sub.Syllabus = &syllabus
		}
		result = append(result, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// GetSubject возвращает предмет по идентификатору.
func (s *Storage) GetSubject(ctx context.Context, id string) (*models.Subject, error) {
	const op = "storage.GetSubject"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	sub, err := scanSubject(s.DB.QueryRowContext(ctx, `SELECT `+subjectColumns+` FROM subjects WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return sub, nil
}

// GetLatestSyllabus возвращает последнюю программу предмета.
func (s *Storage) GetLatestSyllabus(ctx context.Context, subjectID string) (*models.Syllabus, error) {
	const op = "storage.GetLatestSyllabus"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + syllabusColumns + ` FROM syllabi WHERE subject_id = $1 ORDER BY created_at DESC LIMIT 1`
	syllabus, err := scanSyllabus(s.DB.QueryRowContext(ctx, query, subjectID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return syllabus, nil
}

// CreateSubject сохраняет предмет и, если задан, системный агент по умолчанию.
func (s *Storage) CreateSubject(ctx context.Context, subject models.Subject, defaultAgent *models.AgentConfig) (*models.Subject, error) {
	const op = "storage.CreateSubject"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var created *models.Subject
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		created, err = scanSubject(tx.QueryRowContext(ctx,
			`INSERT INTO subjects (id, name, level, description, is_active)
			 VALUES ($1, $2, $3, $4, true)
			 RETURNING `+subjectColumns,
			subject.ID, subject.Name, subject.Level, subject.Description))
		if err != nil {
			return err
		}
		if defaultAgent == nil {
			return nil
		}
		created.AgentConfig, err = insertAgentConfig(ctx, tx, *defaultAgent)
		return err
	})
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrAlreadyExists)
		}
		return nil, wrapErr(op, err)
	}
	return created, nil
}

// UpdateSubject меняет название, уровень и описание предмета.
func (s *Storage) UpdateSubject(ctx context.Context, subject models.Subject) (*models.Subject, error) {
	const op = "storage.UpdateSubject"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	updated, err := scanSubject(s.DB.QueryRowContext(ctx,
		`UPDATE subjects SET name = $2, level = $3, description = $4, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+subjectColumns,
		subject.ID, subject.Name, subject.Level, subject.Description))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrAlreadyExists)
		}
		return nil, wrapErr(op, err)
	}
	return updated, nil
}

// DeactivateSubject скрывает предмет из каталога, не удаляя его.
func (s *Storage) DeactivateSubject(ctx context.Context, id string) error {
	const op = "storage.DeactivateSubject"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `UPDATE subjects SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return wrapErr(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return wrapErr(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, models.ErrNotFound)
	}
	return nil
}

// AddSyllabus добавляет новую версию программы предмета.
func (s *Storage) AddSyllabus(ctx context.Context, syllabus models.Syllabus) (*models.Syllabus, error) {
	const op = "storage.AddSyllabus"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	created, err := scanSyllabus(s.DB.QueryRowContext(ctx,
		`INSERT INTO syllabi (id, subject_id, title, content, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+syllabusColumns,
		syllabus.ID, syllabus.SubjectID, syllabus.Title, []byte(syllabus.Content), time.Now()))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return created, nil
}

// GetDefaultAgentConfig возвращает системную конфигурацию агента предмета.
func (s *Storage) GetDefaultAgentConfig(ctx context.Context, subjectID string) (*models.AgentConfig, error) {
	const op = "storage.GetDefaultAgentConfig"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + agentConfigColumns + ` FROM agent_configs
			  WHERE subject_id = $1 AND instructor_id IS NULL
			  ORDER BY created_at DESC
			  LIMIT 1`
	cfg, err := scanAgentConfig(s.DB.QueryRowContext(ctx, query, subjectID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return cfg, nil
}

// GetAgentConfig возвращает конфигурацию агента по идентификатору.
func (s *Storage) GetAgentConfig(ctx context.Context, id string) (*models.AgentConfig, error) {
	const op = "storage.GetAgentConfig"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	cfg, err := scanAgentConfig(s.DB.QueryRowContext(ctx, `SELECT `+agentConfigColumns+` FROM agent_configs WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return cfg, nil
}

func insertAgentConfig(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, cfg models.AgentConfig) (*models.AgentConfig, error) {
	return scanAgentConfig(q.QueryRowContext(ctx,
		`INSERT INTO agent_configs (id, subject_id, instructor_id, name, system_prompt, temperature, max_tokens, model)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+agentConfigColumns,
		cfg.ID, cfg.SubjectID, cfg.InstructorID, cfg.Name, cfg.SystemPrompt, cfg.Temperature, cfg.MaxTokens, cfg.Model))
}
