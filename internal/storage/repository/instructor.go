package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

const (
	materialColumns   = `id, instructor_id, subject_id, title, description, file_url, file_type, file_size, is_active, created_at`
	lessonPlanColumns = `id, instructor_id, subject_id, title, topic, content, created_at`
	schemeColumns     = `id, instructor_id, subject_id, title, term, year, content, created_at`
	assessmentColumns = `id, instructor_id, subject_id, title, type, content, created_at`
)

// GetInstructorProfile возвращает профиль преподавателя.
func (s *Storage) GetInstructorProfile(ctx context.Context, userID string) (*models.InstructorProfile, error) {
	const op = "storage.GetInstructorProfile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	p, err := scanInstructorProfile(s.DB.QueryRowContext(ctx,
		`SELECT user_id, bio, qualifications, subjects, levels, created_at, updated_at
		 FROM instructor_profiles WHERE user_id = $1`, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return p, nil
}

// UpsertInstructorProfile создаёт или перезаписывает профиль преподавателя.
func (s *Storage) UpsertInstructorProfile(ctx context.Context, profile models.InstructorProfile) (*models.InstructorProfile, error) {
	const op = "storage.UpsertInstructorProfile"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	if profile.Subjects == nil {
		profile.Subjects = []string{}
	}
	if profile.Levels == nil {
		profile.Levels = []models.Level{}
	}
	subjects, err := json.Marshal(profile.Subjects)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	levels, err := json.Marshal(profile.Levels)
	if err != nil {
		return nil, wrapErr(op, err)
	}

	p, err := scanInstructorProfile(s.DB.QueryRowContext(ctx,
		`INSERT INTO instructor_profiles (user_id, bio, qualifications, subjects, levels)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (user_id) DO UPDATE
		 SET bio = EXCLUDED.bio,
		     qualifications = EXCLUDED.qualifications,
		     subjects = EXCLUDED.subjects,
		     levels = EXCLUDED.levels,
		     updated_at = NOW()
		 RETURNING user_id, bio, qualifications, subjects, levels, created_at, updated_at`,
		profile.UserID, profile.Bio, profile.Qualifications, subjects, levels))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return p, nil
}

func scanInstructorProfile(row rowScanner) (*models.InstructorProfile, error) {
	p := &models.InstructorProfile{}
	var subjects, levels []byte
	if err := row.Scan(&p.UserID, &p.Bio, &p.Qualifications, &subjects, &levels, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(subjects, &p.Subjects); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(levels, &p.Levels); err != nil {
		return nil, err
	}
	return p, nil
}

// ListMaterials возвращает активные материалы преподавателя, новые первыми.
func (s *Storage) ListMaterials(ctx context.Context, instructorID string) ([]models.Material, error) {
	const op = "storage.ListMaterials"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+materialColumns+` FROM instructor_materials
		 WHERE instructor_id = $1 AND is_active
		 ORDER BY created_at DESC`, instructorID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	result := []models.Material{}
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// CreateMaterial сохраняет учебный материал.
func (s *Storage) CreateMaterial(ctx context.Context, m models.Material) (*models.Material, error) {
	const op = "storage.CreateMaterial"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	created, err := scanMaterial(s.DB.QueryRowContext(ctx,
		`INSERT INTO instructor_materials (id, instructor_id, subject_id, title, description, file_url, file_type, file_size)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+materialColumns,
		m.ID, m.InstructorID, m.SubjectID, m.Title, m.Description, m.FileURL, m.FileType, m.FileSize))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return created, nil
}

func scanMaterial(row rowScanner) (*models.Material, error) {
	m := &models.Material{}
	if err := row.Scan(&m.ID, &m.InstructorID, &m.SubjectID, &m.Title, &m.Description, &m.FileURL,
		&m.FileType, &m.FileSize, &m.IsActive, &m.CreatedAt); err != nil {
		return nil, err
	}
	return m, nil
}

// ListAgentConfigs возвращает конфигурации агентов, созданные преподавателем.
func (s *Storage) ListAgentConfigs(ctx context.Context, instructorID string) ([]models.AgentConfig, error) {
	const op = "storage.ListAgentConfigs"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+agentConfigColumns+` FROM agent_configs
		 WHERE instructor_id = $1
		 ORDER BY created_at DESC`, instructorID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	result := []models.AgentConfig{}
	for rows.Next() {
		c, err := scanAgentConfig(rows)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// CreateAgentConfig сохраняет конфигурацию агента преподавателя.
func (s *Storage) CreateAgentConfig(ctx context.Context, cfg models.AgentConfig) (*models.AgentConfig, error) {
	const op = "storage.CreateAgentConfig"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	created, err := insertAgentConfig(ctx, s.DB, cfg)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrAlreadyExists)
		}
		return nil, wrapErr(op, err)
	}
	return created, nil
}

// ListLessonPlans возвращает планы уроков преподавателя вместе с предметом.
func (s *Storage) ListLessonPlans(ctx context.Context, instructorID string) ([]models.LessonPlan, error) {
	const op = "storage.ListLessonPlans"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+prefixed("lp", lessonPlanColumns)+`, sub.id, sub.name, sub.level
		 FROM lesson_plans lp
		 JOIN subjects sub ON sub.id = lp.subject_id
		 WHERE lp.instructor_id = $1
		 ORDER BY lp.created_at DESC`, instructorID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	result := []models.LessonPlan{}
	for rows.Next() {
		var (
			lp      models.LessonPlan
			subject models.Subject
			content []byte
		)
		if err := rows.Scan(&lp.ID, &lp.InstructorID, &lp.SubjectID, &lp.Title, &lp.Topic, &content, &lp.CreatedAt,
			&subject.ID, &subject.Name, &subject.Level); err != nil {
			return nil, wrapErr(op, err)
		}
		if lp.Content, err = unmarshalMap(content); err != nil {
			return nil, wrapErr(op, err)
		}
		lp.Subject = &subject
		result = append(result, lp)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// CreateLessonPlan сохраняет план урока.
func (s *Storage) CreateLessonPlan(ctx context.Context, lp models.LessonPlan) (*models.LessonPlan, error) {
	const op = "storage.CreateLessonPlan"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	content, err := marshalJSON(lp.Content)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	created := &models.LessonPlan{}
	var raw []byte
	err = s.DB.QueryRowContext(ctx,
		`INSERT INTO lesson_plans (id, instructor_id, subject_id, title, topic, content)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+lessonPlanColumns,
		lp.ID, lp.InstructorID, lp.SubjectID, lp.Title, lp.Topic, content).
		Scan(&created.ID, &created.InstructorID, &created.SubjectID, &created.Title, &created.Topic, &raw, &created.CreatedAt)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	if created.Content, err = unmarshalMap(raw); err != nil {
		return nil, wrapErr(op, err)
	}
	return created, nil
}

// ListSchemes возвращает планы работы преподавателя вместе с предметом.
func (s *Storage) ListSchemes(ctx context.Context, instructorID string) ([]models.SchemeOfWork, error) {
	const op = "storage.ListSchemes"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+prefixed("sw", schemeColumns)+`, sub.id, sub.name, sub.level
		 FROM schemes_of_work sw
		 JOIN subjects sub ON sub.id = sw.subject_id
		 WHERE sw.instructor_id = $1
		 ORDER BY sw.year DESC, sw.created_at DESC`, instructorID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	result := []models.SchemeOfWork{}
	for rows.Next() {
		var (
			sw      models.SchemeOfWork
			subject models.Subject
			content []byte
		)
		if err := rows.Scan(&sw.ID, &sw.InstructorID, &sw.SubjectID, &sw.Title, &sw.Term, &sw.Year, &content, &sw.CreatedAt,
			&subject.ID, &subject.Name, &subject.Level); err != nil {
			return nil, wrapErr(op, err)
		}
		if sw.Content, err = unmarshalMap(content); err != nil {
			return nil, wrapErr(op, err)
		}
		sw.Subject = &subject
		result = append(result, sw)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// CreateScheme сохраняет план работы на четверть.
func (s *Storage) CreateScheme(ctx context.Context, sw models.SchemeOfWork) (*models.SchemeOfWork, error) {
	const op = "storage.CreateScheme"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	content, err := marshalJSON(sw.Content)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	created := &models.SchemeOfWork{}
	var raw []byte
	err = s.DB.QueryRowContext(ctx,
		`INSERT INTO schemes_of_work (id, instructor_id, subject_id, title, term, year, content)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+schemeColumns,
		sw.ID, sw.InstructorID, sw.SubjectID, sw.Title, sw.Term, sw.Year, content).
		Scan(&created.ID, &created.InstructorID, &created.SubjectID, &created.Title, &created.Term, &created.Year, &raw, &created.CreatedAt)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	if created.Content, err = unmarshalMap(raw); err != nil {
		return nil, wrapErr(op, err)
	}
	return created, nil
}

// ListAssessments возвращает задания преподавателя вместе с предметом.
func (s *Storage) ListAssessments(ctx context.Context, instructorID string) ([]models.Assessment, error) {
	const op = "storage.ListAssessments"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+prefixed("a", assessmentColumns)+`, sub.id, sub.name, sub.level
		 FROM assessments a
		 JOIN subjects sub ON sub.id = a.subject_id
		 WHERE a.instructor_id = $1
		 ORDER BY a.created_at DESC`, instructorID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	result := []models.Assessment{}
	for rows.Next() {
		a, err := scanAssessment(rows, true)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// CreateAssessment сохраняет оценочное задание.
func (s *Storage) CreateAssessment(ctx context.Context, a models.Assessment) (*models.Assessment, error) {
	const op = "storage.CreateAssessment"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	content, err := marshalJSON(a.Content)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	created, err := scanAssessment(s.DB.QueryRowContext(ctx,
		`INSERT INTO assessments (id, instructor_id, subject_id, title, type, content)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+assessmentColumns,
		a.ID, a.InstructorID, a.SubjectID, a.Title, a.Type, content), false)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return created, nil
}

// GetAssessment возвращает задание, если оно принадлежит преподавателю.
func (s *Storage) GetAssessment(ctx context.Context, id, instructorID string) (*models.Assessment, error) {
	const op = "storage.GetAssessment"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	a, err := scanAssessment(s.DB.QueryRowContext(ctx,
		`SELECT `+prefixed("a", assessmentColumns)+`, sub.id, sub.name, sub.level
		 FROM assessments a
		 JOIN subjects sub ON sub.id = a.subject_id
		 WHERE a.id = $1 AND a.instructor_id = $2`, id, instructorID), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, wrapErr(op, err)
	}
	return a, nil
}

func scanAssessment(row rowScanner, withSubject bool) (*models.Assessment, error) {
	a := &models.Assessment{}
	var (
		content []byte
		subject models.Subject
	)
	dest := []any{&a.ID, &a.InstructorID, &a.SubjectID, &a.Title, &a.Type, &content, &a.CreatedAt}
	if withSubject {
		dest = append(dest, &subject.ID, &subject.Name, &subject.Level)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	var err error
	if a.Content, err = unmarshalMap(content); err != nil {
		return nil, err
	}
	if withSubject {
		a.Subject = &subject
	}
	return a, nil
}
