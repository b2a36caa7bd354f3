package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

const videoSessionColumns = `id, user_id, subject_id, agent_config_id, question, status, script, text_summary, video_url, created_at, updated_at`

func scanVideoSession(row rowScanner, extra ...any) (*models.VideoSession, error) {
	v := &models.VideoSession{}
	var script []byte
	dest := append([]any{&v.ID, &v.UserID, &v.SubjectID, &v.AgentConfigID, &v.Question, &v.Status,
		&script, &v.TextSummary, &v.VideoURL, &v.CreatedAt, &v.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if len(script) > 0 && string(script) != "null" {
		v.Script = &models.VideoScript{}
		if err := json.Unmarshal(script, v.Script); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// CreateVideoSession сохраняет запрос на видеообъяснение в статусе PENDING.
func (s *Storage) CreateVideoSession(ctx context.Context, session models.VideoSession) (*models.VideoSession, error) {
	const op = "storage.CreateVideoSession"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	created, err := scanVideoSession(s.DB.QueryRowContext(ctx,
		`INSERT INTO video_sessions (id, user_id, subject_id, agent_config_id, question, status)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+videoSessionColumns,
		session.ID, session.UserID, session.SubjectID, session.AgentConfigID, session.Question, models.VideoPending))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return created, nil
}

// ListVideoSessions возвращает видеосессии пользователя, новые первыми.
func (s *Storage) ListVideoSessions(ctx context.Context, userID string) ([]models.VideoSession, error) {
	const op = "storage.ListVideoSessions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+prefixed("v", videoSessionColumns)+`, sub.id, sub.name, sub.level
		 FROM video_sessions v
		 JOIN subjects sub ON sub.id = v.subject_id
		 WHERE v.user_id = $1
		 ORDER BY v.created_at DESC`, userID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	result := []models.VideoSession{}
	for rows.Next() {
		var subject models.Subject
		v, err := scanVideoSession(rows, &subject.ID, &subject.Name, &subject.Level)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		v.Subject = &subject
		result = append(result, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// GetVideoSession возвращает видеосессию владельца.
func (s *Storage) GetVideoSession(ctx context.Context, id, userID string) (*models.VideoSession, error) {
	const op = "storage.GetVideoSession"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var subject models.Subject
	v, err := scanVideoSession(s.DB.QueryRowContext(ctx,
		`SELECT `+prefixed("v", videoSessionColumns)+`, sub.id, sub.name, sub.level
		 FROM video_sessions v
		 JOIN subjects sub ON sub.id = v.subject_id
		 WHERE v.id = $1 AND v.user_id = $2`, id, userID),
		&subject.ID, &subject.Name, &subject.Level)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, wrapErr(op, err)
	}
	v.Subject = &subject
	return v, nil
}

// CompleteVideoSession сохраняет сценарий и переводит сессию в COMPLETED.
// Сессия в конечном статусе не меняется.
func (s *Storage) CompleteVideoSession(ctx context.Context, id string, script models.VideoScript, videoURL string) error {
	const op = "storage.CompleteVideoSession"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	raw, err := json.Marshal(script)
	if err != nil {
		return wrapErr(op, err)
	}
	_, err = s.DB.ExecContext(ctx,
		`UPDATE video_sessions
		 SET status = $2, script = $3, text_summary = $4, video_url = $5, updated_at = NOW()
		 WHERE id = $1 AND status = $6`,
		id, models.VideoCompleted, raw, script.Summary, videoURL, models.VideoPending)
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}

// FailVideoSession переводит незавершённую сессию в FAILED.
func (s *Storage) FailVideoSession(ctx context.Context, id string) error {
	const op = "storage.FailVideoSession"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	_, err := s.DB.ExecContext(ctx,
		`UPDATE video_sessions SET status = $2, updated_at = NOW() WHERE id = $1 AND status = $3`,
		id, models.VideoFailed, models.VideoPending)
	if err != nil {
		return wrapErr(op, err)
	}
	return nil
}
