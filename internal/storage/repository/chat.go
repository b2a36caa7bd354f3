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
	chatSessionColumns = `id, user_id, subject_id, agent_config_id, title, created_at, updated_at`
	chatMessageColumns = `id, session_id, role, content, attachments, created_at`
)

func scanChatSession(row rowScanner, extra ...any) (*models.ChatSession, error) {
	cs := &models.ChatSession{}
	dest := append([]any{&cs.ID, &cs.UserID, &cs.SubjectID, &cs.AgentConfigID, &cs.Title,
		&cs.CreatedAt, &cs.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return cs, nil
}

func scanChatMessage(row rowScanner) (*models.ChatMessage, error) {
	m := &models.ChatMessage{}
	var attachments []byte
	if err := row.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &attachments, &m.CreatedAt); err != nil {
		return nil, err
	}
	if len(attachments) > 0 {
		m.Attachments = json.RawMessage(attachments)
	}
	return m, nil
}

func nullableJSON(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}

// CreateChatSession сохраняет новую сессию чата.
func (s *Storage) CreateChatSession(ctx context.Context, session models.ChatSession) (*models.ChatSession, error) {
	const op = "storage.CreateChatSession"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	created, err := scanChatSession(s.DB.QueryRowContext(ctx,
		`INSERT INTO chat_sessions (id, user_id, subject_id, agent_config_id, title)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+chatSessionColumns,
		session.ID, session.UserID, session.SubjectID, session.AgentConfigID, session.Title))
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return created, nil
}

// ListChatSessions возвращает сессии пользователя, начиная с последней обновлённой.
// В Messages каждой сессии лежит не больше одного, последнего, сообщения.
func (s *Storage) ListChatSessions(ctx context.Context, userID string) ([]models.ChatSession, error) {
	const op = "storage.ListChatSessions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT ` + prefixed("cs", chatSessionColumns) + `,
			      sub.id, sub.name, sub.level,
			      m.id, m.role, m.content, m.created_at
			  FROM chat_sessions cs
			  JOIN subjects sub ON sub.id = cs.subject_id
			  LEFT JOIN LATERAL (
			      SELECT id, role, content, created_at FROM chat_messages
			      WHERE session_id = cs.id
			      ORDER BY created_at DESC
			      LIMIT 1
			  ) m ON true
			  WHERE cs.user_id = $1
			  ORDER BY cs.updated_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	defer rows.Close()

	result := []models.ChatSession{}
	for rows.Next() {
		var (
			subject   models.Subject
			msgID     sql.NullString
			msgRole   sql.NullString
			msgText   sql.NullString
			msgCreate sql.NullTime
		)
		cs, err := scanChatSession(rows, &subject.ID, &subject.Name, &subject.Level,
			&msgID, &msgRole, &msgText, &msgCreate)
		if err != nil {
			return nil, wrapErr(op, err)
		}
		cs.Subject = &subject
		if msgID.Valid {
			cs.Messages = []models.ChatMessage{{
				ID:        msgID.String,
				SessionID: cs.ID,
				Role:      models.MessageRole(msgRole.String),
				Content:   msgText.String,
				CreatedAt: msgCreate.Time,
			}}
		}
		result = append(result, *cs)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapErr(op, err)
	}
	return result, nil
}

// GetChatSession возвращает сессию владельца со всеми сообщениями по возрастанию времени.
// Чужая сессия неотличима от несуществующей.
func (s *Storage) GetChatSession(ctx context.Context, id, userID string) (*models.ChatSession, error) {
	const op = "storage.GetChatSession"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	var subject models.Subject
	cs, err := scanChatSession(s.DB.QueryRowContext(ctx,
		`SELECT `+prefixed("cs", chatSessionColumns)+`, sub.id, sub.name, sub.level
		 FROM chat_sessions cs
		 JOIN subjects sub ON sub.id = cs.subject_id
		 WHERE cs.id = $1 AND cs.user_id = $2`, id, userID),
		&subject.ID, &subject.Name, &subject.Level)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, models.ErrNotFound)
		}
		return nil, wrapErr(op, err)
	}
	cs.Subject = &subject

	cs.Messages, err = s.listChatMessages(ctx, cs.ID)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return cs, nil
}

func (s *Storage) listChatMessages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+chatMessageColumns+` FROM chat_messages WHERE session_id = $1 ORDER BY created_at, id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	messages := []models.ChatMessage{}
	for rows.Next() {
		m, err := scanChatMessage(rows)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *m)
	}
	return messages, rows.Err()
}

// AddChatMessages добавляет сообщения в сессию и обновляет её updated_at в одной транзакции.
func (s *Storage) AddChatMessages(ctx context.Context, sessionID string, messages ...models.ChatMessage) ([]models.ChatMessage, error) {
	const op = "storage.AddChatMessages"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	saved := make([]models.ChatMessage, 0, len(messages))
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		for _, msg := range messages {
			m, err := scanChatMessage(tx.QueryRowContext(ctx,
				`INSERT INTO chat_messages (id, session_id, role, content, attachments)
				 VALUES ($1, $2, $3, $4, $5)
				 RETURNING `+chatMessageColumns,
				msg.ID, sessionID, msg.Role, msg.Content, nullableJSON(msg.Attachments)))
			if err != nil {
				return err
			}
			saved = append(saved, *m)
		}
		_, err := tx.ExecContext(ctx, `UPDATE chat_sessions SET updated_at = NOW() WHERE id = $1`, sessionID)
		return err
	})
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return saved, nil
}

// DeleteChatSession удаляет сессию владельца вместе с сообщениями.
func (s *Storage) DeleteChatSession(ctx context.Context, id, userID string) error {
	const op = "storage.DeleteChatSession"
	if err := checkCtx(ctx, op); err != nil {
		return err
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = $1 AND user_id = $2`, id, userID)
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
