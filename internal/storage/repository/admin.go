package repository

import (
	"context"
	"time"

	"github.com/magabrotheeeer/omniclass/internal/models"
)

// GetStats собирает сводную статистику одним запросом.
func (s *Storage) GetStats(ctx context.Context, now time.Time) (*models.Stats, error) {
	const op = "storage.GetStats"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	query := `SELECT
			      (SELECT COUNT(*) FROM users),
			      (SELECT COUNT(*) FROM users WHERE role = 'STUDENT'),
			      (SELECT COUNT(*) FROM users WHERE role = 'INSTRUCTOR'),
			      (SELECT COUNT(*) FROM users WHERE role = 'ADMIN'),
			      (SELECT COUNT(*) FROM subscriptions WHERE status = 'ACTIVE' AND end_date >= $1),
			      (SELECT COUNT(*) FROM payments WHERE status = 'COMPLETED'),
			      (SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'COMPLETED'),
			      (SELECT COUNT(*) FROM subjects WHERE is_active),
			      (SELECT COUNT(*) FROM chat_sessions),
			      (SELECT COUNT(*) FROM video_sessions)`

	stats := &models.Stats{}
	err := s.DB.QueryRowContext(ctx, query, now).Scan(
		&stats.Users.Total, &stats.Users.Students, &stats.Users.Instructors, &stats.Users.Admins,
		&stats.Subscriptions.Active,
		&stats.Payments.Completed, &stats.Payments.Revenue,
		&stats.Content.Subjects, &stats.Content.ChatSessions, &stats.Content.VideoSessions,
	)
	if err != nil {
		return nil, wrapErr(op, err)
	}
	return stats, nil
}
