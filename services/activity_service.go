package services

import (
	"context"

	"dharmaverse/logger"
	"dharmaverse/models"
	"dharmaverse/utils"
)

// ActivityService records moderation and upload actions for the admin feed.
type ActivityService interface {
	Log(ctx context.Context, actorID, actorName, action, details string) error
	List(ctx context.Context, page, pageSize int) ([]*models.ActivityLog, int, error)
}

type activityService struct {
	db SQLExecutor
}

// NewActivityService creates an ActivityService.
func NewActivityService(db SQLExecutor) ActivityService {
	return &activityService{db: db}
}

func (s *activityService) Log(ctx context.Context, actorID, actorName, action, details string) error {
	id, err := utils.GenerateID("act")
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO activity_logs (id, actor_id, actor_name, action, details, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		id, actorID, actorName, action, details, nowDB())
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"actor_id": actorID,
			"action":   action,
			"error":    err.Error(),
		}).Warn("Failed to record activity")
		return err
	}
	return nil
}

func (s *activityService) List(ctx context.Context, page, pageSize int) ([]*models.ActivityLog, int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM activity_logs`).Scan(&total); err != nil {
		return nil, 0, err
	}

	page, pageSize = normalizePage(page, pageSize)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, actor_id, actor_name, action, COALESCE(details, ''), created_at
		FROM activity_logs
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	logs := []*models.ActivityLog{}
	for rows.Next() {
		var l models.ActivityLog
		if err := rows.Scan(&l.ID, &l.ActorID, &l.ActorName, &l.Action, &l.Details, &l.CreatedAt); err != nil {
			return nil, 0, err
		}
		logs = append(logs, &l)
	}
	return logs, total, rows.Err()
}
