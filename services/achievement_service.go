package services

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"strings"

	"dharmaverse/models"
	"dharmaverse/utils"
)

var ErrAchievementNotFound = errors.New("achievement not found")

// AchievementService merges the achievement catalog with per-user progress.
type AchievementService interface {
	List(ctx context.Context, userID string) (*models.AchievementList, error)
	UpdateProgress(ctx context.Context, userID string, req models.UpdateProgressRequest) (*models.UserAchievement, error)
}

type achievementService struct {
	db SQLExecutor
}

// NewAchievementService creates an AchievementService.
func NewAchievementService(db SQLExecutor) AchievementService {
	return &achievementService{db: db}
}

func (s *achievementService) List(ctx context.Context, userID string) (*models.AchievementList, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.title, a.description, a.icon, a.category, a.points, a.requirement,
			COALESCE(ua.progress, 0), COALESCE(ua.unlocked, 0), COALESCE(ua.unlocked_at, '')
		FROM achievements a
		LEFT JOIN user_achievements ua ON ua.achievement_id = a.id AND ua.user_id = ?
		WHERE a.is_active = 1
		ORDER BY a.sort_order, a.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := &models.AchievementList{Achievements: []*models.Achievement{}}
	for rows.Next() {
		var (
			a           models.Achievement
			description sql.NullString
			unlocked    int
		)
		if err := rows.Scan(&a.ID, &a.Title, &description, &a.Icon, &a.Category, &a.Points, &a.Requirement,
			&a.Progress, &unlocked, &a.UnlockedAt); err != nil {
			return nil, err
		}
		a.Description = description.String
		a.Unlocked = unlocked == 1

		list.Achievements = append(list.Achievements, &a)
		list.Stats.Total++
		if a.Unlocked {
			list.Stats.Unlocked++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if list.Stats.Total > 0 {
		list.Stats.CompletionRate = math.Round(float64(list.Stats.Unlocked) / float64(list.Stats.Total) * 100)
	}
	return list, nil
}

// UpdateProgress stores progress clamped to [0,100]. Reaching 100 unlocks the
// achievement once; later updates never clear an unlock.
func (s *achievementService) UpdateProgress(ctx context.Context, userID string, req models.UpdateProgressRequest) (*models.UserAchievement, error) {
	req.AchievementID = strings.TrimSpace(req.AchievementID)
	if userID == "" {
		return nil, invalid("user is required")
	}
	if req.AchievementID == "" {
		return nil, invalid("achievement_id is required")
	}

	progress := req.Progress
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	var result *models.UserAchievement
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM achievements WHERE id = ? AND is_active = 1`,
			req.AchievementID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return ErrAchievementNotFound
		}

		ua := models.UserAchievement{UserID: userID, AchievementID: req.AchievementID}
		var unlocked int
		err = tx.QueryRowContext(ctx, `
			SELECT id, progress, unlocked, unlocked_at FROM user_achievements
			WHERE user_id = ? AND achievement_id = ?`, userID, req.AchievementID).
			Scan(&ua.ID, &ua.Progress, &unlocked, &ua.UnlockedAt)
		isNew := errors.Is(err, sql.ErrNoRows)
		if err != nil && !isNew {
			return err
		}
		ua.Unlocked = unlocked == 1

		now := nowDB()
		ua.Progress = progress
		ua.UpdatedAt = now
		if progress >= 100 && !ua.Unlocked {
			ua.Unlocked = true
			ua.UnlockedAt = now
		}

		if isNew {
			if ua.ID, err = utils.GenerateID("ua"); err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO user_achievements (id, user_id, achievement_id, progress, unlocked, unlocked_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?)`,
				ua.ID, ua.UserID, ua.AchievementID, ua.Progress, boolToInt(ua.Unlocked), ua.UnlockedAt, ua.UpdatedAt)
		} else {
			_, err = tx.ExecContext(ctx, `
				UPDATE user_achievements SET progress = ?, unlocked = ?, unlocked_at = ?, updated_at = ?
				WHERE id = ?`,
				ua.Progress, boolToInt(ua.Unlocked), ua.UnlockedAt, ua.UpdatedAt, ua.ID)
		}
		if err != nil {
			return err
		}

		result = &ua
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
