package models

// Achievement catalog entry merged with the caller's progress
type Achievement struct {
	ID          string `json:"id" db:"id"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Icon        string `json:"icon" db:"icon"`
	Category    string `json:"category" db:"category"`
	Points      int    `json:"points" db:"points"`
	Requirement string `json:"requirement" db:"requirement"`
	Progress    int    `json:"progress"`
	Unlocked    bool   `json:"unlocked"`
	UnlockedAt  string `json:"unlocked_at,omitempty"`
}

// UserAchievement progress row
type UserAchievement struct {
	ID            string `json:"id" db:"id"`
	UserID        string `json:"user_id" db:"user_id"`
	AchievementID string `json:"achievement_id" db:"achievement_id"`
	Progress      int    `json:"progress" db:"progress"`
	Unlocked      bool   `json:"unlocked" db:"unlocked"`
	UnlockedAt    string `json:"unlocked_at,omitempty" db:"unlocked_at"`
	UpdatedAt     string `json:"updated_at" db:"updated_at"`
}

// UpdateProgressRequest progress update request
type UpdateProgressRequest struct {
	AchievementID string `json:"achievement_id"`
	Progress      int    `json:"progress"`
}

// AchievementStats per-user completion summary
type AchievementStats struct {
	Total          int     `json:"total"`
	Unlocked       int     `json:"unlocked"`
	CompletionRate float64 `json:"completion_rate"`
}

// AchievementList list response
type AchievementList struct {
	Achievements []*Achievement   `json:"achievements"`
	Stats        AchievementStats `json:"stats"`
}
