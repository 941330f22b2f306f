package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"dharmaverse/logger"
)

type seedChallenge struct {
	id, title, difficulty, description, moralTwist, example, solution string
	scripture, verse, lesson                                          string
}

type seedAchievement struct {
	id, title, description, icon, category, requirement string
	points                                              int
}

var sampleChallenges = []seedChallenge{
	{
		id:          "chl-compassionate-sorting",
		title:       "Compassionate Sorting",
		difficulty:  "Medium",
		description: "Write a sorting routine that places kind acts ahead of selfish ones.",
		moralTwist:  "Kind acts always come first, whatever their numeric value.",
		example:     `[{"act": "helping elderly", "value": 3}, {"act": "stealing", "value": 10}, {"act": "charity", "value": 5}]`,
		solution: `func CompassionateSort(acts []Act) {
	kind := []string{"helping", "charity", "sharing", "caring", "giving"}
	selfish := []string{"stealing", "lying", "cheating", "hurting"}
	rank := func(a Act) int {
		for _, k := range kind {
			if strings.Contains(a.Name, k) {
				return 0
			}
		}
		for _, s := range selfish {
			if strings.Contains(a.Name, s) {
				return 2
			}
		}
		return 1
	}
	sort.SliceStable(acts, func(i, j int) bool {
		if ri, rj := rank(acts[i]), rank(acts[j]); ri != rj {
			return ri < rj
		}
		return acts[i].Value > acts[j].Value
	})
}`,
		scripture: "Bhagavad Gita 3.21",
		verse:     "Whatever action a great person performs, common people follow. Whatever standards they set, the world pursues.",
		lesson:    "Code reflects the values of the people who write it. Put moral outcomes ahead of personal gain.",
	},
	{
		id:          "chl-truth-validator",
		title:       "Truth Validator",
		difficulty:  "Easy",
		description: "Write a validator that reports data integrity with complete honesty.",
		moralTwist:  "Never return a false positive, even when that means admitting uncertainty.",
		example:     `{"name": "Arjuna", "email": null}`,
		solution: `func TruthValidator(data map[string]any) Validation {
	v := Validation{IsValid: true}
	if data == nil {
		v.IsValid = false
		v.Errors = append(v.Errors, "invalid data structure")
		return v
	}
	for key, value := range data {
		if value == nil {
			v.Uncertainties = append(v.Uncertainties, "cannot verify "+key)
		}
	}
	if len(v.Uncertainties) > 0 {
		v.IsValid = false
	}
	return v
}`,
		scripture: "Quran 17:81",
		verse:     "And say: Truth has come and falsehood has vanished. Indeed, falsehood is bound to vanish.",
		lesson:    "Honest code builds trust. Uncertainty is better than false certainty.",
	},
}

var achievementCatalog = []seedAchievement{
	{"ach-first-steps", "First Steps", "Complete your first spiritual question", "🌱", "beginner", "Ask 1 question", 50},
	{"ach-seeker-of-truth", "Seeker of Truth", "Ask 10 spiritual questions", "🔍", "questions", "Ask 10 questions", 100},
	{"ach-wisdom-collector", "Wisdom Collector", "Watch 25 teachings", "💎", "learning", "Watch 25 videos", 200},
	{"ach-daily-devotee", "Daily Devotee", "Return for 7 consecutive days", "🔥", "streak", "7-day streak", 150},
	{"ach-path-explorer", "Path Explorer", "Explore every spiritual tradition", "🌍", "exploration", "Watch videos in 8 categories", 300},
	{"ach-meditation-master", "Meditation Master", "Complete 50 meditation sessions", "🧘", "meditation", "Complete 50 meditations", 400},
	{"ach-community-helper", "Community Helper", "Help 25 fellow seekers", "🤝", "community", "Help 25 users", 250},
	{"ach-enlightened-one", "Enlightened One", "Solve every coding challenge", "✨", "challenges", "Pass all challenges", 500},
}

// Seed inserts the sample challenges and the achievement catalog into empty tables.
func Seed(ctx context.Context, db *sql.DB) error {
	if err := seedChallenges(ctx, db); err != nil {
		return fmt.Errorf("failed to seed challenges: %w", err)
	}
	if err := seedAchievements(ctx, db); err != nil {
		return fmt.Errorf("failed to seed achievements: %w", err)
	}
	return nil
}

func seedChallenges(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM challenges").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("Challenges already exist, skipping seed")
		return nil
	}

	now := time.Now().UTC().Format("2006-01-02 15:04:05")
	query := `INSERT INTO challenges (id, title, difficulty, description, moral_twist, example, solution,
		scripture, verse, lesson, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`

	for _, c := range sampleChallenges {
		if _, err := db.ExecContext(ctx, query, c.id, c.title, c.difficulty, c.description, c.moralTwist,
			c.example, c.solution, c.scripture, c.verse, c.lesson, now); err != nil {
			return err
		}
	}

	logger.Info("Sample challenges created: %d", len(sampleChallenges))
	return nil
}

func seedAchievements(ctx context.Context, db *sql.DB) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM achievements").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		logger.Debug("Achievement catalog already exists, skipping seed")
		return nil
	}

	query := `INSERT INTO achievements (id, title, description, icon, category, points, requirement, is_active, sort_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?)`

	for i, a := range achievementCatalog {
		if _, err := db.ExecContext(ctx, query, a.id, a.title, a.description, a.icon, a.category,
			a.points, a.requirement, i); err != nil {
			return err
		}
	}

	logger.Info("Achievement catalog created: %d entries", len(achievementCatalog))
	return nil
}
