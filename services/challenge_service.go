package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dharmaverse/models"
	"dharmaverse/utils"
)

// AnonymousUser is recorded for submissions made without a token.
const AnonymousUser = "anonymous"

var ErrChallengeNotFound = errors.New("challenge not found")

// ChallengeService serves coding challenges and records submissions.
type ChallengeService interface {
	List(ctx context.Context) ([]*models.Challenge, error)
	Get(ctx context.Context, id string) (*models.Challenge, error)
	Solution(ctx context.Context, id string) (*models.ChallengeSolution, error)
	Submit(ctx context.Context, userID string, req models.SubmitChallengeRequest) (*models.Submission, error)
	Counts(ctx context.Context) (challenges int, submissions int, err error)
}

type challengeService struct {
	db SQLExecutor
}

// NewChallengeService creates a ChallengeService.
func NewChallengeService(db SQLExecutor) ChallengeService {
	return &challengeService{db: db}
}

const challengeColumns = `id, title, difficulty, description, moral_twist, example, solution, scripture, verse, lesson, created_at`

func (s *challengeService) List(ctx context.Context) ([]*models.Challenge, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE is_active = 1 ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	challenges := []*models.Challenge{}
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, err
		}
		c.Solution = ""
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

func (s *challengeService) Get(ctx context.Context, id string) (*models.Challenge, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Solution = ""
	return c, nil
}

func (s *challengeService) Solution(ctx context.Context, id string) (*models.ChallengeSolution, error) {
	c, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.ChallengeSolution{
		ChallengeID: c.ID,
		Solution:    c.Solution,
		Teaching:    c.Teaching,
	}, nil
}

// Submit stores an attempt. Any non-empty code passes; an empty userID is recorded as anonymous.
func (s *challengeService) Submit(ctx context.Context, userID string, req models.SubmitChallengeRequest) (*models.Submission, error) {
	req.ChallengeID = strings.TrimSpace(req.ChallengeID)
	if req.ChallengeID == "" {
		return nil, invalid("challenge_id is required")
	}
	if _, err := s.get(ctx, req.ChallengeID); err != nil {
		return nil, err
	}

	if userID == "" {
		userID = AnonymousUser
	}

	status := models.SubmissionStatusFailed
	if strings.TrimSpace(req.Code) != "" {
		status = models.SubmissionStatusPassed
	}

	id, err := utils.GenerateID("sub")
	if err != nil {
		return nil, err
	}

	sub := &models.Submission{
		ID:          id,
		ChallengeID: req.ChallengeID,
		UserID:      userID,
		Language:    strings.TrimSpace(req.Language),
		Code:        req.Code,
		Status:      status,
		CreatedAt:   nowDB(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO challenge_submissions (id, challenge_id, user_id, language, code, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.ChallengeID, sub.UserID, sub.Language, sub.Code, sub.Status, sub.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert submission: %w", err)
	}
	return sub, nil
}

func (s *challengeService) Counts(ctx context.Context) (int, int, error) {
	var challenges, submissions int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM challenges WHERE is_active = 1`).Scan(&challenges); err != nil {
		return 0, 0, err
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM challenge_submissions`).Scan(&submissions); err != nil {
		return 0, 0, err
	}
	return challenges, submissions, nil
}

func (s *challengeService) get(ctx context.Context, id string) (*models.Challenge, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = ? AND is_active = 1`, id)
	c, err := scanChallenge(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChallengeNotFound
	}
	return c, err
}

func scanChallenge(row rowScanner) (*models.Challenge, error) {
	var (
		c                                          models.Challenge
		description, moralTwist, example, solution sql.NullString
		verse, lesson                              sql.NullString
		scripture                                  string
	)
	err := row.Scan(&c.ID, &c.Title, &c.Difficulty, &description, &moralTwist, &example, &solution,
		&scripture, &verse, &lesson, &c.CreatedAt)
	if err != nil {
		return nil, err
	}

	c.Description = description.String
	c.MoralTwist = moralTwist.String
	c.Example = example.String
	c.Solution = solution.String
	if scripture != "" {
		c.Teaching = &models.Teaching{Scripture: scripture, Verse: verse.String, Lesson: lesson.String}
	}
	return &c, nil
}
