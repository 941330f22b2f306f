package models

// Challenge coding challenge with a moral teaching
type Challenge struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Difficulty  string    `json:"difficulty" db:"difficulty"` // Easy, Medium, Hard
	Description string    `json:"description" db:"description"`
	MoralTwist  string    `json:"moral_twist" db:"moral_twist"`
	Example     string    `json:"example" db:"example"`
	Solution    string    `json:"solution,omitempty" db:"solution"`
	Teaching    *Teaching `json:"teaching,omitempty"`
	CreatedAt   string    `json:"created_at" db:"created_at"`
}

// Teaching scripture reference attached to a challenge
type Teaching struct {
	Scripture string `json:"scripture" db:"scripture"`
	Verse     string `json:"verse" db:"verse"`
	Lesson    string `json:"lesson" db:"lesson"`
}

// ChallengeSolution solution payload
type ChallengeSolution struct {
	ChallengeID string    `json:"challenge_id"`
	Solution    string    `json:"solution"`
	Teaching    *Teaching `json:"teaching,omitempty"`
}

// Submission status values
const (
	SubmissionStatusPassed = "passed"
	SubmissionStatusFailed = "failed"
)

// Submission stored challenge attempt
type Submission struct {
	ID          string `json:"id" db:"id"`
	ChallengeID string `json:"challenge_id" db:"challenge_id"`
	UserID      string `json:"user_id" db:"user_id"`
	Language    string `json:"language" db:"language"`
	Code        string `json:"-" db:"code"`
	Status      string `json:"status" db:"status"`
	CreatedAt   string `json:"created_at" db:"created_at"`
}

// SubmitChallengeRequest submit request
type SubmitChallengeRequest struct {
	ChallengeID string `json:"challenge_id"`
	Code        string `json:"code"`
	Language    string `json:"language"`
}
