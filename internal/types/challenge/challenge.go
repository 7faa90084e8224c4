package challenge

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

type Challenge struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	RealName    string     `json:"real_name" db:"real_name"`
	StartDate   time.Time  `json:"start_date" db:"start_date"`
	Status      Status     `json:"status" db:"status"`
	CurrentDay  int        `json:"current_day" db:"current_day"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	FailedAt    *time.Time `json:"failed_at,omitempty" db:"failed_at"`
}

// SuccessLog records that the user reported success for one calendar date.
// (challenge_id, date) is the storage key, so at most one log can exist per
// challenge per date.
type SuccessLog struct {
	ChallengeID uuid.UUID `json:"challenge_id" db:"challenge_id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Date        string    `json:"date" db:"date"` // YYYY-MM-DD
	ReportedAt  time.Time `json:"reported_at" db:"reported_at"`
}

type CreateChallengeRequest struct {
	RealName string `json:"real_name"`
}

type ReportRequest struct {
	Token string `json:"token"`
}

// BatchResult is the aggregate outcome of one reconciliation run.
type BatchResult struct {
	ProcessedChallenges int       `json:"processedChallenges"`
	FailedChallenges    int       `json:"failedChallenges"`
	CompletedChallenges int       `json:"completedChallenges"`
	Errors              int       `json:"errors"`
	ExecutedAt          time.Time `json:"executedAt"`
}

// ReminderResult is the aggregate outcome of one reminder run.
type ReminderResult struct {
	ProcessedChallenges int       `json:"processedChallenges"`
	RemindersSent       int       `json:"remindersSent"`
	Skipped             int       `json:"skipped"`
	Errors              int       `json:"errors"`
	ExecutedAt          time.Time `json:"executedAt"`
}
