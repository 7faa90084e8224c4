package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"quitSmokingAPI/internal/types/challenge"
	"quitSmokingAPI/internal/types/user"
)

var (
	ErrNotFound              = errors.New("not found")
	ErrActiveChallengeExists = errors.New("an active challenge already exists")
)

// ChallengeUpdate is a partial update; nil fields are left untouched.
type ChallengeUpdate struct {
	Status      *challenge.Status
	CurrentDay  *int
	CompletedAt *time.Time
	FailedAt    *time.Time
}

// ChallengeStore is the persistence boundary for challenges and success logs.
// The Postgres implementation lives in postgres_store.go; tests use fakes.
type ChallengeStore interface {
	GetActiveChallenges(ctx context.Context) ([]*challenge.Challenge, error)
	GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error)
	GetActiveChallengeForUser(ctx context.Context, userID uuid.UUID) (*challenge.Challenge, error)
	CreateChallenge(ctx context.Context, ch *challenge.Challenge) error
	UpdateChallenge(ctx context.Context, id uuid.UUID, update ChallengeUpdate) error
	GetSuccessLog(ctx context.Context, challengeID uuid.UUID, date string) (*challenge.SuccessLog, error)
	PutSuccessLog(ctx context.Context, log *challenge.SuccessLog) error
	ListSuccessLogs(ctx context.Context, challengeID uuid.UUID) ([]*challenge.SuccessLog, error)
}

type UserStore interface {
	GetUser(ctx context.Context, id string) (*user.User, error)
	GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error)
	UpsertUser(ctx context.Context, u *user.User) error
	DeleteUserByClerkID(ctx context.Context, clerkID string) error
	GetDeviceTokens(ctx context.Context, userID string) ([]user.DeviceToken, error)
	RegisterDevice(ctx context.Context, userID, token, platform string) error
}
