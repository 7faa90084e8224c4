package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"quitSmokingAPI/internal/types/challenge"
	"quitSmokingAPI/internal/types/user"
)

// PostgresStore implements ChallengeStore and UserStore on pgx.
type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

const challengeColumns = `id, user_id, real_name, start_date, status, current_day, created_at, completed_at, failed_at`

func scanChallenge(row pgx.Row) (*challenge.Challenge, error) {
	var ch challenge.Challenge
	err := row.Scan(
		&ch.ID,
		&ch.UserID,
		&ch.RealName,
		&ch.StartDate,
		&ch.Status,
		&ch.CurrentDay,
		&ch.CreatedAt,
		&ch.CompletedAt,
		&ch.FailedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (s *PostgresStore) GetActiveChallenges(ctx context.Context) ([]*challenge.Challenge, error) {
	query := `
		SELECT ` + challengeColumns + `
		FROM challenges
		WHERE status = $1
	`

	rows, err := s.db.Query(ctx, query, challenge.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to query active challenges: %w", err)
	}
	defer rows.Close()

	var challenges []*challenge.Challenge
	for rows.Next() {
		ch, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, ch)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return challenges, nil
}

func (s *PostgresStore) GetChallenge(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	query := `
		SELECT ` + challengeColumns + `
		FROM challenges
		WHERE id = $1
	`

	ch, err := scanChallenge(s.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return ch, nil
}

func (s *PostgresStore) GetActiveChallengeForUser(ctx context.Context, userID uuid.UUID) (*challenge.Challenge, error) {
	query := `
		SELECT ` + challengeColumns + `
		FROM challenges
		WHERE user_id = $1 AND status = $2
		ORDER BY created_at DESC
		LIMIT 1
	`

	ch, err := scanChallenge(s.db.QueryRow(ctx, query, userID, challenge.StatusActive))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get active challenge for user: %w", err)
	}
	return ch, nil
}

func (s *PostgresStore) CreateChallenge(ctx context.Context, ch *challenge.Challenge) error {
	query := `
		INSERT INTO challenges (
			id, user_id, real_name, start_date, status, current_day, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := s.db.Exec(ctx, query,
		ch.ID,
		ch.UserID,
		ch.RealName,
		ch.StartDate,
		ch.Status,
		ch.CurrentDay,
		ch.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create challenge: %w", err)
	}
	return nil
}

func (s *PostgresStore) UpdateChallenge(ctx context.Context, id uuid.UUID, update ChallengeUpdate) error {
	sets := []string{}
	args := []any{}
	arg := 1

	if update.Status != nil {
		sets = append(sets, fmt.Sprintf("status = $%d", arg))
		args = append(args, *update.Status)
		arg++
	}
	if update.CurrentDay != nil {
		sets = append(sets, fmt.Sprintf("current_day = $%d", arg))
		args = append(args, *update.CurrentDay)
		arg++
	}
	if update.CompletedAt != nil {
		sets = append(sets, fmt.Sprintf("completed_at = $%d", arg))
		args = append(args, *update.CompletedAt)
		arg++
	}
	if update.FailedAt != nil {
		sets = append(sets, fmt.Sprintf("failed_at = $%d", arg))
		args = append(args, *update.FailedAt)
		arg++
	}

	if len(sets) == 0 {
		return nil
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE challenges SET %s WHERE id = $%d", strings.Join(sets, ", "), arg)

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update challenge: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetSuccessLog(ctx context.Context, challengeID uuid.UUID, date string) (*challenge.SuccessLog, error) {
	query := `
		SELECT challenge_id, user_id, date, reported_at
		FROM success_logs
		WHERE challenge_id = $1 AND date = $2
	`

	var l challenge.SuccessLog
	err := s.db.QueryRow(ctx, query, challengeID, date).Scan(
		&l.ChallengeID,
		&l.UserID,
		&l.Date,
		&l.ReportedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get success log: %w", err)
	}
	return &l, nil
}

// PutSuccessLog upserts on the (challenge_id, date) primary key. Reporting
// twice for the same date just refreshes reported_at.
func (s *PostgresStore) PutSuccessLog(ctx context.Context, log *challenge.SuccessLog) error {
	query := `
		INSERT INTO success_logs (challenge_id, user_id, date, reported_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (challenge_id, date)
		DO UPDATE SET reported_at = EXCLUDED.reported_at
	`

	_, err := s.db.Exec(ctx, query, log.ChallengeID, log.UserID, log.Date, log.ReportedAt)
	if err != nil {
		return fmt.Errorf("failed to put success log: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSuccessLogs(ctx context.Context, challengeID uuid.UUID) ([]*challenge.SuccessLog, error) {
	query := `
		SELECT challenge_id, user_id, date, reported_at
		FROM success_logs
		WHERE challenge_id = $1
		ORDER BY date ASC
	`

	rows, err := s.db.Query(ctx, query, challengeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list success logs: %w", err)
	}
	defer rows.Close()

	var logs []*challenge.SuccessLog
	for rows.Next() {
		var l challenge.SuccessLog
		if err := rows.Scan(&l.ChallengeID, &l.UserID, &l.Date, &l.ReportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan success log: %w", err)
		}
		logs = append(logs, &l)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return logs, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id string) (*user.User, error) {
	query := `
		SELECT id, clerk_id, twitter_id, screen_name, display_name, image_url,
		       access_token, access_token_secret, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	return s.scanUser(s.db.QueryRow(ctx, query, id))
}

func (s *PostgresStore) GetUserByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	query := `
		SELECT id, clerk_id, twitter_id, screen_name, display_name, image_url,
		       access_token, access_token_secret, created_at, updated_at
		FROM users
		WHERE clerk_id = $1
	`
	return s.scanUser(s.db.QueryRow(ctx, query, clerkID))
}

func (s *PostgresStore) scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID,
		&u.ClerkID,
		&u.TwitterID,
		&u.ScreenName,
		&u.DisplayName,
		&u.ImageURL,
		&u.AccessToken,
		&u.AccessTokenSecret,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) UpsertUser(ctx context.Context, u *user.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}

	query := `
		INSERT INTO users (
			id, clerk_id, twitter_id, screen_name, display_name, image_url,
			access_token, access_token_secret, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		ON CONFLICT (clerk_id)
		DO UPDATE SET
			twitter_id = EXCLUDED.twitter_id,
			screen_name = EXCLUDED.screen_name,
			display_name = EXCLUDED.display_name,
			image_url = EXCLUDED.image_url,
			access_token = EXCLUDED.access_token,
			access_token_secret = EXCLUDED.access_token_secret,
			updated_at = NOW()
	`

	_, err := s.db.Exec(ctx, query,
		u.ID,
		u.ClerkID,
		u.TwitterID,
		u.ScreenName,
		u.DisplayName,
		u.ImageURL,
		u.AccessToken,
		u.AccessTokenSecret,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) DeleteUserByClerkID(ctx context.Context, clerkID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDeviceTokens(ctx context.Context, userID string) ([]user.DeviceToken, error) {
	query := `
		SELECT token, platform
		FROM device_tokens
		WHERE user_id = $1
	`

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query device tokens: %w", err)
	}
	defer rows.Close()

	var tokens []user.DeviceToken
	for rows.Next() {
		var t user.DeviceToken
		if err := rows.Scan(&t.Token, &t.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan device token: %w", err)
		}
		tokens = append(tokens, t)
	}

	return tokens, rows.Err()
}

func (s *PostgresStore) RegisterDevice(ctx context.Context, userID, token, platform string) error {
	query := `
		INSERT INTO device_tokens (user_id, token, platform, registered_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, token)
		DO UPDATE SET platform = EXCLUDED.platform, registered_at = NOW()
	`

	_, err := s.db.Exec(ctx, query, userID, token, platform)
	if err != nil {
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}
