package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/google/uuid"

	"quitSmokingAPI/internal/clock"
	"quitSmokingAPI/internal/lifecycle"
	"quitSmokingAPI/internal/social"
	"quitSmokingAPI/internal/token"
	"quitSmokingAPI/internal/types/challenge"
	"quitSmokingAPI/internal/types/user"
)

type ChallengeService struct {
	store  ChallengeStore
	users  UserStore
	poster social.Poster
	clock  clock.Clock
	signer *token.Signer
	appURL string
	loc    *time.Location
}

func NewChallengeService(store ChallengeStore, users UserStore, poster social.Poster, clk clock.Clock, signer *token.Signer, appURL string, loc *time.Location) *ChallengeService {
	return &ChallengeService{
		store:  store,
		users:  users,
		poster: poster,
		clock:  clk,
		signer: signer,
		appURL: appURL,
		loc:    loc,
	}
}

// CreateChallenge starts a new 30-day challenge. A user can only have one
// active challenge; a second create fails with ErrActiveChallengeExists.
func (s *ChallengeService) CreateChallenge(ctx context.Context, userID, realName string) (*challenge.Challenge, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}

	existing, err := s.store.GetActiveChallengeForUser(ctx, uid)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("failed to check existing challenge: %w", err)
	}
	if existing != nil {
		return nil, ErrActiveChallengeExists
	}

	now := s.clock.Now()
	ch := &challenge.Challenge{
		ID:         uuid.New(),
		UserID:     uid,
		RealName:   realName,
		StartDate:  now,
		Status:     challenge.StatusActive,
		CurrentDay: 1,
		CreatedAt:  now,
	}

	if err := s.store.CreateChallenge(ctx, ch); err != nil {
		return nil, err
	}
	return ch, nil
}

func (s *ChallengeService) GetCurrentChallenge(ctx context.Context, userID string) (*challenge.Challenge, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user ID: %w", err)
	}
	return s.store.GetActiveChallengeForUser(ctx, uid)
}

func (s *ChallengeService) GetSuccessLogs(ctx context.Context, userID string) ([]*challenge.SuccessLog, error) {
	ch, err := s.GetCurrentChallenge(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListSuccessLogs(ctx, ch.ID)
}

// ReportSuccess records the user's success for one calendar date and advances
// the day counter. Reporting twice for the same date is a no-op at the storage
// level (upsert) and never an error.
//
// If the recomputed day reaches 30 the challenge completes here too, same as
// the nightly reconciliation: post the success message first, persist the
// transition only if the post went out. A failed post just leaves the
// challenge active for the next run to retry.
func (s *ChallengeService) ReportSuccess(ctx context.Context, userID, challengeID, date string) error {
	if _, err := time.Parse(lifecycle.DateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q: %w", date, err)
	}

	uid, err := uuid.Parse(userID)
	if err != nil {
		return fmt.Errorf("invalid user ID: %w", err)
	}
	cid, err := uuid.Parse(challengeID)
	if err != nil {
		return fmt.Errorf("invalid challenge ID: %w", err)
	}

	ch, err := s.store.GetChallenge(ctx, cid)
	if err != nil {
		return err
	}
	if ch.UserID != uid {
		return ErrNotFound
	}

	now := s.clock.Now()
	if err := s.store.PutSuccessLog(ctx, &challenge.SuccessLog{
		ChallengeID: cid,
		UserID:      uid,
		Date:        date,
		ReportedAt:  now,
	}); err != nil {
		return err
	}

	day := lifecycle.CurrentDay(ch.StartDate, now)
	update := ChallengeUpdate{CurrentDay: &day}

	if ch.Status == challenge.StatusActive && day >= lifecycle.ChallengeLength {
		if err := s.postCompletion(ctx, ch); err != nil {
			log.Printf("Report: completion post failed for challenge %s: %v", ch.ID, err)
		} else {
			completed := challenge.StatusCompleted
			update.Status = &completed
			update.CompletedAt = &now
		}
	}

	return s.store.UpdateChallenge(ctx, cid, update)
}

func (s *ChallengeService) postCompletion(ctx context.Context, ch *challenge.Challenge) error {
	u, err := s.users.GetUser(ctx, ch.UserID.String())
	if err != nil {
		return fmt.Errorf("failed to load user for completion post: %w", err)
	}
	creds := user.Credentials{AccessToken: u.AccessToken, AccessTokenSecret: u.AccessTokenSecret}
	return s.poster.PostAsUser(ctx, creds, completionMessage)
}

// GetReportLink returns today's tokenized report URL for the caller's active
// challenge. Dates use the same timezone the batch jobs run in.
func (s *ChallengeService) GetReportLink(ctx context.Context, userID string) (string, error) {
	ch, err := s.GetCurrentChallenge(ctx, userID)
	if err != nil {
		return "", err
	}

	now := s.clock.Now().In(s.loc)
	return buildReportURL(s.appURL, s.signer, ch.UserID.String(), ch.ID.String(), lifecycle.DateKey(now), now)
}

func buildReportURL(base string, signer *token.Signer, userID, challengeID, date string, now time.Time) (string, error) {
	signed, err := signer.SignReport(userID, challengeID, date, now)
	if err != nil {
		return "", err
	}

	q := url.Values{}
	q.Set("userId", userID)
	q.Set("challengeId", challengeID)
	q.Set("date", date)
	q.Set("token", signed)
	return base + "/report-success?" + q.Encode(), nil
}
