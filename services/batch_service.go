package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"quitSmokingAPI/internal/clock"
	"quitSmokingAPI/internal/lifecycle"
	"quitSmokingAPI/internal/notification"
	"quitSmokingAPI/internal/social"
	"quitSmokingAPI/internal/token"
	"quitSmokingAPI/internal/types/challenge"
	"quitSmokingAPI/internal/types/user"
)

// Message templates posted on the user's account. The failure one embeds the
// real name the user pledged with.
const (
	failureMessageFormat = `I, "%s", am an embarrassing person who failed the 30-day quit smoking challenge. #QuitSmokingChallengeFailed`

	completionMessage = "Congratulations! I have completely conquered the 30-day quit smoking challenge!\n\n" +
		"I was able to be reborn as a new person!\n\n" +
		"#QuitSmokingChallengeSuccess #HealthyLife #30DaysComplete"

	reminderMessageFormat = "Quit Smoking Challenge Day %d!\n\n" +
		"Did you continue to quit smoking today?\n" +
		"Report your success here:\n\n%s\n\n" +
		"#QuitSmokingChallenge #HealthyLife"
)

var batchChallengesTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "batch_challenges_total",
		Help: "Challenges handled by the daily batch jobs, by job and outcome",
	},
	[]string{"job", "outcome"},
)

// RegisterBatchMetrics registers the job counters. Call once from main.
func RegisterBatchMetrics() {
	prometheus.MustRegister(batchChallengesTotal)
}

// BatchService runs the two daily jobs: the failure/completion reconciliation
// and the reminder fan-out. One implementation serves both the scheduler and
// the manual dev trigger.
type BatchService struct {
	store  ChallengeStore
	users  UserStore
	poster social.Poster
	push   notification.PushProvider // optional, may be nil
	clock  clock.Clock
	signer *token.Signer
	appURL string
	loc    *time.Location
}

func NewBatchService(store ChallengeStore, users UserStore, poster social.Poster, push notification.PushProvider, clk clock.Clock, signer *token.Signer, appURL string, loc *time.Location) *BatchService {
	return &BatchService{
		store:  store,
		users:  users,
		poster: poster,
		push:   push,
		clock:  clk,
		signer: signer,
		appURL: appURL,
		loc:    loc,
	}
}

// RunReconciliation scans every active challenge once: no success log for
// yesterday means the challenge failed, otherwise day 30 means it completed.
// Per-challenge errors are counted and logged but never abort the scan.
// Re-running within the same day is harmless because terminal challenges
// evaluate to NoOp.
func (s *BatchService) RunReconciliation(ctx context.Context) (*challenge.BatchResult, error) {
	ref := s.clock.Now().In(s.loc)
	yesterday := lifecycle.DateKey(ref.AddDate(0, 0, -1))

	challenges, err := s.store.GetActiveChallenges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active challenges: %w", err)
	}

	result := &challenge.BatchResult{ExecutedAt: ref}

	for _, ch := range challenges {
		result.ProcessedChallenges++

		hasPriorDayLog := true
		if _, err := s.store.GetSuccessLog(ctx, ch.ID, yesterday); err != nil {
			if !errors.Is(err, ErrNotFound) {
				log.Printf("Reconciliation: failed to read success log for challenge %s: %v", ch.ID, err)
				result.Errors++
				batchChallengesTotal.WithLabelValues("reconciliation", "error").Inc()
				continue
			}
			hasPriorDayLog = false
		}

		switch lifecycle.Evaluate(ch, ref, hasPriorDayLog) {
		case lifecycle.MarkFailed:
			if err := s.markFailed(ctx, ch, ref); err != nil {
				log.Printf("Reconciliation: failed to fail challenge %s: %v", ch.ID, err)
				result.Errors++
				batchChallengesTotal.WithLabelValues("reconciliation", "error").Inc()
				continue
			}
			result.FailedChallenges++
			batchChallengesTotal.WithLabelValues("reconciliation", "failed").Inc()

		case lifecycle.MarkCompleted:
			if err := s.markCompleted(ctx, ch, ref); err != nil {
				log.Printf("Reconciliation: failed to complete challenge %s: %v", ch.ID, err)
				result.Errors++
				batchChallengesTotal.WithLabelValues("reconciliation", "error").Inc()
				continue
			}
			result.CompletedChallenges++
			batchChallengesTotal.WithLabelValues("reconciliation", "completed").Inc()

		case lifecycle.NoOp:
			batchChallengesTotal.WithLabelValues("reconciliation", "noop").Inc()
		}
	}

	log.Printf("Reconciliation: processed=%d failed=%d completed=%d errors=%d",
		result.ProcessedChallenges, result.FailedChallenges, result.CompletedChallenges, result.Errors)
	return result, nil
}

// Transitions post first and persist second. If the post fails the challenge
// stays active and the next run retries the whole transition, so a transition
// is never recorded without its announcement.
func (s *BatchService) markFailed(ctx context.Context, ch *challenge.Challenge, now time.Time) error {
	creds, err := s.credentials(ctx, ch)
	if err != nil {
		return err
	}

	text := fmt.Sprintf(failureMessageFormat, ch.RealName)
	if err := s.poster.PostAsUser(ctx, creds, text); err != nil {
		return fmt.Errorf("failure post rejected: %w", err)
	}

	failed := challenge.StatusFailed
	return s.store.UpdateChallenge(ctx, ch.ID, ChallengeUpdate{
		Status:   &failed,
		FailedAt: &now,
	})
}

func (s *BatchService) markCompleted(ctx context.Context, ch *challenge.Challenge, now time.Time) error {
	creds, err := s.credentials(ctx, ch)
	if err != nil {
		return err
	}

	if err := s.poster.PostAsUser(ctx, creds, completionMessage); err != nil {
		return fmt.Errorf("completion post rejected: %w", err)
	}

	completed := challenge.StatusCompleted
	return s.store.UpdateChallenge(ctx, ch.ID, ChallengeUpdate{
		Status:      &completed,
		CompletedAt: &now,
	})
}

// RunReminders sends every active challenge its daily report link and
// refreshes the stored day counter. Challenges past day 30 are skipped;
// the reconciliation job owns their terminal transition.
func (s *BatchService) RunReminders(ctx context.Context) (*challenge.ReminderResult, error) {
	ref := s.clock.Now().In(s.loc)
	today := lifecycle.DateKey(ref)

	challenges, err := s.store.GetActiveChallenges(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active challenges: %w", err)
	}

	result := &challenge.ReminderResult{ExecutedAt: ref}

	for _, ch := range challenges {
		result.ProcessedChallenges++

		day := lifecycle.CurrentDay(ch.StartDate, ref)
		if day > lifecycle.ChallengeLength {
			result.Skipped++
			batchChallengesTotal.WithLabelValues("reminder", "skipped").Inc()
			continue
		}

		if err := s.sendReminder(ctx, ch, day, today); err != nil {
			log.Printf("Reminder: failed for challenge %s: %v", ch.ID, err)
			result.Errors++
			batchChallengesTotal.WithLabelValues("reminder", "error").Inc()
			continue
		}

		if err := s.store.UpdateChallenge(ctx, ch.ID, ChallengeUpdate{CurrentDay: &day}); err != nil {
			log.Printf("Reminder: failed to persist day for challenge %s: %v", ch.ID, err)
			result.Errors++
			batchChallengesTotal.WithLabelValues("reminder", "error").Inc()
			continue
		}

		result.RemindersSent++
		batchChallengesTotal.WithLabelValues("reminder", "sent").Inc()
	}

	log.Printf("Reminder: processed=%d sent=%d skipped=%d errors=%d",
		result.ProcessedChallenges, result.RemindersSent, result.Skipped, result.Errors)
	return result, nil
}

func (s *BatchService) sendReminder(ctx context.Context, ch *challenge.Challenge, day int, today string) error {
	creds, err := s.credentials(ctx, ch)
	if err != nil {
		return err
	}

	reportURL, err := buildReportURL(s.appURL, s.signer, ch.UserID.String(), ch.ID.String(), today, s.clock.Now())
	if err != nil {
		return fmt.Errorf("failed to build report URL: %w", err)
	}

	text := fmt.Sprintf(reminderMessageFormat, day, reportURL)
	if err := s.poster.PostAsUser(ctx, creds, text); err != nil {
		return fmt.Errorf("reminder post rejected: %w", err)
	}

	// Push is best-effort; a push failure never fails the reminder.
	if s.push != nil {
		tokens, err := s.users.GetDeviceTokens(ctx, ch.UserID.String())
		if err != nil {
			log.Printf("Reminder: failed to load device tokens for user %s: %v", ch.UserID, err)
		} else if err := s.push.SendPush(ctx, tokens,
			fmt.Sprintf("Day %d of your quit smoking challenge", day),
			"Did you stay smoke-free today? Report your success.",
			map[string]string{"reportUrl": reportURL},
		); err != nil {
			log.Printf("Reminder: push failed for user %s: %v", ch.UserID, err)
		}
	}

	return nil
}

func (s *BatchService) credentials(ctx context.Context, ch *challenge.Challenge) (user.Credentials, error) {
	u, err := s.users.GetUser(ctx, ch.UserID.String())
	if err != nil {
		return user.Credentials{}, fmt.Errorf("failed to load user %s: %w", ch.UserID, err)
	}
	return user.Credentials{AccessToken: u.AccessToken, AccessTokenSecret: u.AccessTokenSecret}, nil
}
