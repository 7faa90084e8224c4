package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/google/uuid"

	"quitSmokingAPI/internal/lifecycle"
	"quitSmokingAPI/internal/token"
	"quitSmokingAPI/internal/types/challenge"
)

func newChallengeService(store *fakeStore, poster *fakePoster, clk *fakeClock) *ChallengeService {
	return NewChallengeService(store, store, poster, clk, token.NewSigner("test-secret"), "http://localhost:3000", time.UTC)
}

func TestCreateChallenge(t *testing.T) {
	store := newFakeStore()
	clk := &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newChallengeService(store, &fakePoster{}, clk)

	u := store.addUser(uuid.New())

	ch, err := svc.CreateChallenge(context.Background(), u.ID, "Taro Yamada")
	require.NoError(t, err)

	assert.Equal(t, challenge.StatusActive, ch.Status)
	assert.Equal(t, 1, ch.CurrentDay)
	assert.Equal(t, "Taro Yamada", ch.RealName)
	assert.Equal(t, clk.t, ch.StartDate)
	assert.Nil(t, ch.CompletedAt)
	assert.Nil(t, ch.FailedAt)
}

func TestCreateChallengeConflictsWithActiveOne(t *testing.T) {
	store := newFakeStore()
	clk := &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newChallengeService(store, &fakePoster{}, clk)

	u := store.addUser(uuid.New())

	_, err := svc.CreateChallenge(context.Background(), u.ID, "Taro Yamada")
	require.NoError(t, err)

	_, err = svc.CreateChallenge(context.Background(), u.ID, "Taro Yamada")
	assert.ErrorIs(t, err, ErrActiveChallengeExists)
	assert.Len(t, store.challenges, 1)
}

func TestCreateChallengeAllowedAfterTerminalState(t *testing.T) {
	store := newFakeStore()
	clk := &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	svc := newChallengeService(store, &fakePoster{}, clk)

	u := store.addUser(uuid.New())

	first, err := svc.CreateChallenge(context.Background(), u.ID, "Taro Yamada")
	require.NoError(t, err)

	failed := challenge.StatusFailed
	require.NoError(t, store.UpdateChallenge(context.Background(), first.ID, ChallengeUpdate{Status: &failed}))

	_, err = svc.CreateChallenge(context.Background(), u.ID, "Taro Yamada")
	assert.NoError(t, err)
	assert.Len(t, store.challenges, 2)
}

func TestReportSuccessIsIdempotentPerDate(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	clk := &fakeClock{t: start.Add(20 * time.Hour)}
	svc := newChallengeService(store, &fakePoster{}, clk)

	ch := store.addChallenge(start, "Taro Yamada")
	date := lifecycle.DateKey(start)

	require.NoError(t, svc.ReportSuccess(context.Background(), ch.UserID.String(), ch.ID.String(), date))
	require.NoError(t, svc.ReportSuccess(context.Background(), ch.UserID.String(), ch.ID.String(), date))

	logs, err := store.ListSuccessLogs(context.Background(), ch.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
	assert.Equal(t, date, logs[0].Date)
}

func TestReportSuccessUpdatesCurrentDay(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	clk := &fakeClock{t: start.AddDate(0, 0, 11)} // day 12
	svc := newChallengeService(store, &fakePoster{}, clk)

	ch := store.addChallenge(start, "Taro Yamada")
	date := lifecycle.DateKey(clk.t)

	require.NoError(t, svc.ReportSuccess(context.Background(), ch.UserID.String(), ch.ID.String(), date))

	assert.Equal(t, 12, ch.CurrentDay)
	assert.Equal(t, challenge.StatusActive, ch.Status)
}

func TestReportSuccessCompletesAtDayThirty(t *testing.T) {
	store := newFakeStore()
	poster := &fakePoster{}
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	clk := &fakeClock{t: start.AddDate(0, 0, 29)} // day 30
	svc := newChallengeService(store, poster, clk)

	ch := store.addChallenge(start, "Taro Yamada")
	date := lifecycle.DateKey(clk.t)

	require.NoError(t, svc.ReportSuccess(context.Background(), ch.UserID.String(), ch.ID.String(), date))

	assert.Equal(t, challenge.StatusCompleted, ch.Status)
	require.NotNil(t, ch.CompletedAt)

	posts := poster.sent()
	require.Len(t, posts, 1)
	assert.Contains(t, posts[0], "#QuitSmokingChallengeSuccess")
}

func TestReportSuccessCompletionPostFailureKeepsChallengeActive(t *testing.T) {
	store := newFakeStore()
	poster := &fakePoster{err: errPosterDown}
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	clk := &fakeClock{t: start.AddDate(0, 0, 29)}
	svc := newChallengeService(store, poster, clk)

	ch := store.addChallenge(start, "Taro Yamada")
	date := lifecycle.DateKey(clk.t)

	// The report itself still succeeds; the transition waits for a run whose
	// post goes through.
	require.NoError(t, svc.ReportSuccess(context.Background(), ch.UserID.String(), ch.ID.String(), date))

	assert.Equal(t, challenge.StatusActive, ch.Status)
	assert.Equal(t, 30, ch.CurrentDay)
	assert.Nil(t, ch.CompletedAt)

	logs, err := store.ListSuccessLogs(context.Background(), ch.ID)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}

func TestReportSuccessRejectsForeignChallenge(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	clk := &fakeClock{t: start.Add(time.Hour)}
	svc := newChallengeService(store, &fakePoster{}, clk)

	ch := store.addChallenge(start, "Taro Yamada")
	other := store.addUser(uuid.New())

	err := svc.ReportSuccess(context.Background(), other.ID, ch.ID.String(), lifecycle.DateKey(start))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReportSuccessRejectsBadDate(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	svc := newChallengeService(store, &fakePoster{}, &fakeClock{t: start})

	ch := store.addChallenge(start, "Taro Yamada")

	err := svc.ReportSuccess(context.Background(), ch.UserID.String(), ch.ID.String(), "03/01/2024")
	assert.Error(t, err)
}

func TestGetReportLinkEmbedsVerifiableToken(t *testing.T) {
	store := newFakeStore()
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	clk := &fakeClock{t: start.Add(6 * time.Hour)}
	svc := newChallengeService(store, &fakePoster{}, clk)

	ch := store.addChallenge(start, "Taro Yamada")

	link, err := svc.GetReportLink(context.Background(), ch.UserID.String())
	require.NoError(t, err)
	assert.Contains(t, link, "http://localhost:3000/report-success?")
	assert.Contains(t, link, "token=")
}
