package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"quitSmokingAPI/internal/types/challenge"
	"quitSmokingAPI/internal/types/user"
)

type fakeClock struct {
	t time.Time
}

func (f *fakeClock) Now() time.Time { return f.t }

type fakePoster struct {
	mu    sync.Mutex
	posts []string
	err   error
}

func (p *fakePoster) PostAsUser(_ context.Context, _ user.Credentials, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.posts = append(p.posts, text)
	return nil
}

func (p *fakePoster) sent() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.posts...)
}

type pushCall struct {
	tokens []user.DeviceToken
	title  string
	body   string
	data   map[string]string
}

type fakePush struct {
	mu    sync.Mutex
	calls []pushCall
}

func (p *fakePush) SendPush(_ context.Context, tokens []user.DeviceToken, title, body string, data map[string]string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, pushCall{tokens: tokens, title: title, body: body, data: data})
	return nil
}

// fakeStore is an in-memory ChallengeStore + UserStore.
type fakeStore struct {
	mu           sync.Mutex
	challenges   map[uuid.UUID]*challenge.Challenge
	logs         map[string]*challenge.SuccessLog
	users        map[string]*user.User
	deviceTokens map[string][]user.DeviceToken

	updateErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		challenges:   make(map[uuid.UUID]*challenge.Challenge),
		logs:         make(map[string]*challenge.SuccessLog),
		users:        make(map[string]*user.User),
		deviceTokens: make(map[string][]user.DeviceToken),
	}
}

func logKey(challengeID uuid.UUID, date string) string {
	return challengeID.String() + "_" + date
}

func (s *fakeStore) addUser(id uuid.UUID) *user.User {
	u := &user.User{
		ID:                id.String(),
		ClerkID:           "clerk_" + id.String(),
		ScreenName:        "tester",
		AccessToken:       "token-" + id.String(),
		AccessTokenSecret: "secret",
	}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) addChallenge(start time.Time, realName string) *challenge.Challenge {
	uid := uuid.New()
	s.addUser(uid)
	ch := &challenge.Challenge{
		ID:         uuid.New(),
		UserID:     uid,
		RealName:   realName,
		StartDate:  start,
		Status:     challenge.StatusActive,
		CurrentDay: 1,
		CreatedAt:  start,
	}
	s.challenges[ch.ID] = ch
	return ch
}

func (s *fakeStore) GetActiveChallenges(_ context.Context) ([]*challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*challenge.Challenge
	for _, ch := range s.challenges {
		if ch.Status == challenge.StatusActive {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (s *fakeStore) GetChallenge(_ context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch, ok := s.challenges[id]
	if !ok {
		return nil, ErrNotFound
	}
	return ch, nil
}

func (s *fakeStore) GetActiveChallengeForUser(_ context.Context, userID uuid.UUID) (*challenge.Challenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.challenges {
		if ch.UserID == userID && ch.Status == challenge.StatusActive {
			return ch, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) CreateChallenge(_ context.Context, ch *challenge.Challenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.challenges[ch.ID] = ch
	return nil
}

func (s *fakeStore) UpdateChallenge(_ context.Context, id uuid.UUID, update ChallengeUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	ch, ok := s.challenges[id]
	if !ok {
		return ErrNotFound
	}
	if update.Status != nil {
		ch.Status = *update.Status
	}
	if update.CurrentDay != nil {
		ch.CurrentDay = *update.CurrentDay
	}
	if update.CompletedAt != nil {
		ch.CompletedAt = update.CompletedAt
	}
	if update.FailedAt != nil {
		ch.FailedAt = update.FailedAt
	}
	return nil
}

func (s *fakeStore) GetSuccessLog(_ context.Context, challengeID uuid.UUID, date string) (*challenge.SuccessLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.logs[logKey(challengeID, date)]
	if !ok {
		return nil, ErrNotFound
	}
	return l, nil
}

func (s *fakeStore) PutSuccessLog(_ context.Context, l *challenge.SuccessLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs[logKey(l.ChallengeID, l.Date)] = l
	return nil
}

func (s *fakeStore) ListSuccessLogs(_ context.Context, challengeID uuid.UUID) ([]*challenge.SuccessLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*challenge.SuccessLog
	for _, l := range s.logs {
		if l.ChallengeID == challengeID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

func (s *fakeStore) GetUser(_ context.Context, id string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return u, nil
}

func (s *fakeStore) GetUserByClerkID(_ context.Context, clerkID string) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ClerkID == clerkID {
			return u, nil
		}
	}
	return nil, ErrNotFound
}

func (s *fakeStore) UpsertUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	for _, existing := range s.users {
		if existing.ClerkID == u.ClerkID {
			u.ID = existing.ID
			break
		}
	}
	s.users[u.ID] = u
	return nil
}

func (s *fakeStore) DeleteUserByClerkID(_ context.Context, clerkID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, u := range s.users {
		if u.ClerkID == clerkID {
			delete(s.users, id)
			return nil
		}
	}
	return nil
}

func (s *fakeStore) GetDeviceTokens(_ context.Context, userID string) ([]user.DeviceToken, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deviceTokens[userID], nil
}

func (s *fakeStore) RegisterDevice(_ context.Context, userID, token, platform string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deviceTokens[userID] = append(s.deviceTokens[userID], user.DeviceToken{Token: token, Platform: platform})
	return nil
}

var errPosterDown = errors.New("poster down")
