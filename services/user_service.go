package services

import (
	"context"
	"fmt"
	"strings"

	clerktypes "quitSmokingAPI/internal/types/clerk"
	"quitSmokingAPI/internal/types/user"
)

type UserService struct {
	store UserStore
}

func NewUserService(store UserStore) *UserService {
	return &UserService{store: store}
}

// SyncFromClerk upserts the local user row from a Clerk webhook payload and
// captures the linked Twitter tokens so the batch jobs can post as the user.
func (s *UserService) SyncFromClerk(ctx context.Context, data clerktypes.ClerkUserData) error {
	displayName := strings.TrimSpace(data.FirstName + " " + data.LastName)
	if displayName == "" {
		displayName = data.Username
	}

	u := &user.User{
		ClerkID:     data.ID,
		DisplayName: displayName,
		ImageURL:    data.ImageURL,
	}

	for _, acct := range data.ExternalAccounts {
		if acct.Provider != "oauth_twitter" && acct.Provider != "oauth_x" {
			continue
		}
		u.TwitterID = acct.ProviderUserID
		u.ScreenName = acct.Username
		u.AccessToken = acct.AccessToken
		u.AccessTokenSecret = acct.AccessTokenSecret
		break
	}

	if err := s.store.UpsertUser(ctx, u); err != nil {
		return fmt.Errorf("failed to sync user %s: %w", data.ID, err)
	}
	return nil
}

func (s *UserService) DeleteByClerkID(ctx context.Context, clerkID string) error {
	return s.store.DeleteUserByClerkID(ctx, clerkID)
}

func (s *UserService) GetByClerkID(ctx context.Context, clerkID string) (*user.User, error) {
	return s.store.GetUserByClerkID(ctx, clerkID)
}

func (s *UserService) RegisterDevice(ctx context.Context, clerkID, token, platform string) error {
	u, err := s.store.GetUserByClerkID(ctx, clerkID)
	if err != nil {
		return err
	}
	return s.store.RegisterDevice(ctx, u.ID, token, platform)
}
