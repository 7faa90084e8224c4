package social

import (
	"context"

	"quitSmokingAPI/internal/types/user"
)

// Poster publishes a message on the user's own social account. The core jobs
// only depend on this interface; credential storage and refresh live outside.
type Poster interface {
	PostAsUser(ctx context.Context, creds user.Credentials, text string) error
}
