package social

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/oauth2"

	"quitSmokingAPI/internal/types/user"
)

const tweetEndpoint = "https://api.twitter.com/2/tweets"

// TwitterPoster posts tweets through the v2 API using the user's own
// OAuth2 access token.
type TwitterPoster struct {
	endpoint string
	timeout  time.Duration
}

func NewTwitterPoster() *TwitterPoster {
	return &TwitterPoster{
		endpoint: tweetEndpoint,
		timeout:  10 * time.Second,
	}
}

// NewTwitterPosterWithEndpoint exists for tests against a local server.
func NewTwitterPosterWithEndpoint(endpoint string) *TwitterPoster {
	return &TwitterPoster{endpoint: endpoint, timeout: 10 * time.Second}
}

func (p *TwitterPoster) PostAsUser(ctx context.Context, creds user.Credentials, text string) error {
	if creds.AccessToken == "" {
		return fmt.Errorf("user has no twitter access token")
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: creds.AccessToken})
	client := oauth2.NewClient(ctx, ts)

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to encode tweet body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build tweet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("tweet request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("twitter api returned %d: %s", resp.StatusCode, detail)
	}

	return nil
}
