package clerk

import "encoding/json"

type ClerkWebhookEvent struct {
	Data   json.RawMessage `json:"data"`
	Object string          `json:"object"`
	Type   string          `json:"type"`
}

type ClerkUserData struct {
	ID               string            `json:"id"`
	Username         string            `json:"username"`
	FirstName        string            `json:"first_name"`
	LastName         string            `json:"last_name"`
	ImageURL         string            `json:"image_url"`
	Deleted          bool              `json:"deleted"`
	ExternalAccounts []ExternalAccount `json:"external_accounts"`
}

// ExternalAccount carries the linked social identity. For Twitter sign-in
// Clerk forwards the user-context OAuth tokens here.
type ExternalAccount struct {
	Provider          string `json:"provider"`
	ProviderUserID    string `json:"provider_user_id"`
	Username          string `json:"username"`
	AccessToken       string `json:"access_token"`
	AccessTokenSecret string `json:"access_token_secret"`
}
