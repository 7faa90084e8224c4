package user

import "time"

type User struct {
	ID                string    `json:"id"`
	ClerkID           string    `json:"clerkId"`
	TwitterID         string    `json:"twitterId"`
	ScreenName        string    `json:"screenName"`
	DisplayName       string    `json:"displayName"`
	ImageURL          string    `json:"imageUrl,omitempty"`
	AccessToken       string    `json:"-"`
	AccessTokenSecret string    `json:"-"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Credentials is the subset the social poster needs to tweet as the user.
type Credentials struct {
	AccessToken       string
	AccessTokenSecret string
}

type DeviceToken struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}
