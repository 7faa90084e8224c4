package social

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"quitSmokingAPI/internal/types/user"
)

func TestPostAsUserSendsBearerTokenAndText(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	p := NewTwitterPosterWithEndpoint(srv.URL)
	creds := user.Credentials{AccessToken: "user-token"}

	err := p.PostAsUser(context.Background(), creds, "hello world")
	assert.NoError(t, err)
	assert.Equal(t, "Bearer user-token", gotAuth)
	assert.Equal(t, "hello world", gotBody["text"])
}

func TestPostAsUserSurfacesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"title":"Unauthorized"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewTwitterPosterWithEndpoint(srv.URL)
	err := p.PostAsUser(context.Background(), user.Credentials{AccessToken: "bad"}, "hello")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestPostAsUserRequiresToken(t *testing.T) {
	p := NewTwitterPoster()
	err := p.PostAsUser(context.Background(), user.Credentials{}, "hello")
	assert.Error(t, err)
}
