package github

import (
	"net/http"
	"time"

	"github.com/google/go-github/v75/github"
)

const requestTimeout = 30 * time.Second

// NewClient returns a GitHub client. An empty token yields an anonymous client,
// which is enough for reading public repositories and searching issues.
func NewClient(token string) *github.Client {
	client := github.NewClient(&http.Client{Timeout: requestTimeout})
	if token == "" {
		return client
	}
	return client.WithAuthToken(token)
}
