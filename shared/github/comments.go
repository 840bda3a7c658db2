package github

import (
	"context"
	"fmt"

	"github.com/dfryer1193/gitpress/blog/domain"
	"github.com/google/go-github/v75/github"
)

var _ domain.CommentCounter = (*CommentCounter)(nil)

// CommentCounter counts comments on the issue that backs a post's comment thread.
type CommentCounter struct {
	client   *github.Client
	fullName string
	label    string
}

// NewCommentCounter creates a CommentCounter for threads labelled label in owner/repo.
func NewCommentCounter(client *github.Client, owner string, gitRepo string, label string) *CommentCounter {
	return &CommentCounter{
		client:   client,
		fullName: fmt.Sprintf("%s/%s", owner, gitRepo),
		label:    label,
	}
}

// CountComments returns the comment total of the first issue whose body mentions term.
// No matching issue means no comments.
func (c *CommentCounter) CountComments(ctx context.Context, term string) (int, error) {
	result, _, err := c.client.Search.Issues(ctx, c.query(term), &github.SearchOptions{
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return 0, handleGithubError("SEARCH", term, err)
	}
	if result.GetTotal() == 0 || len(result.Issues) == 0 {
		return 0, nil
	}
	return result.Issues[0].GetComments(), nil
}

func (c *CommentCounter) query(term string) string {
	return fmt.Sprintf(`repo:%s label:%s in:body "%s"`, c.fullName, c.label, term)
}
