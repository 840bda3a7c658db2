package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dfryer1193/gitpress/blog/domain"
	"github.com/google/go-github/v75/github"
)

var _ domain.ContentStore = (*ContentStore)(nil)

// ContentStore is an implementation of domain.ContentStore backed by the GitHub
// Contents API. Revision tokens are git blob SHAs.
type ContentStore struct {
	client  *github.Client
	owner   string
	gitRepo string
	branch  string
}

// NewContentStore creates a new ContentStore. An empty branch commits to the
// repository's default branch.
func NewContentStore(client *github.Client, owner string, gitRepo string, branch string) *ContentStore {
	return &ContentStore{
		client:  client,
		owner:   owner,
		gitRepo: gitRepo,
		branch:  branch,
	}
}

// GetRepoFullName returns the repository's full name (e.g., "owner/repo").
func (g *ContentStore) GetRepoFullName() string {
	return fmt.Sprintf("%s/%s", g.owner, g.gitRepo)
}

// FetchBlob fetches a file and the SHA it is currently stored at.
func (g *ContentStore) FetchBlob(ctx context.Context, path string) (*domain.Blob, error) {
	op := "GET"
	var opts *github.RepositoryContentGetOptions
	if g.branch != "" {
		opts = &github.RepositoryContentGetOptions{Ref: g.branch}
	}

	fileContent, _, _, err := g.client.Repositories.GetContents(ctx, g.owner, g.gitRepo, apiPath(path), opts)
	if err != nil {
		return nil, handleGithubError(op, path, err)
	}
	if fileContent == nil {
		return nil, &domain.StoreError{Op: op, Path: path, Message: "path is a directory", Kind: domain.ErrNotFound}
	}

	var content []byte
	// Files over 1MB come back without inline content.
	if fileContent.GetEncoding() == "none" {
		content, _, err = g.client.Git.GetBlobRaw(ctx, g.owner, g.gitRepo, fileContent.GetSHA())
		if err != nil {
			return nil, handleGithubError(op, path, err)
		}
	} else {
		decoded, err := fileContent.GetContent()
		if err != nil {
			return nil, fmt.Errorf("github: %s %s failed to decode content: %w", op, path, err)
		}
		content = []byte(decoded)
	}

	return &domain.Blob{
		Path:     path,
		Content:  content,
		Revision: fileContent.GetSHA(),
	}, nil
}

// WriteBlob creates the file when revision is empty, otherwise updates it
// conditioned on revision. It returns the new blob SHA.
func (g *ContentStore) WriteBlob(ctx context.Context, path string, content []byte, message string, revision string) (string, error) {
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		Content: content,
	}
	if g.branch != "" {
		opts.Branch = github.Ptr(g.branch)
	}

	var (
		resp *github.RepositoryContentResponse
		err  error
		op   = "PUT"
	)
	if revision == "" {
		resp, _, err = g.client.Repositories.CreateFile(ctx, g.owner, g.gitRepo, apiPath(path), opts)
	} else {
		opts.SHA = github.Ptr(revision)
		resp, _, err = g.client.Repositories.UpdateFile(ctx, g.owner, g.gitRepo, apiPath(path), opts)
	}
	if err != nil {
		return "", handleGithubError(op, path, err)
	}
	if resp == nil || resp.Content == nil {
		return "", &domain.StoreError{Op: op, Path: path, Message: "response carried no content", Kind: domain.ErrStore}
	}

	return resp.Content.GetSHA(), nil
}

// DeleteBlob deletes the file conditioned on revision.
func (g *ContentStore) DeleteBlob(ctx context.Context, path string, message string, revision string) error {
	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		SHA:     github.Ptr(revision),
	}
	if g.branch != "" {
		opts.Branch = github.Ptr(g.branch)
	}

	_, _, err := g.client.Repositories.DeleteFile(ctx, g.owner, g.gitRepo, apiPath(path), opts)
	if err != nil {
		return handleGithubError("DELETE", path, err)
	}
	return nil
}

// apiPath strips the leading slash; site paths are rooted, API paths are relative.
func apiPath(path string) string {
	return strings.TrimPrefix(path, "/")
}

// handleGithubError inspects an error from the go-github client and maps it onto
// the store error taxonomy.
func handleGithubError(op string, path string, err error) error {
	if err == nil {
		return nil
	}

	var errResp *github.ErrorResponse
	if errors.As(err, &errResp) {
		status := 0
		if errResp.Response != nil {
			status = errResp.Response.StatusCode
		}
		return &domain.StoreError{
			Op:      op,
			Path:    path,
			Status:  status,
			Message: errResp.Message,
			Kind:    classifyStatus(status, errResp.Message),
		}
	}

	// Transport failures, rate limits and the like.
	return &domain.StoreError{Op: op, Path: path, Message: err.Error(), Kind: domain.ErrStore}
}

func classifyStatus(status int, message string) error {
	switch {
	case status == http.StatusNotFound:
		return domain.ErrNotFound
	case status == http.StatusConflict:
		return domain.ErrConflict
	// GitHub answers 422 when a create targets an existing file ("sha" wasn't supplied)
	// or when the supplied sha does not match.
	case status == http.StatusUnprocessableEntity && strings.Contains(strings.ToLower(message), "sha"):
		return domain.ErrConflict
	default:
		return domain.ErrStore
	}
}
