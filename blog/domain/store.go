package domain

import "context"

// Blob is the content of a stored file together with its revision token.
type Blob struct {
	Path     string
	Content  []byte
	Revision string
}

// ContentStore defines path-addressed blob storage with optimistic concurrency.
// This allows the application to be decoupled from a specific backend.
//
// WriteBlob with an empty revision creates the blob and fails with ErrConflict if
// one already exists. A non-empty revision makes the write conditional on the
// stored blob still being at that revision.
type ContentStore interface {
	FetchBlob(ctx context.Context, path string) (*Blob, error)
	WriteBlob(ctx context.Context, path string, content []byte, message string, revision string) (string, error)
	DeleteBlob(ctx context.Context, path string, message string, revision string) error
}

// CommentCounter reports how many comments the discussion thread for a post has.
type CommentCounter interface {
	CountComments(ctx context.Context, term string) (int, error)
}
