package persistence

import (
	"context"
	"crypto/sha1"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dfryer1193/gitpress/blog/domain"
	"github.com/dfryer1193/gitpress/shared/db"
)

var _ domain.ContentStore = (*SQLiteBlobStore)(nil)

// SQLiteBlobStore implements domain.ContentStore on a local SQLite database.
// Revision tokens are git blob SHAs, so a site can move between this store and
// a GitHub repository without changing how tokens behave.
type SQLiteBlobStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewBlobStore creates a new SQLiteBlobStore from a migrated sql.DB.
func NewBlobStore(sqlDB *sql.DB) *SQLiteBlobStore {
	return &SQLiteBlobStore{
		db:  sqlDB,
		now: func() time.Time { return time.Now().UTC() },
	}
}

const getBlobQuery = `
	SELECT path, content, sha, updated_at, created_at
	FROM blobs
	WHERE path = ?
`

// FetchBlob returns the blob stored at path.
func (s *SQLiteBlobStore) FetchBlob(ctx context.Context, path string) (*domain.Blob, error) {
	row, err := s.getRow(ctx, db.GetExecutor(ctx, s.db), path)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, notFound("GET", path)
	}
	return row.toDomain(), nil
}

const insertBlobQuery = `
	INSERT INTO blobs (path, content, sha, message, updated_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?)
`

const updateBlobQuery = `
	UPDATE blobs
	SET content = ?, sha = ?, message = ?, updated_at = ?
	WHERE path = ? AND sha = ?
`

// WriteBlob creates or conditionally updates the blob at path.
func (s *SQLiteBlobStore) WriteBlob(ctx context.Context, path string, content []byte, message string, revision string) (string, error) {
	if path == "" {
		return "", domain.ValidationError("blob path cannot be empty")
	}

	if content == nil {
		content = []byte{}
	}

	sha := BlobSHA(content)
	err := db.RunInTransaction(ctx, s.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, s.db)
		existing, err := s.getRow(txCtx, executor, path)
		if err != nil {
			return err
		}

		now := s.now()
		switch {
		case revision == "" && existing != nil:
			return conflict("PUT", path, http.StatusUnprocessableEntity, `"sha" wasn't supplied`)
		case revision != "" && existing == nil:
			return conflict("PUT", path, http.StatusConflict, fmt.Sprintf("no blob at %s to update from %s", path, revision))
		case revision != "" && existing.SHA != revision:
			return conflict("PUT", path, http.StatusConflict, fmt.Sprintf("%s does not match %s", path, revision))
		case existing == nil:
			if _, err := executor.ExecContext(txCtx, insertBlobQuery, path, content, sha, message, now, now); err != nil {
				return fmt.Errorf("failed to write blob %s: %w", path, err)
			}
		default:
			result, err := executor.ExecContext(txCtx, updateBlobQuery, content, sha, message, now, path, revision)
			if err != nil {
				return fmt.Errorf("failed to write blob %s: %w", path, err)
			}
			if err := requireOneRow(result, "PUT", path, revision); err != nil {
				return err
			}
		}

		return s.recordCommit(txCtx, executor, path, "write", message, sha, now)
	})
	if err != nil {
		return "", err
	}

	return sha, nil
}

const deleteBlobQuery = `
	DELETE FROM blobs WHERE path = ? AND sha = ?
`

// DeleteBlob removes the blob at path if it is still at revision.
func (s *SQLiteBlobStore) DeleteBlob(ctx context.Context, path string, message string, revision string) error {
	return db.RunInTransaction(ctx, s.db, func(txCtx context.Context) error {
		executor := db.GetExecutor(txCtx, s.db)
		existing, err := s.getRow(txCtx, executor, path)
		if err != nil {
			return err
		}
		if existing == nil {
			return notFound("DELETE", path)
		}
		if existing.SHA != revision {
			return conflict("DELETE", path, http.StatusConflict, fmt.Sprintf("%s does not match %s", path, revision))
		}

		result, err := executor.ExecContext(txCtx, deleteBlobQuery, path, revision)
		if err != nil {
			return fmt.Errorf("failed to delete blob %s: %w", path, err)
		}
		if err := requireOneRow(result, "DELETE", path, revision); err != nil {
			return err
		}

		return s.recordCommit(txCtx, executor, path, "delete", message, "", s.now())
	})
}

// requireOneRow turns a conditioned statement that matched no row into a
// Conflict: the blob moved off revision after it was read.
func requireOneRow(result sql.Result, op, path, revision string) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check %s of %s: %w", op, path, err)
	}
	if n != 1 {
		return conflict(op, path, http.StatusConflict, fmt.Sprintf("%s changed from %s during the write", path, revision))
	}
	return nil
}

// Commit is one entry in the local change log.
type Commit struct {
	Path        string
	Action      string
	Message     string
	SHA         string
	CommittedAt time.Time
}

const insertCommitQuery = `
	INSERT INTO commits (path, action, message, sha, committed_at)
	VALUES (?, ?, ?, ?, ?)
`

const listCommitsQuery = `
	SELECT path, action, message, sha, committed_at
	FROM commits
	WHERE path = ?
	ORDER BY id DESC
	LIMIT ?
`

// History returns the most recent changes to path, newest first.
func (s *SQLiteBlobStore) History(ctx context.Context, path string, limit int) ([]Commit, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, listCommitsQuery, path, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}
	defer rows.Close()

	commits := make([]Commit, 0)
	for rows.Next() {
		var c Commit
		if err := rows.Scan(&c.Path, &c.Action, &c.Message, &c.SHA, &c.CommittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan commit row: %w", err)
		}
		commits = append(commits, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commit rows: %w", err)
	}

	return commits, nil
}

func (s *SQLiteBlobStore) recordCommit(ctx context.Context, executor db.Executor, path, action, message, sha string, at time.Time) error {
	if _, err := executor.ExecContext(ctx, insertCommitQuery, path, action, message, sha, at); err != nil {
		return fmt.Errorf("failed to record commit for %s: %w", path, err)
	}
	return nil
}

func (s *SQLiteBlobStore) getRow(ctx context.Context, executor db.Executor, path string) (*blobRow, error) {
	var row blobRow
	err := executor.QueryRowContext(ctx, getBlobQuery, path).Scan(
		&row.Path,
		&row.Content,
		&row.SHA,
		&row.UpdatedAt,
		&row.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob %s: %w", path, err)
	}
	return &row, nil
}

// BlobSHA computes the git blob id of content.
func BlobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func notFound(op, path string) error {
	return &domain.StoreError{Op: op, Path: path, Status: http.StatusNotFound, Message: "Not Found", Kind: domain.ErrNotFound}
}

func conflict(op, path string, status int, message string) error {
	return &domain.StoreError{Op: op, Path: path, Status: status, Message: message, Kind: domain.ErrConflict}
}

// blobRow is used to scan blob rows.
type blobRow struct {
	Path      string       `db:"path"`
	Content   []byte       `db:"content"`
	SHA       string       `db:"sha"`
	UpdatedAt sql.NullTime `db:"updated_at"`
	CreatedAt sql.NullTime `db:"created_at"`
}

func (br *blobRow) toDomain() *domain.Blob {
	return &domain.Blob{
		Path:     br.Path,
		Content:  br.Content,
		Revision: br.SHA,
	}
}
