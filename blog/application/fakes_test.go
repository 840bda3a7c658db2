package application

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dfryer1193/gitpress/blog/domain"
)

// memStore is an in-memory ContentStore with the same token rules as the real backends.
type memStore struct {
	mu      sync.Mutex
	blobs   map[string]domain.Blob
	counter int

	// beforeWrite runs before a write to path is checked, simulating another writer.
	beforeWrite func(s *memStore, path string)
	writeErr    map[string]error
	fetchErr    map[string]error
	deleteErr   map[string]error

	calls []string
}

func newMemStore() *memStore {
	return &memStore{
		blobs:     make(map[string]domain.Blob),
		writeErr:  make(map[string]error),
		fetchErr:  make(map[string]error),
		deleteErr: make(map[string]error),
	}
}

func (s *memStore) FetchBlob(ctx context.Context, path string) (*domain.Blob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "GET "+path)

	if err := s.fetchErr[path]; err != nil {
		return nil, err
	}
	b, ok := s.blobs[path]
	if !ok {
		return nil, &domain.StoreError{Op: "GET", Path: path, Status: http.StatusNotFound, Message: "Not Found", Kind: domain.ErrNotFound}
	}
	content := make([]byte, len(b.Content))
	copy(content, b.Content)
	return &domain.Blob{Path: path, Content: content, Revision: b.Revision}, nil
}

func (s *memStore) WriteBlob(ctx context.Context, path string, content []byte, message string, revision string) (string, error) {
	if s.beforeWrite != nil {
		hook := s.beforeWrite
		s.beforeWrite = nil
		hook(s, path)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "PUT "+path)

	if err := s.writeErr[path]; err != nil {
		return "", err
	}
	existing, ok := s.blobs[path]
	switch {
	case revision == "" && ok:
		return "", &domain.StoreError{Op: "PUT", Path: path, Status: http.StatusUnprocessableEntity, Message: `"sha" wasn't supplied`, Kind: domain.ErrConflict}
	case revision != "" && (!ok || existing.Revision != revision):
		return "", &domain.StoreError{Op: "PUT", Path: path, Status: http.StatusConflict, Message: "sha mismatch", Kind: domain.ErrConflict}
	}
	return s.putLocked(path, content), nil
}

func (s *memStore) DeleteBlob(ctx context.Context, path string, message string, revision string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, "DELETE "+path)

	if err := s.deleteErr[path]; err != nil {
		return err
	}
	existing, ok := s.blobs[path]
	if !ok {
		return &domain.StoreError{Op: "DELETE", Path: path, Status: http.StatusNotFound, Message: "Not Found", Kind: domain.ErrNotFound}
	}
	if existing.Revision != revision {
		return &domain.StoreError{Op: "DELETE", Path: path, Status: http.StatusConflict, Message: "sha mismatch", Kind: domain.ErrConflict}
	}
	delete(s.blobs, path)
	return nil
}

// put stores content unconditionally, as an out-of-band writer would.
func (s *memStore) put(path string, content []byte) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putLocked(path, content)
}

func (s *memStore) putLocked(path string, content []byte) string {
	s.counter++
	rev := fmt.Sprintf("rev-%d", s.counter)
	stored := make([]byte, len(content))
	copy(stored, content)
	s.blobs[path] = domain.Blob{Path: path, Content: stored, Revision: rev}
	return rev
}

func (s *memStore) has(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.blobs[path]
	return ok
}

func (s *memStore) content(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return string(s.blobs[path].Content)
}

func (s *memStore) called(call string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.calls {
		if c == call {
			return true
		}
	}
	return false
}

func newTestService(store *memStore) *PostService {
	index := NewIndexSynchronizer(store, DefaultPaths.Index)
	pages := NewPageRenderer(SiteConfig{Name: "test.blog", Lang: "sv", Repo: "owner/site", CommentLabel: "comments", CommentTheme: "github-light"})
	svc := NewPostService(store, index, NewMarkdownRenderer(DefaultPaths.Images), pages, DefaultPaths)
	svc.now = func() time.Time { return time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC) }
	return svc
}
