package application

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dfryer1193/gitpress/blog/domain"
	"github.com/rs/zerolog/log"
)

// Mutation transforms the in-memory index during a read-modify-write cycle.
// MaxRemoved is the number of identifiers the mutation is allowed to drop; a
// result that loses more is refused.
type Mutation struct {
	Name       string
	MaxRemoved int
	Apply      func(records []domain.PostRecord) ([]domain.PostRecord, error)
}

// UpsertRecord replaces the record with the same ID in place, or appends rec.
// Older duplicates of the ID are dropped.
func UpsertRecord(rec domain.PostRecord) Mutation {
	return Mutation{
		Name: "upsert " + rec.ID,
		Apply: func(records []domain.PostRecord) ([]domain.PostRecord, error) {
			next := records[:0]
			replaced := false
			for _, r := range records {
				if r.ID != rec.ID {
					next = append(next, r)
					continue
				}
				if !replaced {
					next = append(next, rec)
					replaced = true
				}
			}
			if !replaced {
				next = append(next, rec)
			}
			return next, nil
		},
	}
}

// RemoveRecord drops every record with the given ID. It fails with ErrNotFound
// when the index holds no such record.
func RemoveRecord(id string) Mutation {
	return Mutation{
		Name:       "remove " + id,
		MaxRemoved: 1,
		Apply: func(records []domain.PostRecord) ([]domain.PostRecord, error) {
			next := records[:0]
			for _, r := range records {
				if r.ID != id {
					next = append(next, r)
				}
			}
			if len(next) == len(records) {
				return nil, fmt.Errorf("%w: no post %s in index", domain.ErrNotFound, id)
			}
			return next, nil
		},
	}
}

// IndexSynchronizer is the only component that writes the post index.
// Every mutation re-reads the index so the write is conditioned on a fresh
// revision token; there is no cached copy between calls and no retry.
type IndexSynchronizer struct {
	store domain.ContentStore
	path  string

	// allowCorruptOverwrite lets a mutation replace an index that failed to parse.
	allowCorruptOverwrite bool
}

type IndexOption func(*IndexSynchronizer)

// WithCorruptOverwrite permits writing over an index whose stored copy is unparseable.
// The previous contents are lost from the working tree (not from history).
func WithCorruptOverwrite(allow bool) IndexOption {
	return func(s *IndexSynchronizer) {
		s.allowCorruptOverwrite = allow
	}
}

func NewIndexSynchronizer(store domain.ContentStore, path string, opts ...IndexOption) *IndexSynchronizer {
	s := &IndexSynchronizer{
		store: store,
		path:  path,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the storage path of the index file.
func (s *IndexSynchronizer) Path() string {
	return s.path
}

// ReadIndex fetches and parses the index.
// A missing file is an empty index without a revision. A file that does not
// parse is reported as an empty, corrupt index rather than an error, so reads
// keep working; mutations refuse to write it back.
func (s *IndexSynchronizer) ReadIndex(ctx context.Context) (*domain.Index, error) {
	blob, err := s.store.FetchBlob(ctx, s.path)
	if errors.Is(err, domain.ErrNotFound) {
		log.Info().Str("path", s.path).Msg("Index does not exist yet, starting empty")
		return &domain.Index{Records: []domain.PostRecord{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}

	records, err := decodeIndex(blob.Content)
	if err != nil {
		log.Warn().Err(err).Str("path", s.path).Str("revision", blob.Revision).Msg("Index is corrupt, treating it as empty")
		return &domain.Index{Records: []domain.PostRecord{}, Revision: blob.Revision, Corrupt: true}, nil
	}

	return &domain.Index{Records: records, Revision: blob.Revision}, nil
}

// ApplyMutation runs one read-modify-write cycle: read the index, apply m,
// sort newest first, and write back conditioned on the revision just read.
// A concurrent write in between makes the store reject the token and the
// ErrConflict is returned unchanged; the caller restarts the whole cycle.
func (s *IndexSynchronizer) ApplyMutation(ctx context.Context, m Mutation, message string) (*domain.Index, error) {
	current, err := s.ReadIndex(ctx)
	if err != nil {
		return nil, err
	}

	if current.Corrupt && !s.allowCorruptOverwrite {
		return nil, fmt.Errorf("%w: refusing to %s over unparseable %s at revision %s", domain.ErrCorruptIndex, m.Name, s.path, current.Revision)
	}

	working := make([]domain.PostRecord, len(current.Records))
	copy(working, current.Records)

	next, err := m.Apply(working)
	if err != nil {
		return nil, err
	}

	if err := checkInvariants(current.Records, next, m); err != nil {
		return nil, err
	}

	domain.SortRecords(next)

	data, err := encodeIndex(next)
	if err != nil {
		return nil, fmt.Errorf("failed to encode index: %w", err)
	}

	revision, err := s.store.WriteBlob(ctx, s.path, data, message, current.Revision)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			log.Warn().Str("path", s.path).Str("revision", current.Revision).Str("mutation", m.Name).Msg("Index changed since it was read")
		}
		return nil, fmt.Errorf("failed to write index: %w", err)
	}

	log.Info().Str("path", s.path).Str("mutation", m.Name).Int("records", len(next)).Str("revision", revision).Msg("Index updated")

	return &domain.Index{Records: next, Revision: revision}, nil
}

// checkInvariants refuses a result that loses more identifiers than the
// mutation may remove, or that duplicates an identifier which was unique
// before. Duplicates already in the stored index are tolerated so a later
// mutation can repair them.
func checkInvariants(before []domain.PostRecord, next []domain.PostRecord, m Mutation) error {
	counts := make(map[string]int, len(before))
	for _, r := range before {
		counts[r.ID]++
	}

	seen := make(map[string]int, len(next))
	for _, r := range next {
		if r.ID == "" {
			return fmt.Errorf("%w: %s produced a record without an identifier", domain.ErrInvariantViolation, m.Name)
		}
		seen[r.ID]++
		if seen[r.ID] > 1 && seen[r.ID] > counts[r.ID] {
			return fmt.Errorf("%w: %s produced duplicate identifier %s", domain.ErrInvariantViolation, m.Name, r.ID)
		}
	}

	dropped := 0
	for id := range counts {
		if _, ok := seen[id]; !ok {
			dropped++
		}
	}
	if dropped > m.MaxRemoved {
		return fmt.Errorf("%w: %s would drop %d identifiers, at most %d allowed", domain.ErrInvariantViolation, m.Name, dropped, m.MaxRemoved)
	}
	return nil
}

func decodeIndex(data []byte) ([]domain.PostRecord, error) {
	var records []domain.PostRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, err
	}
	if records == nil {
		records = []domain.PostRecord{}
	}
	return records, nil
}

// encodeIndex writes a pretty-printed JSON array without HTML escaping, since
// rendered bodies are stored verbatim.
func encodeIndex(records []domain.PostRecord) ([]byte, error) {
	for i := range records {
		if records[i].Tags == nil {
			records[i].Tags = []string{}
		}
	}
	if records == nil {
		records = []domain.PostRecord{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
