package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy for store and workflow operations.
//
// Check with errors.Is:
//
//	if errors.Is(err, domain.ErrConflict) {
//	    // reload and retry the whole operation
//	}
var (
	// ErrValidation is returned for missing or malformed input. It never
	// reaches the network.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when a path or record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a revision token is stale, or when a
	// create targets a path that already exists.
	ErrConflict = errors.New("revision conflict")

	// ErrStore is returned for any other unsuccessful backend response.
	ErrStore = errors.New("store error")

	// ErrCorruptIndex is returned when a mutation would write back an index
	// whose stored copy could not be parsed.
	ErrCorruptIndex = errors.New("index is corrupt")

	// ErrInvariantViolation is returned when a mutation would break an index
	// invariant, such as losing more records than it removes.
	ErrInvariantViolation = errors.New("index invariant violation")
)

// ValidationError builds an ErrValidation with a field-specific message.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// StoreError carries the backend status and message of a failed store call.
// Kind is one of ErrNotFound, ErrConflict or ErrStore.
type StoreError struct {
	Op      string
	Path    string
	Status  int
	Message string
	Kind    error
}

func (e *StoreError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v: %s", e.Op, e.Path, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s %s failed with status %d: %s", e.Op, e.Path, e.Status, e.Message)
}

func (e *StoreError) Is(target error) bool {
	if target == ErrStore {
		return true
	}
	return e.Kind != nil && target == e.Kind
}

// PublicationStep names the stage of a publication at which it failed.
type PublicationStep string

const (
	StepValidate     PublicationStep = "validate"
	StepRender       PublicationStep = "render"
	StepFetchContent PublicationStep = "fetch-content"
	StepWriteContent PublicationStep = "write-content"
	StepUpdateIndex  PublicationStep = "update-index"
)

// PublicationError reports a failed publication and the step it failed at.
type PublicationError struct {
	Step PublicationStep
	Path string
	Err  error
}

func (e *PublicationError) Error() string {
	return fmt.Sprintf("publication of %s failed at %s: %v", e.Path, e.Step, e.Err)
}

func (e *PublicationError) Unwrap() error {
	return e.Err
}

// Orphaned reports whether the content file was written but the index was not
// updated to reference it. Retrying the publication repairs this.
func (e *PublicationError) Orphaned() bool {
	return e.Step == StepUpdateIndex
}
