package knowledge

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPrecondition marks failures detected before any store mutation.
	ErrPrecondition = errors.New("knowledge: precondition failed")
	// ErrOrphanUnit is returned when a unit's owning regulation does not exist.
	ErrOrphanUnit = errors.New("knowledge: owning regulation not found")
	// ErrNotFound is returned by lookups that match no unit.
	ErrNotFound = errors.New("knowledge: not found")
	// ErrDimensionMismatch is returned when a vector has the wrong length.
	ErrDimensionMismatch = errors.New("knowledge: embedding dimension mismatch")
	// ErrEmptyText marks units without content.
	ErrEmptyText = errors.New("knowledge: empty text")
	// ErrUnknownFamily is returned for unknown regulation families.
	ErrUnknownFamily = errors.New("knowledge: unknown regulation family")
)

// MissingSourcesError lists every source document that could not be located.
type MissingSourcesError struct {
	Paths []string
}

func (e *MissingSourcesError) Error() string {
	return fmt.Sprintf("knowledge: %d source document(s) missing: %s", len(e.Paths), strings.Join(e.Paths, ", "))
}

func (e *MissingSourcesError) Is(target error) bool {
	return target == ErrPrecondition
}

// OrphanUnitError reports a unit persisted without its regulation relationship.
type OrphanUnitError struct {
	Label        string
	UnitID       string
	RegulationID string
}

func (e *OrphanUnitError) Error() string {
	return fmt.Sprintf("knowledge: %s %s has no regulation %q to attach to", e.Label, e.UnitID, e.RegulationID)
}

func (e *OrphanUnitError) Unwrap() error {
	return ErrOrphanUnit
}

// InvalidArticleError reports an article reference that cannot be parsed.
type InvalidArticleError struct {
	Raw string
	Err error
}

func (e *InvalidArticleError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("knowledge: invalid article reference %q: %v", e.Raw, e.Err)
	}
	return fmt.Sprintf("knowledge: invalid article reference %q", e.Raw)
}

func (e *InvalidArticleError) Unwrap() error {
	return e.Err
}
