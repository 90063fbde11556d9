package registry

import (
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/sojunghan/territory-cli/internal/model"
)

// ErrNotFound is returned when a removal names no registered claim.
var ErrNotFound = eris.New("registry: claim not found")

// ErrOwnerRequired is returned for claims and renames without an owner.
var ErrOwnerRequired = model.ErrOwnerRequired

// ErrKeyDelimiter is returned for owner, branch or place labels that could
// not be stored as a compound key and read back unchanged.
var ErrKeyDelimiter = model.ErrKeyDelimiter

// ErrDuplicateID is returned by Load when two stored claims share a handle.
var ErrDuplicateID = eris.New("registry: duplicate claim id in store")

// ConflictError reports that a candidate overlaps another owner's claim.
// It is an expected outcome, not a failure of the registry.
type ConflictError struct {
	BlockingOwner string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("territory already claimed by %s", e.BlockingOwner)
}
