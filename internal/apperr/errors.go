// Package apperr holds the sentinel errors shared across packages.
package apperr

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
)

// Resolution and propagation errors. The first four are skip conditions,
// not failures; they are surfaced for logging and dry-run reporting.
var (
	ErrNoParentFolder       = errors.New("document has no parent folder")
	ErrCaseMismatch         = errors.New("folder note name differs from folder only by case")
	ErrNoMatchingParentNote = errors.New("no matching parent note")
	ErrOutOfScope           = errors.New("path is outside the allowed paths")
	ErrWriteFailure         = errors.New("metadata write failed")
	ErrMalformedFrontmatter = errors.New("malformed frontmatter")
)
