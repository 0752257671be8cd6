// Package resolver computes the parent note of a document from its folder
// placement.
//
// A document's parent is the folder note of its containing folder: the
// document in that folder whose base name equals the folder name. A folder
// note's own parent is the folder note of the grandparent folder.
package resolver

import (
	"strings"

	"github.com/starford/foldernote/internal/apperr"
	"github.com/starford/foldernote/internal/models"
)

// SkipReason explains why no parent could be resolved.
type SkipReason string

// Skip reasons.
const (
	NoParentFolder       SkipReason = "no_parent_folder"
	CaseMismatch         SkipReason = "case_mismatch"
	NoMatchingParentNote SkipReason = "no_matching_parent_note"
	OutOfScope           SkipReason = "out_of_scope"
)

// Err maps the reason to its sentinel error.
func (r SkipReason) Err() error {
	switch r {
	case NoParentFolder:
		return apperr.ErrNoParentFolder
	case CaseMismatch:
		return apperr.ErrCaseMismatch
	case NoMatchingParentNote:
		return apperr.ErrNoMatchingParentNote
	case OutOfScope:
		return apperr.ErrOutOfScope
	}
	return nil
}

// Result is the outcome of a resolution. Exactly one of Target and Reason is set.
type Result struct {
	Target *models.Document
	Reason SkipReason
}

// Resolve returns the parent note for doc among all. Candidates are compared
// in enumeration order and the first match wins, so duplicate folder notes
// resolve to whichever was listed first.
func Resolve(doc *models.Document, all []*models.Document) Result {
	folder := doc.Folder
	if folder == nil {
		return Result{Reason: NoParentFolder}
	}

	isFolderNote := doc.BaseName == folder.Name
	if !isFolderNote && strings.ToLower(doc.BaseName) == strings.ToLower(folder.Name) {
		return Result{Reason: CaseMismatch}
	}

	target := folder
	if isFolderNote {
		target = folder.Parent
		if target == nil {
			return Result{Reason: NoParentFolder}
		}
	}

	if match := FolderNote(target, all, doc); match != nil {
		return Result{Target: match}
	}
	return Result{Reason: NoMatchingParentNote}
}

// FolderNote returns the first document in all that is the folder note of
// folder, ignoring exclude. It returns nil when there is none.
func FolderNote(folder *models.Folder, all []*models.Document, exclude *models.Document) *models.Document {
	for _, f := range all {
		if f != exclude && f.Folder == folder && f.BaseName == folder.Name {
			return f
		}
	}
	return nil
}

// Link renders the wikilink stored in the parent field.
func Link(target *models.Document) string {
	return "[[" + target.BaseName + "]]"
}
