// Package vault adapts a storage.Provider into the tree snapshots and
// frontmatter read/write primitives the propagator consumes.
package vault

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/starford/foldernote/internal/apperr"
	"github.com/starford/foldernote/internal/checksum"
	"github.com/starford/foldernote/internal/frontmatter"
	"github.com/starford/foldernote/internal/models"
	"github.com/starford/foldernote/internal/propagate"
	"github.com/starford/foldernote/internal/storage"
	"github.com/starford/foldernote/internal/tree"
)

// Vault is the on-disk host of the propagator.
type Vault struct {
	store   storage.Provider
	exclude []string
}

// Verify *Vault satisfies propagate.MetadataStore at compile time.
var _ propagate.MetadataStore = (*Vault)(nil)

// New creates a Vault. exclude holds doublestar patterns matched against
// vault-relative paths; matching documents and folders never appear in
// snapshots.
func New(store storage.Provider, exclude []string) (*Vault, error) {
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("vault: invalid exclude pattern %q", p)
		}
	}
	return &Vault{store: store, exclude: exclude}, nil
}

// Excluded reports whether path matches any exclude pattern.
func (v *Vault) Excluded(path string) bool {
	for _, p := range v.exclude {
		if ok, _ := doublestar.Match(p, path); ok {
			return true
		}
	}
	return false
}

// Snapshot lists the vault and builds a tree from it.
func (v *Vault) Snapshot() (*tree.Snapshot, error) {
	paths, err := v.store.ListPaths("")
	if err != nil {
		return nil, fmt.Errorf("vault: snapshot: %w", err)
	}
	dirs, err := v.store.ListDirs("")
	if err != nil {
		return nil, fmt.Errorf("vault: snapshot: %w", err)
	}

	docPaths := make([]string, 0, len(paths))
	for _, p := range paths {
		if !v.Excluded(p) {
			docPaths = append(docPaths, p)
		}
	}
	keptDirs := dirs[:0]
	for _, d := range dirs {
		if !v.Excluded(d) {
			keptDirs = append(keptDirs, d)
		}
	}
	return tree.New(docPaths, keptDirs), nil
}

// ReadParent returns the document's parent field, or "" when it is absent or
// not a plain string.
func (v *Vault) ReadParent(_ context.Context, doc *models.Document) (string, error) {
	d, _, err := v.load(doc.Path)
	if err != nil {
		return "", err
	}
	parent, _ := d.Header.String(propagate.ParentKey)
	return parent, nil
}

// UpdateFrontmatter applies mutate to the document header and writes the
// file atomically. Nothing is written when the mutation leaves the content
// unchanged. If the file changed on disk while the mutation ran the write is
// abandoned with apperr.ErrConflict.
func (v *Vault) UpdateFrontmatter(_ context.Context, doc *models.Document, mutate func(*frontmatter.Header) error) error {
	d, original, err := v.load(doc.Path)
	if err != nil {
		return err
	}
	if err := mutate(d.Header); err != nil {
		return fmt.Errorf("vault: mutate %s: %w", doc.Path, err)
	}
	out, err := d.Bytes()
	if err != nil {
		return err
	}
	if bytes.Equal(out, original) {
		return nil
	}

	latest, err := v.store.Read(doc.Path)
	if err != nil {
		return fmt.Errorf("vault: reread %s: %w", doc.Path, err)
	}
	if !checksum.Matches(latest, checksum.Sum(original)) {
		return fmt.Errorf("vault: update %s: %w", doc.Path, apperr.ErrConflict)
	}
	return v.store.Write(doc.Path, out)
}

func (v *Vault) load(path string) (*frontmatter.Document, []byte, error) {
	data, err := v.store.Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("vault: %s: %w", path, apperr.ErrNotFound)
		}
		return nil, nil, err
	}
	d, err := frontmatter.Parse(data)
	if err != nil {
		return nil, nil, fmt.Errorf("vault: %s: %w", path, err)
	}
	return d, data, nil
}
