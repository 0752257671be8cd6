// Package tree builds immutable in-memory snapshots of a vault's folder
// hierarchy from plain path listings.
package tree

import (
	"path"
	"strings"

	"github.com/starford/foldernote/internal/models"
)

// Snapshot is a read-only view of the vault at one point in time.
// Documents are enumerated in the order their paths were supplied.
type Snapshot struct {
	root      *models.Folder
	folders   map[string]*models.Folder
	documents []*models.Document
	byPath    map[string]*models.Document
}

// New builds a snapshot from vault-relative document paths and (optionally)
// folder paths. Folders implied by document paths are created automatically,
// so dirs only needs to list folders that may contain no documents.
func New(docPaths, dirs []string) *Snapshot {
	s := &Snapshot{
		root:    &models.Folder{},
		folders: make(map[string]*models.Folder),
		byPath:  make(map[string]*models.Document, len(docPaths)),
	}
	s.folders[""] = s.root

	for _, d := range dirs {
		s.folder(Clean(d))
	}

	for _, p := range docPaths {
		p = Clean(p)
		if p == "" {
			continue
		}
		if _, dup := s.byPath[p]; dup {
			continue
		}
		doc := &models.Document{
			Path:     p,
			BaseName: BaseName(p),
		}
		if dir := path.Dir(p); dir != "." {
			doc.Folder = s.folder(dir)
		}
		s.documents = append(s.documents, doc)
		s.byPath[p] = doc
	}
	return s
}

// folder returns the folder node for p, creating it and its ancestors.
func (s *Snapshot) folder(p string) *models.Folder {
	if p == "." {
		p = ""
	}
	if f, ok := s.folders[p]; ok {
		return f
	}
	parentPath := path.Dir(p)
	if parentPath == "." {
		parentPath = ""
	}
	f := &models.Folder{
		Path:   p,
		Name:   path.Base(p),
		Parent: s.folder(parentPath),
	}
	s.folders[p] = f
	return f
}

// Root returns the vault root folder.
func (s *Snapshot) Root() *models.Folder {
	return s.root
}

// Documents returns every document in enumeration order.
func (s *Snapshot) Documents() []*models.Document {
	return s.documents
}

// Document resolves a path to its document node.
func (s *Snapshot) Document(p string) (*models.Document, bool) {
	d, ok := s.byPath[Clean(p)]
	return d, ok
}

// Folder resolves a path to its folder node. The empty path is the root.
func (s *Snapshot) Folder(p string) (*models.Folder, bool) {
	f, ok := s.folders[Clean(p)]
	return f, ok
}

// Clean normalises a vault-relative path: forward slashes, no leading "./"
// or "/", no trailing slash. The root is "".
func Clean(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean("/" + p)
	return strings.TrimPrefix(p, "/")
}

// BaseName returns the final path segment without its extension.
func BaseName(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}
