// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/foldernote/internal/models"

// Provider is the interface for vault file operations.
type Provider interface {
	// List returns metadata for every .md file under dir (relative to vault root).
	List(dir string) ([]models.NoteMetadata, error)
	// ListPaths returns the path of every .md file under dir without reading it.
	ListPaths(dir string) ([]string, error)
	// ListDirs returns every folder under dir (relative to vault root), dir excluded.
	ListDirs(dir string) ([]string, error)
	// Read returns the raw bytes of the file at path (relative to vault root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to vault root).
	Write(path string, content []byte) error
}
