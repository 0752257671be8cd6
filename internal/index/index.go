package index

import (
	"time"

	"github.com/starford/foldernote/internal/models"
)

// LinkIndex defines the ledger operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type LinkIndex interface {
	RecordLink(child, parent, link string, at time.Time) error
	DeleteLink(path string) error
	DeleteUnder(folder string) (int, error)
	Prune(existing map[string]struct{}) (int, error)
	Parent(child string) (*models.ParentLink, error)
	Children(parent string) ([]models.ParentLink, error)
	AllLinks() ([]models.ParentLink, error)
	Close() error
}

// Verify *DB satisfies LinkIndex at compile time.
var _ LinkIndex = (*DB)(nil)
