// Package settings persists the user-editable linker settings.
package settings

import (
	"fmt"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/foldernote/internal/propagate"
	pkgconfig "github.com/starford/foldernote/pkg/config"
)

// Settings is the persisted settings record.
type Settings struct {
	// Enabled gates the automatic event handlers. Manual refreshes always run.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// VerboseLogging logs every skipped document at info level.
	VerboseLogging bool `yaml:"verbose_logging" json:"verbose_logging"`
	// LastRefreshedFolder is the folder of the most recent manual refresh.
	LastRefreshedFolder string `yaml:"last_refreshed_folder,omitempty" json:"last_refreshed_folder,omitempty"`
	// AllowedPaths restricts processing to these path prefixes; empty means all.
	AllowedPaths []string `yaml:"allowed_paths" json:"allowed_paths"`
}

// Default returns the settings used when nothing has been saved yet.
func Default() Settings {
	return Settings{Enabled: true, AllowedPaths: []string{}}
}

// Validate validates the settings.
func (s *Settings) Validate() error {
	return validation.ValidateStruct(s,
		validation.Field(&s.AllowedPaths, validation.Each(validation.Required)),
	)
}

// Propagation returns the subset of settings the propagator needs.
func (s Settings) Propagation() propagate.Settings {
	allowed := make([]string, len(s.AllowedPaths))
	copy(allowed, s.AllowedPaths)
	return propagate.Settings{AllowedPaths: allowed, Verbose: s.VerboseLogging}
}

// Store loads and saves Settings as a YAML file.
type Store struct {
	path string

	mu sync.Mutex
}

// NewStore creates a store backed by the file at path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the settings file, returning Default() when it does not exist.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Default()
	if _, err := pkgconfig.LoadIfExists(s.path, &out); err != nil {
		return Settings{}, fmt.Errorf("settings: load: %w", err)
	}
	if out.AllowedPaths == nil {
		out.AllowedPaths = []string{}
	}
	return out, nil
}

// Save validates and persists settings.
func (s *Store) Save(st Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := pkgconfig.Save(s.path, &st); err != nil {
		return fmt.Errorf("settings: save: %w", err)
	}
	return nil
}
