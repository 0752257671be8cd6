// Package linkservice wires the propagator to the vault, the settings
// store, the parent-link ledger and the notification sinks. Every entry
// point (watcher events, HTTP, MCP, CLI) goes through a Service.
package linkservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/foldernote/internal/apperr"
	"github.com/starford/foldernote/internal/index"
	"github.com/starford/foldernote/internal/models"
	"github.com/starford/foldernote/internal/notify"
	"github.com/starford/foldernote/internal/propagate"
	"github.com/starford/foldernote/internal/resolver"
	"github.com/starford/foldernote/internal/settings"
	"github.com/starford/foldernote/internal/tree"
	"github.com/starford/foldernote/internal/vault"
)

// Publisher receives a notification for every parent link written.
type Publisher interface {
	PublishLink(child, parent, link string)
}

// Resolution is the dry-run answer for one document.
type Resolution struct {
	Path    string `json:"path"`
	Parent  string `json:"parent,omitempty"`
	Link    string `json:"link,omitempty"`
	Current string `json:"current,omitempty"`
	// Recorded is the parent the ledger last saw written, if any.
	Recorded string              `json:"recorded,omitempty"`
	Reason   resolver.SkipReason `json:"reason,omitempty"`
}

// Service coordinates propagation runs. Operations are serialized: each one
// takes a fresh snapshot of the vault and runs to completion before the next.
type Service struct {
	vault    *vault.Vault
	settings *settings.Store
	ledger   index.LinkIndex

	logger    *slog.Logger
	notifier  notify.Notifier
	publisher Publisher
	now       func() time.Time

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithNotifier sets the user-facing notification sink.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithPublisher registers a sink for written links.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// New creates a Service. ledger may be nil, in which case links are not
// recorded and Children always returns an empty list.
func New(v *vault.Vault, st *settings.Store, ledger index.LinkIndex, opts ...Option) *Service {
	s := &Service{
		vault:    v,
		settings: st,
		ledger:   ledger,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.notifier == nil {
		s.notifier = notify.NewLog(s.logger)
	}
	return s
}

// Refresh cascades folderPath (the root when empty), stores it as the last
// refreshed folder and sends a completion notice. It runs regardless of the
// enabled setting.
func (s *Service) Refresh(ctx context.Context, folderPath string) (propagate.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.settings.Load()
	if err != nil {
		return propagate.Report{}, err
	}
	snap, err := s.vault.Snapshot()
	if err != nil {
		return propagate.Report{}, err
	}
	folder, ok := snap.Folder(folderPath)
	if !ok {
		return propagate.Report{}, fmt.Errorf("linkservice: refresh %q: %w", folderPath, apperr.ErrNotFound)
	}

	report := s.propagator(snap, st).CascadeFolder(ctx, folder)

	st.LastRefreshedFolder = folder.Path
	if err := s.settings.Save(st); err != nil {
		s.logger.Error("linkservice: save last refreshed folder", slog.String("error", err.Error()))
	}

	s.notifier.Notify(fmt.Sprintf("Refreshed parent links in %s: %d updated, %d unchanged, %d skipped, %d failed",
		displayFolder(folder), report.Linked, report.Unchanged, report.Skipped, report.Failed))
	return report, nil
}

// Resolve reports what parent docPath would get without writing anything.
func (s *Service) Resolve(ctx context.Context, docPath string) (*Resolution, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.settings.Load()
	if err != nil {
		return nil, err
	}
	snap, err := s.vault.Snapshot()
	if err != nil {
		return nil, err
	}
	doc, ok := snap.Document(docPath)
	if !ok {
		return nil, fmt.Errorf("linkservice: resolve %q: %w", docPath, apperr.ErrNotFound)
	}

	res := s.propagator(snap, st).Preview(doc)
	out := &Resolution{Path: doc.Path, Reason: res.Reason}
	if res.Target != nil {
		out.Parent = res.Target.Path
		out.Link = resolver.Link(res.Target)
	}
	current, err := s.vault.ReadParent(ctx, doc)
	if err != nil {
		return nil, err
	}
	out.Current = current
	if s.ledger != nil {
		link, err := s.ledger.Parent(doc.Path)
		switch {
		case err == nil:
			out.Recorded = link.Parent
		case !errors.Is(err, apperr.ErrNotFound):
			return nil, err
		}
	}
	return out, nil
}

// Children lists the ledger rows whose parent is parentPath.
func (s *Service) Children(_ context.Context, parentPath string) ([]models.ParentLink, error) {
	if s.ledger == nil {
		return []models.ParentLink{}, nil
	}
	links, err := s.ledger.Children(tree.Clean(parentPath))
	if err != nil {
		return nil, err
	}
	if links == nil {
		links = []models.ParentLink{}
	}
	return links, nil
}

// Settings returns the current settings record.
func (s *Service) Settings(_ context.Context) (settings.Settings, error) {
	return s.settings.Load()
}

// UpdateSettings persists st. LastRefreshedFolder is kept from the stored
// record when st leaves it empty.
func (s *Service) UpdateSettings(_ context.Context, st settings.Settings) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.LastRefreshedFolder == "" {
		prev, err := s.settings.Load()
		if err != nil {
			return settings.Settings{}, err
		}
		st.LastRefreshedFolder = prev.LastRefreshedFolder
	}
	if st.AllowedPaths == nil {
		st.AllowedPaths = []string{}
	}
	if err := s.settings.Save(st); err != nil {
		return settings.Settings{}, err
	}
	return st, nil
}

// OnCreate handles a new document or folder.
func (s *Service) OnCreate(ctx context.Context, path string) {
	s.handle("create", path, func(r *run) {
		if doc, ok := r.snap.Document(path); ok {
			r.p.ApplyParentLink(ctx, doc)
			return
		}
		if folder, ok := r.snap.Folder(path); ok && !folder.IsRoot() {
			r.p.CascadeFolder(ctx, folder)
		}
	})
}

// OnRename handles a moved or renamed document or folder. A renamed
// folder note also refreshes its folder so the children follow the new
// name.
func (s *Service) OnRename(ctx context.Context, path, oldPath string) {
	s.forget(oldPath)
	s.handle("rename", path, func(r *run) {
		if folder, ok := r.snap.Folder(path); ok && !folder.IsRoot() {
			r.p.CascadeFolder(ctx, folder)
			return
		}
		doc, ok := r.snap.Document(path)
		if !ok {
			return
		}
		r.p.ApplyParentLink(ctx, doc)
		if doc.IsFolderNote() {
			r.p.CascadeFolder(ctx, doc.Folder)
		}
	})
}

// OnModify handles an edited document.
func (s *Service) OnModify(ctx context.Context, path string) {
	s.handle("modify", path, func(r *run) {
		doc, ok := r.snap.Document(path)
		if !ok {
			return
		}
		r.p.ApplyParentLink(ctx, doc)
		if doc.IsFolderNote() {
			r.p.CascadeFolder(ctx, doc.Folder)
		}
	})
}

// OnDelete drops ledger rows for a removed document or folder. Documents
// left pointing at a deleted folder note keep their parent field.
func (s *Service) OnDelete(_ context.Context, path string) {
	s.forget(path)
}

type run struct {
	snap *tree.Snapshot
	p    *propagate.Propagator
}

func (s *Service) handle(event, path string, fn func(*run)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, err := s.settings.Load()
	if err != nil {
		s.logger.Error("linkservice: load settings",
			slog.String("event", event),
			slog.String("error", err.Error()))
		return
	}
	if !st.Enabled {
		return
	}
	if s.vault.Excluded(path) {
		return
	}
	snap, err := s.vault.Snapshot()
	if err != nil {
		s.logger.Error("linkservice: snapshot",
			slog.String("event", event),
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	s.logger.Debug("linkservice: event", slog.String("event", event), slog.String("path", path))
	fn(&run{snap: snap, p: s.propagator(snap, st)})
}

func (s *Service) forget(path string) {
	if s.ledger == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path = tree.Clean(path)
	if err := s.ledger.DeleteLink(path); err != nil {
		s.logger.Warn("linkservice: ledger delete", slog.String("path", path), slog.String("error", err.Error()))
	}
	if _, err := s.ledger.DeleteUnder(path); err != nil {
		s.logger.Warn("linkservice: ledger delete under", slog.String("path", path), slog.String("error", err.Error()))
	}
}

func (s *Service) propagator(snap *tree.Snapshot, st settings.Settings) *propagate.Propagator {
	return propagate.New(snap, s.vault, st.Propagation(),
		propagate.WithLogger(s.logger),
		propagate.WithNotifier(s.notifier),
		propagate.WithObserver(s.record),
	)
}

func (s *Service) record(doc, parent *models.Document, outcome propagate.Outcome) {
	link := resolver.Link(parent)
	if s.ledger != nil {
		if err := s.ledger.RecordLink(doc.Path, parent.Path, link, s.now()); err != nil {
			s.logger.Warn("linkservice: ledger record",
				slog.String("path", doc.Path),
				slog.String("error", err.Error()))
		}
	}
	if s.publisher != nil && outcome == propagate.Linked {
		s.publisher.PublishLink(doc.Path, parent.Path, link)
	}
}

func displayFolder(f *models.Folder) string {
	if f.IsRoot() {
		return "/"
	}
	return f.Path
}
