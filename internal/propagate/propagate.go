// Package propagate applies resolved parent links to documents, one at a
// time or across a folder subtree.
//
// The propagator reads the vault through a Tree snapshot and touches files
// only through a MetadataStore, so it has no dependency on the file system
// or on how events are delivered.
package propagate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/starford/foldernote/internal/apperr"
	"github.com/starford/foldernote/internal/frontmatter"
	"github.com/starford/foldernote/internal/models"
	"github.com/starford/foldernote/internal/resolver"
	"github.com/starford/foldernote/internal/scope"
)

// ParentKey is the frontmatter key holding the parent link.
const ParentKey = "parent"

// Tree enumerates the documents of a vault snapshot.
type Tree interface {
	Documents() []*models.Document
}

// MetadataStore reads and writes document frontmatter.
type MetadataStore interface {
	// ReadParent returns the current parent value, or "" when absent.
	ReadParent(ctx context.Context, doc *models.Document) (string, error)
	// UpdateFrontmatter applies mutate to the document's header and persists
	// the result atomically. It must return an error on any I/O failure.
	UpdateFrontmatter(ctx context.Context, doc *models.Document, mutate func(*frontmatter.Header) error) error
}

// Notifier is a fire-and-forget user-facing message sink.
type Notifier interface {
	Notify(msg string)
}

// LinkObserver is called for every document that ends a pass pointing at
// parent, with Linked or Unchanged as the outcome.
type LinkObserver func(doc, parent *models.Document, outcome Outcome)

// Settings are the per-call knobs of a propagation pass.
type Settings struct {
	AllowedPaths []string
	Verbose      bool
}

// Outcome is the state a document ends a pass in.
type Outcome string

// Outcomes.
const (
	// Linked: the parent field was written.
	Linked Outcome = "linked"
	// Unchanged: the parent field was already correct.
	Unchanged Outcome = "unchanged"
	// Skipped: out of scope or no resolvable parent.
	Skipped Outcome = "skipped"
	// Failed: reading or writing metadata failed; the document is left as it was.
	Failed Outcome = "failed"
)

// Result describes what happened to a single document.
type Result struct {
	Path    string              `json:"path"`
	Outcome Outcome             `json:"outcome"`
	Parent  string              `json:"parent,omitempty"`
	Reason  resolver.SkipReason `json:"reason,omitempty"`
	Err     error               `json:"-"`
}

// Report summarises a cascade.
type Report struct {
	ID        string   `json:"id"`
	Folder    string   `json:"folder"`
	Linked    int      `json:"linked"`
	Unchanged int      `json:"unchanged"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Failures  []string `json:"failures,omitempty"`
}

func (r *Report) add(res Result) {
	switch res.Outcome {
	case Linked:
		r.Linked++
	case Unchanged:
		r.Unchanged++
	case Skipped:
		r.Skipped++
	case Failed:
		r.Failed++
		r.Failures = append(r.Failures, res.Path)
	}
}

// Total returns the number of documents visited.
func (r *Report) Total() int {
	return r.Linked + r.Unchanged + r.Skipped + r.Failed
}

// Propagator applies parent links against one tree snapshot.
type Propagator struct {
	tree     Tree
	meta     MetadataStore
	settings Settings
	logger   *slog.Logger
	notifier Notifier
	observer LinkObserver
}

// Option configures a Propagator.
type Option func(*Propagator)

// WithLogger sets the logger used for skip and write diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(p *Propagator) {
		p.logger = l
	}
}

// WithNotifier sets the sink for user-facing failure messages.
func WithNotifier(n Notifier) Option {
	return func(p *Propagator) {
		p.notifier = n
	}
}

// WithObserver registers a callback for resolved documents.
func WithObserver(o LinkObserver) Option {
	return func(p *Propagator) {
		p.observer = o
	}
}

// New creates a Propagator over tree and meta.
func New(tree Tree, meta MetadataStore, settings Settings, opts ...Option) *Propagator {
	p := &Propagator{
		tree:     tree,
		meta:     meta,
		settings: settings,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Preview resolves doc without touching its metadata.
func (p *Propagator) Preview(doc *models.Document) resolver.Result {
	if !scope.InScope(doc.Path, doc.FolderPath(), p.settings.AllowedPaths) {
		return resolver.Result{Reason: resolver.OutOfScope}
	}
	return resolver.Resolve(doc, p.tree.Documents())
}

// ApplyParentLink resolves doc and writes its parent field when it differs
// from the resolved link. Failures are reported to the notifier and returned
// in the Result; they never abort the caller.
func (p *Propagator) ApplyParentLink(ctx context.Context, doc *models.Document) Result {
	res := Result{Path: doc.Path}

	resolved := p.Preview(doc)
	if resolved.Target == nil {
		res.Outcome = Skipped
		res.Reason = resolved.Reason
		p.logSkip(ctx, doc, resolved.Reason)
		return res
	}

	want := resolver.Link(resolved.Target)
	res.Parent = want

	current, err := p.meta.ReadParent(ctx, doc)
	if err != nil {
		return p.fail(res, fmt.Errorf("read %s: %w", doc.Path, err))
	}
	if current == want {
		res.Outcome = Unchanged
		p.observe(doc, resolved.Target, Unchanged)
		return res
	}

	err = p.meta.UpdateFrontmatter(ctx, doc, func(h *frontmatter.Header) error {
		h.Set(ParentKey, want)
		return nil
	})
	if err != nil {
		return p.fail(res, fmt.Errorf("%w: %s: %w", apperr.ErrWriteFailure, doc.Path, err))
	}

	p.logger.Debug("propagate: linked",
		slog.String("path", doc.Path),
		slog.String("parent", want),
		slog.String("previous", current))
	p.observe(doc, resolved.Target, Linked)
	res.Outcome = Linked
	return res
}

// CascadeFolder applies parent links to every document under folder, then
// to the folder's own folder note. The root folder covers the whole vault.
// Documents are processed one at a time in enumeration order; a failure on
// one document does not stop the others.
func (p *Propagator) CascadeFolder(ctx context.Context, folder *models.Folder) Report {
	report := Report{ID: uuid.NewString(), Folder: folder.Path}
	all := p.tree.Documents()

	prefix := folder.Path + "/"
	for _, doc := range all {
		if !folder.IsRoot() && !strings.HasPrefix(doc.Path, prefix) {
			continue
		}
		report.add(p.ApplyParentLink(ctx, doc))
	}

	if !folder.IsRoot() {
		if note := resolver.FolderNote(folder, all, nil); note != nil {
			report.add(p.ApplyParentLink(ctx, note))
		}
	}

	p.logger.Info("propagate: cascade finished",
		slog.String("run_id", report.ID),
		slog.String("folder", folder.Path),
		slog.Int("total", report.Total()),
		slog.Int("linked", report.Linked),
		slog.Int("unchanged", report.Unchanged),
		slog.Int("skipped", report.Skipped),
		slog.Int("failed", report.Failed))
	return report
}

func (p *Propagator) observe(doc, parent *models.Document, outcome Outcome) {
	if p.observer != nil {
		p.observer(doc, parent, outcome)
	}
}

func (p *Propagator) fail(res Result, err error) Result {
	res.Outcome = Failed
	res.Err = err
	p.logger.Error("propagate: update failed",
		slog.String("path", res.Path),
		slog.String("error", err.Error()))
	if p.notifier != nil {
		p.notifier.Notify(fmt.Sprintf("Failed to update parent for %s: %v", res.Path, err))
	}
	return res
}

func (p *Propagator) logSkip(ctx context.Context, doc *models.Document, reason resolver.SkipReason) {
	level := slog.LevelDebug
	if p.settings.Verbose {
		level = slog.LevelInfo
	}
	p.logger.Log(ctx, level, "propagate: skipped",
		slog.String("path", doc.Path),
		slog.String("reason", string(reason)))
}
