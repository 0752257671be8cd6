package propagate

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/starford/foldernote/internal/apperr"
	"github.com/starford/foldernote/internal/frontmatter"
	"github.com/starford/foldernote/internal/models"
	"github.com/starford/foldernote/internal/resolver"
	"github.com/starford/foldernote/internal/tree"
)

// memStore is an in-memory MetadataStore keyed by document path.
type memStore struct {
	parents   map[string]string
	failWrite map[string]error
	failRead  map[string]error
	writes    map[string]int
}

func newMemStore() *memStore {
	return &memStore{
		parents:   make(map[string]string),
		failWrite: make(map[string]error),
		failRead:  make(map[string]error),
		writes:    make(map[string]int),
	}
}

func (m *memStore) ReadParent(_ context.Context, doc *models.Document) (string, error) {
	if err := m.failRead[doc.Path]; err != nil {
		return "", err
	}
	return m.parents[doc.Path], nil
}

func (m *memStore) UpdateFrontmatter(_ context.Context, doc *models.Document, mutate func(*frontmatter.Header) error) error {
	if err := m.failWrite[doc.Path]; err != nil {
		return err
	}
	h := frontmatter.NewHeader()
	if v, ok := m.parents[doc.Path]; ok {
		h.Set(ParentKey, v)
	}
	if err := mutate(h); err != nil {
		return err
	}
	v, _ := h.String(ParentKey)
	m.parents[doc.Path] = v
	m.writes[doc.Path]++
	return nil
}

func (m *memStore) totalWrites() int {
	n := 0
	for _, c := range m.writes {
		n += c
	}
	return n
}

type recordingNotifier struct {
	messages []string
}

func (r *recordingNotifier) Notify(msg string) {
	r.messages = append(r.messages, msg)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

func setup(t *testing.T, paths []string, settings Settings) (*tree.Snapshot, *memStore, *recordingNotifier, *Propagator) {
	t.Helper()
	snap := tree.New(paths, nil)
	store := newMemStore()
	n := &recordingNotifier{}
	p := New(snap, store, settings, WithLogger(quietLogger()), WithNotifier(n))
	return snap, store, n, p
}

func doc(t *testing.T, s *tree.Snapshot, p string) *models.Document {
	t.Helper()
	d, ok := s.Document(p)
	if !ok {
		t.Fatalf("document %q missing", p)
	}
	return d
}

func folder(t *testing.T, s *tree.Snapshot, p string) *models.Folder {
	t.Helper()
	f, ok := s.Folder(p)
	if !ok {
		t.Fatalf("folder %q missing", p)
	}
	return f
}

func TestApplyParentLink_Idempotent(t *testing.T) {
	snap, store, _, p := setup(t, []string{"Projects/Projects.md", "Projects/Task.md"}, Settings{})
	ctx := context.Background()
	task := doc(t, snap, "Projects/Task.md")

	first := p.ApplyParentLink(ctx, task)
	if first.Outcome != Linked {
		t.Fatalf("first outcome = %s", first.Outcome)
	}
	after := store.parents["Projects/Task.md"]

	second := p.ApplyParentLink(ctx, task)
	if second.Outcome != Unchanged {
		t.Errorf("second outcome = %s, want unchanged", second.Outcome)
	}
	if store.parents["Projects/Task.md"] != after {
		t.Errorf("metadata changed on second pass: %q", store.parents["Projects/Task.md"])
	}
	if store.writes["Projects/Task.md"] != 1 {
		t.Errorf("writes = %d, want 1", store.writes["Projects/Task.md"])
	}
}

func TestApplyParentLink_FolderNoteTargeting(t *testing.T) {
	snap, store, _, p := setup(t, []string{"Projects/Projects.md", "Projects/Sub/Sub.md"}, Settings{})
	p.ApplyParentLink(context.Background(), doc(t, snap, "Projects/Sub/Sub.md"))
	if got := store.parents["Projects/Sub/Sub.md"]; got != "[[Projects]]" {
		t.Errorf("parent = %q, want [[Projects]]", got)
	}
}

func TestApplyParentLink_RegularNoteTargeting(t *testing.T) {
	snap, store, _, p := setup(t, []string{"Projects/Projects.md", "Projects/Task.md"}, Settings{})
	p.ApplyParentLink(context.Background(), doc(t, snap, "Projects/Task.md"))
	if got := store.parents["Projects/Task.md"]; got != "[[Projects]]" {
		t.Errorf("parent = %q, want [[Projects]]", got)
	}
}

func TestApplyParentLink_CaseMismatchGuard(t *testing.T) {
	snap, store, _, p := setup(t, []string{"Projects/Projects.md", "Projects/PROJECTS.md"}, Settings{})
	res := p.ApplyParentLink(context.Background(), doc(t, snap, "Projects/PROJECTS.md"))
	if res.Outcome != Skipped || res.Reason != resolver.CaseMismatch {
		t.Fatalf("result = %+v", res)
	}
	if _, ok := store.parents["Projects/PROJECTS.md"]; ok {
		t.Error("parent should stay unset")
	}
}

func TestApplyParentLink_RootDocumentsNeverLinked(t *testing.T) {
	snap, store, _, p := setup(t, []string{"Projects.md", "Projects/Projects.md", "Readme.md"}, Settings{})
	for _, path := range []string{"Projects.md", "Readme.md"} {
		res := p.ApplyParentLink(context.Background(), doc(t, snap, path))
		if res.Outcome != Skipped || res.Reason != resolver.NoParentFolder {
			t.Errorf("%s: result = %+v", path, res)
		}
	}
	if store.totalWrites() != 0 {
		t.Errorf("writes = %d, want 0", store.totalWrites())
	}
}

func TestApplyParentLink_AllowListGating(t *testing.T) {
	paths := []string{
		"Allowed/Allowed.md", "Allowed/note.md",
		"Disallowed/Disallowed.md", "Disallowed/note.md",
	}
	snap, store, _, p := setup(t, paths, Settings{AllowedPaths: []string{"Allowed"}})
	ctx := context.Background()

	if res := p.ApplyParentLink(ctx, doc(t, snap, "Allowed/note.md")); res.Outcome != Linked {
		t.Errorf("allowed outcome = %s", res.Outcome)
	}
	res := p.ApplyParentLink(ctx, doc(t, snap, "Disallowed/note.md"))
	if res.Outcome != Skipped || res.Reason != resolver.OutOfScope {
		t.Errorf("disallowed result = %+v", res)
	}
	if _, ok := store.parents["Disallowed/note.md"]; ok {
		t.Error("out-of-scope document was modified")
	}
}

func TestApplyParentLink_AllowListRawPrefix(t *testing.T) {
	snap, store, _, p := setup(t, []string{"AllowedExtra/AllowedExtra.md", "AllowedExtra/x.md"},
		Settings{AllowedPaths: []string{"Allowed"}})
	p.ApplyParentLink(context.Background(), doc(t, snap, "AllowedExtra/x.md"))
	if got := store.parents["AllowedExtra/x.md"]; got != "[[AllowedExtra]]" {
		t.Errorf("parent = %q; raw prefix should admit AllowedExtra", got)
	}
}

func TestApplyParentLink_OverwritesStaleValue(t *testing.T) {
	snap, store, _, p := setup(t, []string{"New/New.md", "New/x.md"}, Settings{})
	store.parents["New/x.md"] = "[[Old]]"
	res := p.ApplyParentLink(context.Background(), doc(t, snap, "New/x.md"))
	if res.Outcome != Linked || store.parents["New/x.md"] != "[[New]]" {
		t.Errorf("result = %+v, parent = %q", res, store.parents["New/x.md"])
	}
}

func TestApplyParentLink_ReadFailure(t *testing.T) {
	snap, store, n, p := setup(t, []string{"A/A.md", "A/x.md"}, Settings{})
	store.failRead["A/x.md"] = errors.New("disk gone")
	res := p.ApplyParentLink(context.Background(), doc(t, snap, "A/x.md"))
	if res.Outcome != Failed {
		t.Fatalf("outcome = %s", res.Outcome)
	}
	if len(n.messages) != 1 {
		t.Errorf("notifications = %v", n.messages)
	}
}

func TestApplyParentLink_ObserverSeesOutcome(t *testing.T) {
	snap := tree.New([]string{"A/A.md", "A/x.md"}, nil)
	store := newMemStore()
	var seen []string
	p := New(snap, store, Settings{}, WithLogger(quietLogger()), WithObserver(func(d, parent *models.Document, outcome Outcome) {
		seen = append(seen, d.Path+"->"+parent.Path+":"+string(outcome))
	}))
	x := doc(t, snap, "A/x.md")
	p.ApplyParentLink(context.Background(), x)
	p.ApplyParentLink(context.Background(), x)
	if len(seen) != 2 || seen[0] != "A/x.md->A/A.md:linked" || seen[1] != "A/x.md->A/A.md:unchanged" {
		t.Errorf("observer calls = %v", seen)
	}
}

func TestCascadeFolder_RootCoversWholeTree(t *testing.T) {
	paths := []string{
		"Inbox.md",
		"A/A.md",
		"A/x.md",
		"A/B/B.md",
		"A/B/y.md",
		"A/B/C/C.md",
		"A/B/C/z.md",
	}
	snap, store, _, p := setup(t, paths, Settings{})
	report := p.CascadeFolder(context.Background(), snap.Root())

	want := map[string]string{
		"A/x.md":     "[[A]]",
		"A/B/B.md":   "[[A]]",
		"A/B/y.md":   "[[B]]",
		"A/B/C/C.md": "[[B]]",
		"A/B/C/z.md": "[[C]]",
	}
	for path, link := range want {
		if got := store.parents[path]; got != link {
			t.Errorf("%s: parent = %q, want %q", path, got, link)
		}
	}
	if report.Linked != 5 || report.Skipped != 2 || report.Failed != 0 {
		t.Errorf("report = %+v", report)
	}
	if report.ID == "" {
		t.Error("report should carry a run id")
	}
}

func TestCascadeFolder_SubtreeAndOwnFolderNote(t *testing.T) {
	paths := []string{"A/A.md", "A/B/B.md", "A/B/y.md", "A/B/C/C.md", "A/x.md"}
	snap, store, _, p := setup(t, paths, Settings{})
	report := p.CascadeFolder(context.Background(), folder(t, snap, "A/B"))

	if _, ok := store.parents["A/x.md"]; ok {
		t.Error("document outside the subtree was touched")
	}
	for _, path := range []string{"A/B/B.md", "A/B/y.md", "A/B/C/C.md"} {
		if store.writes[path] != 1 {
			t.Errorf("%s: writes = %d, want 1", path, store.writes[path])
		}
	}
	// The folder note sits inside its own folder, so it is visited twice; the
	// second visit is a no-op.
	if report.Total() != 4 || report.Linked != 3 || report.Unchanged != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestCascadeFolder_PrefixIsSegmentAware(t *testing.T) {
	snap, store, _, p := setup(t, []string{"A/A.md", "A/x.md", "AB/AB.md", "AB/y.md"}, Settings{})
	p.CascadeFolder(context.Background(), folder(t, snap, "A"))
	if _, ok := store.parents["AB/y.md"]; ok {
		t.Error("sibling folder sharing a name prefix was cascaded")
	}
	if store.parents["A/x.md"] != "[[A]]" {
		t.Errorf("A/x.md parent = %q", store.parents["A/x.md"])
	}
}

func TestCascadeFolder_WriteFailureIsolation(t *testing.T) {
	paths := []string{"P/P.md", "P/a.md", "P/b.md", "P/c.md", "P/d.md"}
	snap, store, n, p := setup(t, paths, Settings{})
	store.failWrite["P/b.md"] = errors.New("permission denied")

	report := p.CascadeFolder(context.Background(), snap.Root())

	for _, path := range []string{"P/a.md", "P/c.md", "P/d.md"} {
		if store.parents[path] != "[[P]]" {
			t.Errorf("%s: parent = %q", path, store.parents[path])
		}
	}
	if _, ok := store.parents["P/b.md"]; ok {
		t.Error("failed document should keep its metadata")
	}
	if report.Failed != 1 || len(report.Failures) != 1 || report.Failures[0] != "P/b.md" {
		t.Errorf("report = %+v", report)
	}
	if len(n.messages) != 1 || !strings.Contains(n.messages[0], "P/b.md") {
		t.Errorf("notifications = %v", n.messages)
	}
}

func TestApplyParentLink_WriteFailureWrapsSentinel(t *testing.T) {
	snap, store, _, p := setup(t, []string{"P/P.md", "P/a.md"}, Settings{})
	store.failWrite["P/a.md"] = errors.New("boom")
	res := p.ApplyParentLink(context.Background(), doc(t, snap, "P/a.md"))
	if !errors.Is(res.Err, apperr.ErrWriteFailure) {
		t.Errorf("err = %v, want ErrWriteFailure", res.Err)
	}
}

func TestPreview_DoesNotWrite(t *testing.T) {
	snap, store, _, p := setup(t, []string{"P/P.md", "P/a.md"}, Settings{})
	r := p.Preview(doc(t, snap, "P/a.md"))
	if r.Target == nil || r.Target.Path != "P/P.md" {
		t.Fatalf("preview = %+v", r)
	}
	if store.totalWrites() != 0 {
		t.Error("preview wrote metadata")
	}
}

func TestVerboseLoggingPromotesSkips(t *testing.T) {
	snap := tree.New([]string{"Root.md"}, nil)
	for _, verbose := range []bool{false, true} {
		var buf bytes.Buffer
		logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))
		p := New(snap, newMemStore(), Settings{Verbose: verbose}, WithLogger(logger))
		p.ApplyParentLink(context.Background(), doc(t, snap, "Root.md"))

		logged := strings.Contains(buf.String(), "propagate: skipped")
		if logged != verbose {
			t.Errorf("verbose=%v: skip logged = %v", verbose, logged)
		}
	}
}
