package tree

import "testing"

func TestNew_BuildsHierarchy(t *testing.T) {
	s := New([]string{"Projects/Projects.md", "Projects/Sub/Sub.md", "Inbox.md"}, nil)

	doc, ok := s.Document("Projects/Sub/Sub.md")
	if !ok {
		t.Fatal("document not found")
	}
	if doc.BaseName != "Sub" {
		t.Errorf("base name = %q, want Sub", doc.BaseName)
	}
	if doc.Folder == nil || doc.Folder.Path != "Projects/Sub" || doc.Folder.Name != "Sub" {
		t.Fatalf("folder = %+v", doc.Folder)
	}
	if doc.Folder.Parent == nil || doc.Folder.Parent.Name != "Projects" {
		t.Fatalf("grandparent = %+v", doc.Folder.Parent)
	}
	if doc.Folder.Parent.Parent != s.Root() {
		t.Error("top-level folder should hang off the root")
	}
	if !s.Root().IsRoot() {
		t.Error("root should report IsRoot")
	}
}

func TestNew_RootDocumentHasNoFolder(t *testing.T) {
	s := New([]string{"Inbox.md"}, nil)
	doc, _ := s.Document("Inbox.md")
	if doc.Folder != nil {
		t.Errorf("root document folder = %+v, want nil", doc.Folder)
	}
	if doc.FolderPath() != "" {
		t.Errorf("folder path = %q", doc.FolderPath())
	}
}

func TestNew_SharedFolderNodes(t *testing.T) {
	s := New([]string{"A/one.md", "A/two.md"}, nil)
	one, _ := s.Document("A/one.md")
	two, _ := s.Document("A/two.md")
	if one.Folder != two.Folder {
		t.Error("siblings should share the same folder node")
	}
}

func TestNew_EmptyDirsAndEnumerationOrder(t *testing.T) {
	s := New([]string{"b.md", "a.md", "b.md"}, []string{"Empty/Nested"})
	if _, ok := s.Folder("Empty/Nested"); !ok {
		t.Error("empty folder missing")
	}
	if _, ok := s.Folder("Empty"); !ok {
		t.Error("implied ancestor folder missing")
	}
	docs := s.Documents()
	if len(docs) != 2 || docs[0].Path != "b.md" || docs[1].Path != "a.md" {
		t.Errorf("documents = %v", docs)
	}
}

func TestClean(t *testing.T) {
	cases := map[string]string{
		"":          "",
		"/":         "",
		"./a/b.md":  "a/b.md",
		"a/b/":      "a/b",
		`a\b.md`:    "a/b.md",
		"/Projects": "Projects",
	}
	for in, want := range cases {
		if got := Clean(in); got != want {
			t.Errorf("Clean(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBaseName(t *testing.T) {
	if got := BaseName("a/My.Note.md"); got != "My.Note" {
		t.Errorf("BaseName = %q", got)
	}
}
