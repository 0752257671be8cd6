package models

// Document is a Markdown file in the vault.
type Document struct {
	// Path is vault-relative and '/'-separated, e.g. "Projects/Task.md".
	Path string
	// BaseName is the final path segment without its extension.
	BaseName string
	// Folder is the containing folder, nil for documents at the vault root.
	Folder *Folder
}

// FolderPath returns the containing folder's path, or "" at the vault root.
func (d *Document) FolderPath() string {
	if d.Folder == nil {
		return ""
	}
	return d.Folder.Path
}

// IsFolderNote reports whether the document's base name exactly equals its
// containing folder's name.
func (d *Document) IsFolderNote() bool {
	return d.Folder != nil && !d.Folder.IsRoot() && d.BaseName == d.Folder.Name
}

// Folder is a directory in the vault.
type Folder struct {
	// Path is vault-relative; the root folder has an empty path.
	Path string
	// Name is the final path segment; empty for the root.
	Name string
	// Parent is nil for the root.
	Parent *Folder
}

// IsRoot reports whether f is the vault root.
func (f *Folder) IsRoot() bool {
	return f.Parent == nil
}
