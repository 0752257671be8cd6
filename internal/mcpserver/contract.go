package mcpserver

// Conventions describes the folder-note layout the linker maintains.
const Conventions = `# Folder Note Conventions

A **folder note** is the Markdown document inside a folder whose file name,
without extension, equals the folder name exactly (case-sensitive).

` + "```" + `
Projects/
  Projects.md        <- folder note of Projects
  plan.md            <- parent: "[[Projects]]"
  Website/
    Website.md       <- folder note of Website, parent: "[[Projects]]"
    launch.md        <- parent: "[[Website]]"
` + "```" + `

## Rules

1. Every document gets a ` + "`" + `parent` + "`" + ` frontmatter field pointing at the
   folder note of its own folder, written as ` + "`" + `parent: "[[<name>]]"` + "`" + `.
2. A folder note points one level up: at the folder note of the enclosing folder.
3. Documents at the vault root have no parent and are never modified.
4. A document whose name differs from its folder name only by letter case
   (` + "`" + `projects.md` + "`" + ` inside ` + "`" + `Projects/` + "`" + `) is skipped; rename it to match exactly.
5. When the expected folder note does not exist the document is skipped and its
   existing ` + "`" + `parent` + "`" + ` value is left alone.
6. The field is only written when it differs, so refreshing twice changes nothing.
7. Other frontmatter keys and their order are preserved. Documents without
   frontmatter get a new block holding only ` + "`" + `parent` + "`" + `.
8. When allowed paths are configured, only documents whose path starts with one
   of them are processed. Matching is a plain string prefix.
`
