package index

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/starford/foldernote/internal/apperr"
	"github.com/starford/foldernote/internal/models"
)

// RecordLink inserts or replaces the parent of child.
func (db *DB) RecordLink(child, parent, link string, at time.Time) error {
	_, err := db.conn.Exec(`
		INSERT INTO parent_links (child, parent, link, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(child) DO UPDATE SET
			parent     = excluded.parent,
			link       = excluded.link,
			updated_at = excluded.updated_at
	`, child, parent, link, at.UTC())
	if err != nil {
		return fmt.Errorf("index: record link: %w", err)
	}
	return nil
}

// DeleteLink removes every ledger entry naming path, as child or as parent.
func (db *DB) DeleteLink(path string) error {
	if _, err := db.conn.Exec(`DELETE FROM parent_links WHERE child = ?1 OR parent = ?1`, path); err != nil {
		return fmt.Errorf("index: delete link: %w", err)
	}
	return nil
}

// DeleteUnder removes every entry whose child lives under folder.
func (db *DB) DeleteUnder(folder string) (int, error) {
	prefix := strings.TrimSuffix(folder, "/") + "/"
	res, err := db.conn.Exec(`DELETE FROM parent_links WHERE substr(child, 1, length(?1)) = ?1`, prefix)
	if err != nil {
		return 0, fmt.Errorf("index: delete under %s: %w", folder, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// Prune removes entries whose child is not in existing.
func (db *DB) Prune(existing map[string]struct{}) (int, error) {
	links, err := db.AllLinks()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, l := range links {
		if _, ok := existing[l.Child]; ok {
			continue
		}
		if _, err := db.conn.Exec(`DELETE FROM parent_links WHERE child = ?`, l.Child); err != nil {
			return removed, fmt.Errorf("index: prune: %w", err)
		}
		removed++
	}
	return removed, nil
}

// Parent returns the recorded parent of child.
func (db *DB) Parent(child string) (*models.ParentLink, error) {
	var l models.ParentLink
	err := db.conn.QueryRow(`SELECT child, parent, link, updated_at FROM parent_links WHERE child = ?`, child).
		Scan(&l.Child, &l.Parent, &l.Link, &l.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("index: parent: %w", err)
	}
	return &l, nil
}

// Children returns every recorded child of parent, ordered by path.
func (db *DB) Children(parent string) ([]models.ParentLink, error) {
	return db.query(`SELECT child, parent, link, updated_at FROM parent_links WHERE parent = ? ORDER BY child`, parent)
}

// AllLinks returns every ledger entry, ordered by child path.
func (db *DB) AllLinks() ([]models.ParentLink, error) {
	return db.query(`SELECT child, parent, link, updated_at FROM parent_links ORDER BY child`)
}

func (db *DB) query(q string, args ...any) ([]models.ParentLink, error) {
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("index: query links: %w", err)
	}
	defer rows.Close()

	var out []models.ParentLink
	for rows.Next() {
		var l models.ParentLink
		if err := rows.Scan(&l.Child, &l.Parent, &l.Link, &l.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
