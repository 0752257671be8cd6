// Package models defines the domain types for foldernote.
package models

import "time"

// NoteMetadata is a lightweight representation returned by list operations.
type NoteMetadata struct {
	Path      string    `json:"path"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ParentLink is a recorded child → parent relationship.
type ParentLink struct {
	Child     string    `json:"child"`
	Parent    string    `json:"parent"`
	Link      string    `json:"link"`
	UpdatedAt time.Time `json:"updated_at"`
}
