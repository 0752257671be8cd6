package api

import (
	"github.com/starford/foldernote/internal/linkservice"
	"github.com/starford/foldernote/internal/models"
	"github.com/starford/foldernote/internal/propagate"
)

// RefreshRequest is the request body for a manual refresh.
type RefreshRequest struct {
	Folder string `json:"folder" example:"Projects"`
}

// RefreshResponse is the cascade report (aliased from the domain layer).
type RefreshResponse = propagate.Report

// ResolveResponse is the dry-run resolution (aliased from the domain layer).
type ResolveResponse = linkservice.Resolution

// ChildrenResponse lists the ledger rows pointing at a parent note.
type ChildrenResponse struct {
	Parent   string              `json:"parent" example:"Projects/Projects.md" validate:"required"`
	Children []models.ParentLink `json:"children" validate:"required"`
}
