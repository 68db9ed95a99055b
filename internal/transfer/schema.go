// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer moves page configurations and templates between
// installations as a portable archive.
package transfer

import (
	"time"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/service"
)

// ArchiveVersion is the current version of the archive format.
const ArchiveVersion = "1.0"

// Archive is the complete export structure. Publication history rows
// carry frozen snapshots and travel with their page when requested.
type Archive struct {
	Version    string             `json:"version"`
	ExportedAt time.Time          `json:"exported_at"`
	Source     ArchiveSource      `json:"source"`
	Pages      []ExportedPage     `json:"pages,omitempty"`
	Templates  []service.Template `json:"templates,omitempty"`
}

// ArchiveSource identifies the exporting installation.
type ArchiveSource struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

// ExportedPage is a page configuration with its optional publication
// history.
type ExportedPage struct {
	Config       *model.PageConfig          `json:"config"`
	Publications []*model.PublicationRecord `json:"publications,omitempty"`
}

// ExportOptions configures what to include in the export.
type ExportOptions struct {
	IncludePages        bool   `json:"include_pages"`
	IncludeTemplates    bool   `json:"include_templates"`
	IncludePublications bool   `json:"include_publications"`
	PageStatus          string `json:"page_status,omitempty"` // "", "draft", "published", "archived"
}

// DefaultExportOptions includes pages and templates but not the
// publication history.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		IncludePages:     true,
		IncludeTemplates: true,
	}
}

// ConflictStrategy decides what happens when an archive entity already
// exists in the target installation.
type ConflictStrategy string

// Conflict strategies
const (
	ConflictSkip    ConflictStrategy = "skip"
	ConflictReplace ConflictStrategy = "replace"
)

// ImportOptions configures an import run.
type ImportOptions struct {
	DryRun           bool             `json:"dry_run"`
	ConflictStrategy ConflictStrategy `json:"conflict_strategy"`
	ImportPages      bool             `json:"import_pages"`
	ImportTemplates  bool             `json:"import_templates"`
	Actor            string           `json:"actor,omitempty"`
}

// DefaultImportOptions imports everything, skipping existing entities.
func DefaultImportOptions() ImportOptions {
	return ImportOptions{
		ConflictStrategy: ConflictSkip,
		ImportPages:      true,
		ImportTemplates:  true,
	}
}

// ImportError describes one entity that could not be imported.
type ImportError struct {
	Entity  string `json:"entity"`
	ID      string `json:"id,omitempty"`
	Message string `json:"message"`
}

// ImportResult summarizes an import run per entity kind.
type ImportResult struct {
	DryRun   bool           `json:"dry_run"`
	Imported map[string]int `json:"imported"`
	Skipped  map[string]int `json:"skipped"`
	Replaced map[string]int `json:"replaced"`
	Errors   []ImportError  `json:"errors,omitempty"`
}

// NewImportResult creates an empty result.
func NewImportResult(dryRun bool) *ImportResult {
	return &ImportResult{
		DryRun:   dryRun,
		Imported: make(map[string]int),
		Skipped:  make(map[string]int),
		Replaced: make(map[string]int),
	}
}

// AddError records a per-entity failure without aborting the run.
func (r *ImportResult) AddError(entity, id, message string) {
	r.Errors = append(r.Errors, ImportError{Entity: entity, ID: id, Message: message})
}
