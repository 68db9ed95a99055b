// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"archive/zip"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/service"
	"github.com/pageforge/pageforge/internal/store"
)

// ArchiveFileName is the archive document inside a zip export.
const ArchiveFileName = "archive.json"

// exportBatchSize bounds a single listing query during export.
const exportBatchSize = 500

// Exporter assembles portable archives from the live store.
type Exporter struct {
	queries *store.Queries
	logger  *slog.Logger
	source  ArchiveSource
}

// NewExporter creates an Exporter. The source identifies this
// installation in the archive metadata.
func NewExporter(db *sql.DB, logger *slog.Logger, source ArchiveSource) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		queries: store.New(db),
		logger:  logger,
		source:  source,
	}
}

// Export assembles an archive according to the options. Pages that fail
// to decode are logged and left out rather than failing the whole run.
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) (*Archive, error) {
	archive := &Archive{
		Version:    ArchiveVersion,
		ExportedAt: time.Now().UTC(),
		Source:     e.source,
	}

	if opts.IncludePages {
		if err := e.exportPages(ctx, archive, opts); err != nil {
			return nil, err
		}
	}
	if opts.IncludeTemplates {
		if err := e.exportTemplates(ctx, archive); err != nil {
			return nil, err
		}
	}

	e.logger.Info("export assembled",
		"pages", len(archive.Pages), "templates", len(archive.Templates))
	return archive, nil
}

// ExportToWriter writes the archive as indented JSON.
func (e *Exporter) ExportToWriter(ctx context.Context, opts ExportOptions, w io.Writer) error {
	archive, err := e.Export(ctx, opts)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(archive)
}

// WriteZip writes the archive as a zip containing archive.json.
func (e *Exporter) WriteZip(ctx context.Context, opts ExportOptions, w io.Writer) error {
	archive, err := e.Export(ctx, opts)
	if err != nil {
		return err
	}

	zw := zip.NewWriter(w)
	entry, err := zw.Create(ArchiveFileName)
	if err != nil {
		return fmt.Errorf("creating zip entry: %w", err)
	}
	enc := json.NewEncoder(entry)
	enc.SetIndent("", "  ")
	if err := enc.Encode(archive); err != nil {
		return fmt.Errorf("encoding archive: %w", err)
	}
	return zw.Close()
}

func (e *Exporter) exportPages(ctx context.Context, archive *Archive, opts ExportOptions) error {
	filter := store.PageFilter{Status: opts.PageStatus}

	for offset := int64(0); ; offset += exportBatchSize {
		summaries, err := e.queries.ListPages(ctx, store.ListPagesParams{
			Filter: filter,
			Limit:  exportBatchSize,
			Offset: offset,
		})
		if err != nil {
			return fmt.Errorf("listing pages: %w", err)
		}
		if len(summaries) == 0 {
			return nil
		}

		for _, sum := range summaries {
			row, err := e.queries.GetPage(ctx, sum.ID)
			if err != nil {
				e.logger.Warn("skipping unreadable page", "page_id", sum.ID, "error", err)
				continue
			}
			var cfg model.PageConfig
			if err := json.Unmarshal([]byte(row.Config), &cfg); err != nil {
				e.logger.Warn("skipping undecodable page", "page_id", sum.ID, "error", err)
				continue
			}

			page := ExportedPage{Config: &cfg}
			if opts.IncludePublications {
				pubs, err := e.exportPublications(ctx, sum.ID)
				if err != nil {
					e.logger.Warn("skipping publication history", "page_id", sum.ID, "error", err)
				} else {
					page.Publications = pubs
				}
			}
			archive.Pages = append(archive.Pages, page)
		}

		if len(summaries) < exportBatchSize {
			return nil
		}
	}
}

func (e *Exporter) exportPublications(ctx context.Context, pageID string) ([]*model.PublicationRecord, error) {
	rows, err := e.queries.ListPublicationsByPage(ctx, pageID)
	if err != nil {
		return nil, err
	}
	out := make([]*model.PublicationRecord, 0, len(rows))
	for _, row := range rows {
		var snap model.PageConfig
		if err := json.Unmarshal([]byte(row.Snapshot), &snap); err != nil {
			return nil, fmt.Errorf("decoding snapshot %s: %w", row.ID, err)
		}
		out = append(out, &model.PublicationRecord{
			ID:          row.ID,
			PageID:      row.PageID,
			Version:     row.Version,
			Snapshot:    &snap,
			Status:      row.Status,
			PublishedBy: row.PublishedBy,
			PublishedAt: row.PublishedAt,
		})
	}
	return out, nil
}

func (e *Exporter) exportTemplates(ctx context.Context, archive *Archive) error {
	rows, err := e.queries.ListTemplates(ctx, "")
	if err != nil {
		return fmt.Errorf("listing templates: %w", err)
	}
	for _, row := range rows {
		var c model.Component
		if err := json.Unmarshal([]byte(row.Component), &c); err != nil {
			e.logger.Warn("skipping undecodable template", "template_id", row.ID, "error", err)
			continue
		}
		archive.Templates = append(archive.Templates, service.Template{
			ID:          row.ID,
			Name:        row.Name,
			Category:    row.Category,
			Description: row.Description,
			Component:   c,
			CreatedBy:   row.CreatedBy,
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return nil
}
