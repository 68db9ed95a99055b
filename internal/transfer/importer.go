// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"archive/zip"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/schema"
	"github.com/pageforge/pageforge/internal/store"
)

// maxArchiveSize bounds the decoded archive document. Larger uploads
// are rejected before any row is touched.
const maxArchiveSize = 32 << 20

// Importer applies portable archives to the live store.
type Importer struct {
	db       *sql.DB
	queries  *store.Queries
	validate *schema.Validator
	logger   *slog.Logger
}

// NewImporter creates an Importer validating against the given registry.
func NewImporter(db *sql.DB, registry *schema.Registry, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{
		db:       db,
		queries:  store.New(db),
		validate: schema.NewValidator(registry),
		logger:   logger,
	}
}

// Validate checks an archive's shape without touching the store.
func (i *Importer) Validate(archive *Archive) []ImportError {
	var errs []ImportError

	if archive.Version != ArchiveVersion {
		errs = append(errs, ImportError{
			Entity:  "archive",
			Message: fmt.Sprintf("unsupported archive version %q, want %s", archive.Version, ArchiveVersion),
		})
		return errs
	}

	for _, page := range archive.Pages {
		cfg := page.Config
		if cfg == nil {
			errs = append(errs, ImportError{Entity: "page", Message: "page entry has no config"})
			continue
		}
		if cfg.ID == "" || cfg.Name == "" || cfg.Slug == "" {
			errs = append(errs, ImportError{Entity: "page", ID: cfg.ID, Message: "id, name and slug are required"})
			continue
		}
		if !model.ValidPageType(cfg.PageType) {
			errs = append(errs, ImportError{Entity: "page", ID: cfg.ID, Message: "unknown page type: " + cfg.PageType})
			continue
		}
		for areaID, area := range cfg.DIYAreas {
			if res := i.validate.ValidateTree(area.Components); !res.Valid {
				errs = append(errs, ImportError{
					Entity:  "page",
					ID:      cfg.ID,
					Message: fmt.Sprintf("area %s: %s", areaID, strings.Join(res.Errors, "; ")),
				})
			}
		}
	}

	for _, tpl := range archive.Templates {
		if tpl.ID == "" || tpl.Name == "" {
			errs = append(errs, ImportError{Entity: "template", ID: tpl.ID, Message: "id and name are required"})
			continue
		}
		if res := i.validate.ValidateTree([]model.Component{tpl.Component}); !res.Valid {
			errs = append(errs, ImportError{
				Entity:  "template",
				ID:      tpl.ID,
				Message: strings.Join(res.Errors, "; "),
			})
		}
	}

	return errs
}

// Import applies the archive. The whole run is one transaction; dry
// runs validate and report counts without writing.
func (i *Importer) Import(ctx context.Context, archive *Archive, opts ImportOptions) (*ImportResult, error) {
	result := NewImportResult(opts.DryRun)

	if errs := i.Validate(archive); len(errs) > 0 {
		result.Errors = errs
		return result, model.NewValidationError("archive failed validation with %d error(s)", len(errs))
	}
	if opts.ConflictStrategy == "" {
		opts.ConflictStrategy = ConflictSkip
	}

	if opts.DryRun {
		i.dryRunCount(ctx, archive, opts, result)
		return result, nil
	}

	tx, err := i.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, model.NewPersistenceError("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()
	q := i.queries.WithTx(tx)

	if opts.ImportPages {
		i.importPages(ctx, q, archive.Pages, opts, result)
	}
	if opts.ImportTemplates {
		i.importTemplates(ctx, q, archive, opts, result)
	}

	if err := tx.Commit(); err != nil {
		return nil, model.NewPersistenceError("committing import", err)
	}

	i.logger.Info("import applied",
		"pages", result.Imported["pages"],
		"templates", result.Imported["templates"],
		"skipped", len(result.Skipped),
		"errors", len(result.Errors))
	return result, nil
}

// dryRunCount reports what a real run would do, conflicts included.
func (i *Importer) dryRunCount(ctx context.Context, archive *Archive, opts ImportOptions, result *ImportResult) {
	if opts.ImportPages {
		for _, page := range archive.Pages {
			if _, err := i.queries.GetPageBySlug(ctx, page.Config.Slug); err == nil {
				if opts.ConflictStrategy == ConflictReplace {
					result.Replaced["pages"]++
				} else {
					result.Skipped["pages"]++
				}
				continue
			}
			result.Imported["pages"]++
		}
	}
	if opts.ImportTemplates {
		for _, tpl := range archive.Templates {
			if _, err := i.queries.GetTemplate(ctx, tpl.ID); err == nil {
				if opts.ConflictStrategy == ConflictReplace {
					result.Replaced["templates"]++
				} else {
					result.Skipped["templates"]++
				}
				continue
			}
			result.Imported["templates"]++
		}
	}
}

func (i *Importer) importPages(ctx context.Context, q *store.Queries, pages []ExportedPage, opts ImportOptions, result *ImportResult) {
	now := time.Now().UTC()

	for _, page := range pages {
		cfg := *page.Config

		existing, err := q.GetPageBySlug(ctx, cfg.Slug)
		switch {
		case err == nil:
			if opts.ConflictStrategy == ConflictSkip {
				result.Skipped["pages"]++
				continue
			}
			if replaceErr := i.replacePage(ctx, q, existing, cfg, opts.Actor, now); replaceErr != nil {
				result.AddError("page", cfg.ID, replaceErr.Error())
				continue
			}
			result.Replaced["pages"]++
			continue
		case !errors.Is(err, sql.ErrNoRows):
			result.AddError("page", cfg.ID, err.Error())
			continue
		}

		// Slugs decide identity across installs; a colliding id gets a
		// fresh one.
		if _, err := q.GetPage(ctx, cfg.ID); err == nil {
			cfg.ID = uuid.NewString()
		}
		// Imported pages land as drafts; the publish state does not
		// travel with the archive.
		cfg.Status = model.PageStatusDraft
		cfg.ScheduledAt = nil

		raw, err := json.Marshal(&cfg)
		if err != nil {
			result.AddError("page", cfg.ID, err.Error())
			continue
		}
		if _, err := q.CreatePage(ctx, store.CreatePageParams{
			ID:        cfg.ID,
			Name:      cfg.Name,
			Slug:      cfg.Slug,
			PageType:  cfg.PageType,
			Status:    cfg.Status,
			Version:   cfg.Version,
			Config:    string(raw),
			Author:    cfg.Author,
			CreatedAt: cfg.CreatedAt,
			UpdatedAt: now,
		}); err != nil {
			result.AddError("page", cfg.ID, err.Error())
			continue
		}
		if err := i.recordImport(ctx, q, model.ActionCreate, cfg.ID, nil, &cfg, opts.Actor); err != nil {
			result.AddError("page", cfg.ID, err.Error())
			continue
		}

		i.importPublications(ctx, q, cfg.ID, page.Publications, result)
		result.Imported["pages"]++
	}
}

// replacePage overwrites an existing page's content with the archived
// config. Identity and lineage stay local: the target keeps its id and
// the version continues from the stored one.
func (i *Importer) replacePage(ctx context.Context, q *store.Queries, existing store.Page, incoming model.PageConfig, actor string, now time.Time) error {
	var before model.PageConfig
	if err := json.Unmarshal([]byte(existing.Config), &before); err != nil {
		return fmt.Errorf("decoding existing page: %w", err)
	}

	after := incoming
	after.ID = existing.ID
	after.Slug = existing.Slug
	after.Status = model.PageStatusDraft
	after.Version = existing.Version + 1
	after.ScheduledAt = nil
	after.CreatedAt = existing.CreatedAt
	after.UpdatedAt = now

	raw, err := json.Marshal(&after)
	if err != nil {
		return err
	}
	if err := q.UpdatePage(ctx, store.UpdatePageParams{
		ID:        after.ID,
		Name:      after.Name,
		Status:    after.Status,
		Version:   after.Version,
		Config:    string(raw),
		UpdatedAt: after.UpdatedAt,
	}); err != nil {
		return err
	}
	return i.recordImport(ctx, q, model.ActionUpdate, after.ID, &before, &after, actor)
}

// importPublications copies archived history rows under a freshly
// created page. Statuses are demoted to inactive: the live pointer does
// not travel, only the history.
func (i *Importer) importPublications(ctx context.Context, q *store.Queries, pageID string, pubs []*model.PublicationRecord, result *ImportResult) {
	for _, pub := range pubs {
		if pub.Snapshot == nil {
			continue
		}
		snap, err := json.Marshal(pub.Snapshot)
		if err != nil {
			result.AddError("publication", pub.ID, err.Error())
			continue
		}
		id := pub.ID
		if _, err := q.GetPublication(ctx, id); err == nil {
			id = uuid.NewString()
		}
		if _, err := q.CreatePublication(ctx, store.CreatePublicationParams{
			ID:          id,
			PageID:      pageID,
			Version:     pub.Version,
			Snapshot:    string(snap),
			Status:      model.PublicationStatusInactive,
			PublishedBy: pub.PublishedBy,
			PublishedAt: pub.PublishedAt,
		}); err != nil {
			result.AddError("publication", pub.ID, err.Error())
			continue
		}
		result.Imported["publications"]++
	}
}

func (i *Importer) importTemplates(ctx context.Context, q *store.Queries, archive *Archive, opts ImportOptions, result *ImportResult) {
	now := time.Now().UTC()

	for _, tpl := range archive.Templates {
		raw, err := json.Marshal(tpl.Component)
		if err != nil {
			result.AddError("template", tpl.ID, err.Error())
			continue
		}

		_, err = q.GetTemplate(ctx, tpl.ID)
		switch {
		case err == nil:
			if opts.ConflictStrategy == ConflictSkip {
				result.Skipped["templates"]++
				continue
			}
			if err := q.UpdateTemplate(ctx, store.UpdateTemplateParams{
				ID:          tpl.ID,
				Name:        tpl.Name,
				Category:    tpl.Category,
				Description: tpl.Description,
				Component:   string(raw),
				UpdatedAt:   now,
			}); err != nil {
				result.AddError("template", tpl.ID, err.Error())
				continue
			}
			result.Replaced["templates"]++
			continue
		case !errors.Is(err, sql.ErrNoRows):
			result.AddError("template", tpl.ID, err.Error())
			continue
		}

		if _, err := q.CreateTemplate(ctx, store.CreateTemplateParams{
			ID:          tpl.ID,
			Name:        tpl.Name,
			Category:    tpl.Category,
			Description: tpl.Description,
			Component:   string(raw),
			CreatedBy:   tpl.CreatedBy,
			CreatedAt:   tpl.CreatedAt,
			UpdatedAt:   now,
		}); err != nil {
			result.AddError("template", tpl.ID, err.Error())
			continue
		}
		result.Imported["templates"]++
	}
}

// recordImport appends an operation log entry attributed to the import.
func (i *Importer) recordImport(ctx context.Context, q *store.Queries, action, pageID string, before, after *model.PageConfig, actor string) error {
	if actor == "" {
		actor = "import"
	}
	params := store.CreateOperationParams{
		Action:    action,
		Actor:     actor,
		Origin:    "import",
		CreatedAt: time.Now().UTC(),
		PageID:    sql.NullString{String: pageID, Valid: true},
	}
	if before != nil {
		raw, err := json.Marshal(before)
		if err != nil {
			return err
		}
		params.BeforeConfig = sql.NullString{String: string(raw), Valid: true}
	}
	if after != nil {
		raw, err := json.Marshal(after)
		if err != nil {
			return err
		}
		params.AfterConfig = sql.NullString{String: string(raw), Valid: true}
	}
	if _, err := q.CreateOperation(ctx, params); err != nil {
		return fmt.Errorf("appending operation log: %w", err)
	}
	return nil
}

// ImportFromReader decodes a JSON archive and imports it.
func (i *Importer) ImportFromReader(ctx context.Context, r io.Reader, opts ImportOptions) (*ImportResult, error) {
	var archive Archive
	if err := json.NewDecoder(io.LimitReader(r, maxArchiveSize)).Decode(&archive); err != nil {
		return nil, model.NewValidationError("parsing archive: %v", err)
	}
	return i.Import(ctx, &archive, opts)
}

// ImportFromZip imports from a zip archive containing archive.json.
func (i *Importer) ImportFromZip(ctx context.Context, zr *zip.Reader, opts ImportOptions) (*ImportResult, error) {
	for _, f := range zr.File {
		if f.Name != ArchiveFileName {
			continue
		}
		if f.UncompressedSize64 > maxArchiveSize {
			return nil, model.NewValidationError("%s exceeds the %d byte limit", ArchiveFileName, maxArchiveSize)
		}
		rc, err := f.Open()
		if err != nil {
			return nil, model.NewValidationError("opening %s: %v", ArchiveFileName, err)
		}
		result, err := i.ImportFromReader(ctx, rc, opts)
		_ = rc.Close()
		return result, err
	}
	return nil, model.NewValidationError("%s not found in zip archive", ArchiveFileName)
}

// ImportFromZipBytes imports from in-memory zip data, as uploaded.
func (i *Importer) ImportFromZipBytes(ctx context.Context, data []byte, opts ImportOptions) (*ImportResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, model.NewValidationError("reading zip data: %v", err)
	}
	return i.ImportFromZip(ctx, zr, opts)
}
