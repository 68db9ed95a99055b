// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pageforge/pageforge/internal/cache"
	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/render"
	"github.com/pageforge/pageforge/internal/schema"
	"github.com/pageforge/pageforge/internal/store"
)

// PublicationService manages the publish lifecycle: immutable snapshots,
// the single-active invariant, preview rendering and history restore.
type PublicationService struct {
	db        *sql.DB
	queries   *store.Queries
	renderer  *render.Renderer
	validate  *schema.Validator
	snapshots *cache.TypedCache[model.PublicationRecord]
	notifier  Notifier
	timeout   time.Duration
}

// NewPublicationService creates a PublicationService. The cache is
// optional; when present, active publication snapshots are served from
// it and invalidated on every state change.
func NewPublicationService(db *sql.DB, registry *schema.Registry, renderer *render.Renderer, c cache.Cache) *PublicationService {
	s := &PublicationService{
		db:       db,
		queries:  store.New(db),
		renderer: renderer,
		validate: schema.NewValidator(registry),
		timeout:  defaultTimeout,
	}
	if c != nil {
		s.snapshots = cache.NewTypedCache[model.PublicationRecord](c, 0)
	}
	return s
}

// WithNotifier attaches a change-event notifier.
func (s *PublicationService) WithNotifier(n Notifier) *PublicationService {
	s.notifier = n
	return s
}

func activeSnapshotKey(pageID string) string {
	return "pub:active:" + pageID
}

// Publish freezes the current draft config into a new active
// publication. Any prior active record is flipped to replaced in the
// same transaction, so the single-active invariant holds at every
// commit point. The page itself moves to published and its version is
// bumped.
func (s *PublicationService) Publish(ctx context.Context, pageID, actor string, meta model.RequestMeta) (*model.PublicationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, model.NewPersistenceError("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()
	q := s.queries.WithTx(tx)

	row, err := q.GetPage(ctx, pageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.NewNotFoundError("page", pageID)
		}
		return nil, model.NewPersistenceError("loading page", err)
	}
	before, err := decodeConfig(row.Config)
	if err != nil {
		return nil, err
	}
	if before.Status != model.PageStatusDraft {
		return nil, model.NewStateConflictError(
			"page %s has status %s, only drafts can be published", pageID, before.Status)
	}

	if res := s.validateConfig(before); !res.Valid {
		return nil, model.NewValidationError("config is not publishable: %s", strings.Join(res.Errors, "; "))
	}

	now := time.Now().UTC()
	after := before.Clone()
	after.Status = model.PageStatusPublished
	after.Version = before.Version + 1
	after.ScheduledAt = nil
	after.UpdatedAt = now

	snapshot, err := encodeConfig(after)
	if err != nil {
		return nil, err
	}

	if err := q.ReplaceActivePublications(ctx, pageID); err != nil {
		return nil, model.NewPersistenceError("replacing active publication", err)
	}
	pub, err := q.CreatePublication(ctx, store.CreatePublicationParams{
		ID:          uuid.NewString(),
		PageID:      pageID,
		Version:     after.Version,
		Snapshot:    snapshot,
		Status:      model.PublicationStatusActive,
		PublishedBy: actor,
		PublishedAt: now,
	})
	if err != nil {
		return nil, model.NewPersistenceError("creating publication", err)
	}
	if err := q.UpdatePage(ctx, store.UpdatePageParams{
		ID:        after.ID,
		Name:      after.Name,
		Status:    after.Status,
		Version:   after.Version,
		Config:    snapshot,
		UpdatedAt: after.UpdatedAt,
	}); err != nil {
		return nil, model.NewPersistenceError("updating page", err)
	}
	if err := record(ctx, q, model.ActionPublish, pageID, before, after, actor, meta); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, model.NewPersistenceError("committing publish", err)
	}

	out := publicationFromRow(pub, after)
	s.invalidate(ctx, pageID)
	if s.notifier != nil {
		s.notifier.Notify(EventPagePublished, out)
	}
	return out, nil
}

// Preview validates and renders a supplied config into a full document
// without touching persistent state. The config may be unsaved.
func (s *PublicationService) Preview(cfg *model.PageConfig, rctx render.Context) (render.Document, error) {
	if res := s.validateConfig(cfg); !res.Valid {
		return render.Document{}, model.NewValidationError("config is not renderable: %s", strings.Join(res.Errors, "; "))
	}
	rctx.IsPreview = true
	rctx.PageID = cfg.ID
	return s.renderer.RenderPage(cfg, rctx), nil
}

// GetPublications returns a page's publication history, newest first.
func (s *PublicationService) GetPublications(ctx context.Context, pageID string) ([]*model.PublicationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.queries.ListPublicationsByPage(ctx, pageID)
	if err != nil {
		return nil, model.NewPersistenceError("listing publications", err)
	}
	out := make([]*model.PublicationRecord, 0, len(rows))
	for _, row := range rows {
		snap, err := decodeConfig(row.Snapshot)
		if err != nil {
			return nil, err
		}
		out = append(out, publicationFromRow(row, snap))
	}
	return out, nil
}

// GetActive returns the live publication record for a page, or a
// NotFoundError if nothing is published. Snapshots are served from the
// cache when one is configured.
func (s *PublicationService) GetActive(ctx context.Context, pageID string) (*model.PublicationRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.snapshots != nil {
		if rec, ok := s.snapshots.Get(ctx, activeSnapshotKey(pageID)); ok {
			return rec, nil
		}
	}

	row, err := s.queries.GetActivePublication(ctx, pageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.NewNotFoundError("active publication for page", pageID)
		}
		return nil, model.NewPersistenceError("loading active publication", err)
	}
	snap, err := decodeConfig(row.Snapshot)
	if err != nil {
		return nil, err
	}
	rec := publicationFromRow(row, snap)

	if s.snapshots != nil {
		if err := s.snapshots.Set(ctx, activeSnapshotKey(pageID), rec); err != nil {
			slog.Warn("caching active publication failed", "page_id", pageID, "error", err)
		}
	}
	return rec, nil
}

// Restore copies a historical publication snapshot back into the page's
// draft config. The page returns to draft with a bumped version; the
// publication history itself is untouched.
func (s *PublicationService) Restore(ctx context.Context, pageID, publicationID, actor string, meta model.RequestMeta) (*model.PageConfig, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, model.NewPersistenceError("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()
	q := s.queries.WithTx(tx)

	row, err := q.GetPage(ctx, pageID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.NewNotFoundError("page", pageID)
		}
		return nil, model.NewPersistenceError("loading page", err)
	}
	before, err := decodeConfig(row.Config)
	if err != nil {
		return nil, err
	}

	pub, err := q.GetPublication(ctx, publicationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.NewNotFoundError("publication", publicationID)
		}
		return nil, model.NewPersistenceError("loading publication", err)
	}
	if pub.PageID != pageID {
		return nil, model.NewValidationError("publication %s does not belong to page %s", publicationID, pageID)
	}

	after, err := decodeConfig(pub.Snapshot)
	if err != nil {
		return nil, err
	}
	// Identity and lineage stay with the live page, only content is
	// restored.
	after.ID = before.ID
	after.Slug = before.Slug
	after.Status = model.PageStatusDraft
	after.Version = before.Version + 1
	after.CreatedAt = before.CreatedAt
	after.UpdatedAt = time.Now().UTC()

	raw, err := encodeConfig(after)
	if err != nil {
		return nil, err
	}
	if err := q.UpdatePage(ctx, store.UpdatePageParams{
		ID:        after.ID,
		Name:      after.Name,
		Status:    after.Status,
		Version:   after.Version,
		Config:    raw,
		UpdatedAt: after.UpdatedAt,
	}); err != nil {
		return nil, model.NewPersistenceError("updating page", err)
	}
	if err := record(ctx, q, model.ActionRestore, pageID, before, after, actor, meta); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, model.NewPersistenceError("committing restore", err)
	}

	s.invalidate(ctx, pageID)
	if s.notifier != nil {
		s.notifier.Notify(EventPageUpdated, after)
	}
	return after, nil
}

// Invalidate drops the cached active snapshot for a page. Called by the
// page service on delete so a removed page stops serving from cache.
func (s *PublicationService) Invalidate(ctx context.Context, pageID string) {
	s.invalidate(ctx, pageID)
}

func (s *PublicationService) invalidate(ctx context.Context, pageID string) {
	if s.snapshots == nil {
		return
	}
	if err := s.snapshots.Delete(ctx, activeSnapshotKey(pageID)); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		slog.Warn("invalidating publication cache failed", "page_id", pageID, "error", err)
	}
}

func (s *PublicationService) validateConfig(cfg *model.PageConfig) schema.Result {
	var errs []string
	if !cfg.ComponentIDsUnique() {
		errs = append(errs, "component ids must be unique within a page")
	}
	for _, areaID := range sortedAreas(cfg.DIYAreas) {
		res := s.validate.ValidateTree(cfg.DIYAreas[areaID].Components)
		for _, e := range res.Errors {
			errs = append(errs, areaID+": "+e)
		}
	}
	return schema.Result{Valid: len(errs) == 0, Errors: errs}
}

func publicationFromRow(row store.Publication, snapshot *model.PageConfig) *model.PublicationRecord {
	return &model.PublicationRecord{
		ID:          row.ID,
		PageID:      row.PageID,
		Version:     row.Version,
		Snapshot:    snapshot,
		Status:      row.Status,
		PublishedBy: row.PublishedBy,
		PublishedAt: row.PublishedAt,
	}
}
