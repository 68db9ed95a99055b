// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pageforge/pageforge/internal/merge"
	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/schema"
	"github.com/pageforge/pageforge/internal/store"
	"github.com/pageforge/pageforge/internal/util"
)

// Notify event types fired on configuration changes.
const (
	EventPageCreated   = "page.created"
	EventPageUpdated   = "page.updated"
	EventPageDeleted   = "page.deleted"
	EventPagePublished = "page.published"
)

// Notifier receives change events for out-of-process delivery. A nil
// notifier is a no-op.
type Notifier interface {
	Notify(event string, data any)
}

// Invalidator drops cached state for a page after a destructive write.
// The publication service implements it for its snapshot cache.
type Invalidator interface {
	Invalidate(ctx context.Context, pageID string)
}

// defaultTimeout bounds every persistence operation so a wedged
// database surfaces as a retryable error instead of a hang.
const defaultTimeout = 5 * time.Second

// PageService implements CRUD and versioning over page configurations.
// All operations are stateless and request-scoped; writes run inside a
// single transaction together with their operation-log entry.
type PageService struct {
	db          *sql.DB
	queries     *store.Queries
	validate    *schema.Validator
	notifier    Notifier
	invalidator Invalidator
	timeout     time.Duration
}

// NewPageService creates a PageService over the given database and
// component registry.
func NewPageService(db *sql.DB, registry *schema.Registry) *PageService {
	return &PageService{
		db:       db,
		queries:  store.New(db),
		validate: schema.NewValidator(registry),
		timeout:  defaultTimeout,
	}
}

// WithNotifier attaches a change-event notifier.
func (s *PageService) WithNotifier(n Notifier) *PageService {
	s.notifier = n
	return s
}

// WithInvalidator attaches a cache invalidator consulted on delete.
func (s *PageService) WithInvalidator(inv Invalidator) *PageService {
	s.invalidator = inv
	return s
}

func (s *PageService) notify(event string, data any) {
	if s.notifier != nil {
		s.notifier.Notify(event, data)
	}
}

func (s *PageService) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// CreatePageParams describes a page creation request.
type CreatePageParams struct {
	Name        string
	PageType    string
	Initial     map[string]any
	ScheduledAt *time.Time
	Actor       string
	Meta        model.RequestMeta
}

// Create builds a new draft page at version 1 by deep-merging the
// caller-supplied initial config over the page type's default scaffold.
func (s *PageService) Create(ctx context.Context, params CreatePageParams) (*model.PageConfig, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, model.NewValidationError("page name is required")
	}
	if !model.ValidPageType(params.PageType) {
		return nil, model.NewValidationError("unknown page type: %s", params.PageType)
	}

	merged := merge.Deep(defaultConfig(params.PageType), stripProtected(params.Initial))
	cfg, err := mapToConfig(merged)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	cfg.ID = uuid.NewString()
	cfg.Name = params.Name
	cfg.Slug = util.Slugify(params.Name)
	cfg.PageType = params.PageType
	cfg.Status = model.PageStatusDraft
	cfg.Version = 1
	cfg.Author = params.Actor
	cfg.ScheduledAt = params.ScheduledAt
	cfg.CreatedAt = now
	cfg.UpdatedAt = now

	if err := s.validateComponents(cfg); err != nil {
		return nil, err
	}

	raw, err := encodeConfig(cfg)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, model.NewPersistenceError("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	q := s.queries.WithTx(tx)
	if _, err := q.CreatePage(ctx, store.CreatePageParams{
		ID:          cfg.ID,
		Name:        cfg.Name,
		Slug:        cfg.Slug,
		PageType:    cfg.PageType,
		Status:      cfg.Status,
		Version:     cfg.Version,
		Config:      raw,
		Author:      cfg.Author,
		ScheduledAt: util.NullTimeFromPtr(cfg.ScheduledAt),
		CreatedAt:   cfg.CreatedAt,
		UpdatedAt:   cfg.UpdatedAt,
	}); err != nil {
		return nil, model.NewPersistenceError("creating page", err)
	}
	if err := record(ctx, q, model.ActionCreate, cfg.ID, nil, cfg, params.Actor, params.Meta); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, model.NewPersistenceError("committing page create", err)
	}

	s.notify(EventPageCreated, cfg)
	return cfg, nil
}

// Get returns a page configuration by id.
func (s *PageService) Get(ctx context.Context, id string) (*model.PageConfig, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	row, err := s.queries.GetPage(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.NewNotFoundError("page", id)
		}
		return nil, model.NewPersistenceError("loading page", err)
	}
	return decodeConfig(row.Config)
}

// UpdateOptions modifies update behavior.
type UpdateOptions struct {
	// ExpectedVersion, when non-nil, enables optimistic concurrency:
	// the update is rejected with a StateConflictError if the stored
	// version differs. When nil, concurrent edits are last-writer-wins
	// at the merged-field level.
	ExpectedVersion *int64
	Actor           string
	Meta            model.RequestMeta
}

// Update deep-merges a partial config into the page and bumps the
// version by exactly 1. Untouched areas are left intact; at every leaf
// the incoming value wins. Engine-managed fields in the patch are
// ignored.
func (s *PageService) Update(ctx context.Context, id string, patch map[string]any, opts UpdateOptions) (*model.PageConfig, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, model.NewPersistenceError("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()
	q := s.queries.WithTx(tx)

	row, err := q.GetPage(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.NewNotFoundError("page", id)
		}
		return nil, model.NewPersistenceError("loading page", err)
	}
	before, err := decodeConfig(row.Config)
	if err != nil {
		return nil, err
	}

	if opts.ExpectedVersion != nil && *opts.ExpectedVersion != before.Version {
		return nil, model.NewStateConflictError(
			"page %s is at version %d, expected %d", id, before.Version, *opts.ExpectedVersion)
	}

	baseMap, err := configToMap(before)
	if err != nil {
		return nil, err
	}
	after, err := mapToConfig(merge.Deep(baseMap, stripProtected(patch)))
	if err != nil {
		return nil, err
	}

	after.Version = before.Version + 1
	after.UpdatedAt = time.Now().UTC()
	// Edits to a published page move it back to draft; the active
	// publication keeps serving the old snapshot until republish.
	if before.Status == model.PageStatusPublished {
		after.Status = model.PageStatusDraft
	}
	if err := s.validateComponents(after); err != nil {
		return nil, err
	}

	raw, err := encodeConfig(after)
	if err != nil {
		return nil, err
	}
	if err := q.UpdatePage(ctx, store.UpdatePageParams{
		ID:          after.ID,
		Name:        after.Name,
		Status:      after.Status,
		Version:     after.Version,
		Config:      raw,
		ScheduledAt: util.NullTimeFromPtr(after.ScheduledAt),
		UpdatedAt:   after.UpdatedAt,
	}); err != nil {
		return nil, model.NewPersistenceError("updating page", err)
	}
	if err := record(ctx, q, model.ActionUpdate, after.ID, before, after, opts.Actor, opts.Meta); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, model.NewPersistenceError("committing page update", err)
	}

	s.notify(EventPageUpdated, after)
	return after, nil
}

// Delete hard-deletes the page record. Publication history and
// operation log entries are retained for audit.
func (s *PageService) Delete(ctx context.Context, id, actor string, meta model.RequestMeta) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.NewPersistenceError("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()
	q := s.queries.WithTx(tx)

	row, err := q.GetPage(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.NewNotFoundError("page", id)
		}
		return model.NewPersistenceError("loading page", err)
	}
	before, err := decodeConfig(row.Config)
	if err != nil {
		return err
	}

	if err := q.DeletePage(ctx, id); err != nil {
		return model.NewPersistenceError("deleting page", err)
	}
	if err := record(ctx, q, model.ActionDelete, id, before, nil, actor, meta); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return model.NewPersistenceError("committing page delete", err)
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, id)
	}
	s.notify(EventPageDeleted, before)
	return nil
}

// Copy clones a page's full config into a new draft at version 1. All
// fields other than id, name, slug, version, status and timestamps are
// deep-equal to the source.
func (s *PageService) Copy(ctx context.Context, id, newName, actor string, meta model.RequestMeta) (*model.PageConfig, error) {
	if strings.TrimSpace(newName) == "" {
		return nil, model.NewValidationError("page name is required")
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, model.NewPersistenceError("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()
	q := s.queries.WithTx(tx)

	row, err := q.GetPage(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.NewNotFoundError("page", id)
		}
		return nil, model.NewPersistenceError("loading page", err)
	}

	// Fresh decode so the clone shares no state with the source.
	clone, err := decodeConfig(row.Config)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	clone.ID = uuid.NewString()
	clone.Name = newName
	clone.Slug = util.Slugify(newName)
	clone.Status = model.PageStatusDraft
	clone.Version = 1
	clone.Author = actor
	clone.ScheduledAt = nil
	clone.CreatedAt = now
	clone.UpdatedAt = now

	raw, err := encodeConfig(clone)
	if err != nil {
		return nil, err
	}
	if _, err := q.CreatePage(ctx, store.CreatePageParams{
		ID:        clone.ID,
		Name:      clone.Name,
		Slug:      clone.Slug,
		PageType:  clone.PageType,
		Status:    clone.Status,
		Version:   clone.Version,
		Config:    raw,
		Author:    clone.Author,
		CreatedAt: clone.CreatedAt,
		UpdatedAt: clone.UpdatedAt,
	}); err != nil {
		return nil, model.NewPersistenceError("creating page copy", err)
	}
	if err := record(ctx, q, model.ActionCopy, clone.ID, nil, clone, actor, meta); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, model.NewPersistenceError("committing page copy", err)
	}

	s.notify(EventPageCreated, clone)
	return clone, nil
}

// ListParams narrows and paginates page listings.
type ListParams struct {
	Status        string
	PageType      string
	Author        string
	NameQuery     string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Page          int64
	PerPage       int64
}

// PageListItem is a page without its config payload, as returned from
// listings.
type PageListItem struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	PageType  string    `json:"page_type"`
	Status    string    `json:"status"`
	Version   int64     `json:"version"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// List returns pages matching the filters, most recently updated
// first. Config payloads are omitted for performance.
func (s *PageService) List(ctx context.Context, params ListParams) ([]PageListItem, int64, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 || params.PerPage > 100 {
		params.PerPage = 20
	}

	filter := store.PageFilter{
		Status:        params.Status,
		PageType:      params.PageType,
		Author:        params.Author,
		NameQuery:     params.NameQuery,
		CreatedAfter:  util.NullTimeFromPtr(params.CreatedAfter),
		CreatedBefore: util.NullTimeFromPtr(params.CreatedBefore),
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	rows, err := s.queries.ListPages(ctx, store.ListPagesParams{
		Filter: filter,
		Limit:  params.PerPage,
		Offset: (params.Page - 1) * params.PerPage,
	})
	if err != nil {
		return nil, 0, model.NewPersistenceError("listing pages", err)
	}
	total, err := s.queries.CountPages(ctx, filter)
	if err != nil {
		return nil, 0, model.NewPersistenceError("counting pages", err)
	}

	out := make([]PageListItem, 0, len(rows))
	for _, row := range rows {
		out = append(out, PageListItem{
			ID:        row.ID,
			Name:      row.Name,
			Slug:      row.Slug,
			PageType:  row.PageType,
			Status:    row.Status,
			Version:   row.Version,
			Author:    row.Author,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
		})
	}
	return out, total, nil
}

// DisableExpiredPromotions turns off promotions whose time window has
// ended. Each changed page gets a version bump and an operation log
// entry attributed to the given actor. Returns the ids of changed pages.
func (s *PageService) DisableExpiredPromotions(ctx context.Context, actor string) ([]string, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	summaries, err := s.queries.ListPages(ctx, store.ListPagesParams{Limit: 1000})
	if err != nil {
		return nil, model.NewPersistenceError("listing pages", err)
	}

	now := time.Now().UTC()
	var changed []string
	for _, sum := range summaries {
		ok, err := s.disableExpiredFor(ctx, sum.ID, now, actor)
		if err != nil {
			return changed, err
		}
		if ok {
			changed = append(changed, sum.ID)
		}
	}
	return changed, nil
}

// disableExpiredFor flips expired promotions off for one page. The
// page's status is deliberately untouched: this is maintenance, not an
// edit, so a published page stays published.
func (s *PageService) disableExpiredFor(ctx context.Context, id string, now time.Time, actor string) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, model.NewPersistenceError("beginning transaction", err)
	}
	defer func() { _ = tx.Rollback() }()
	q := s.queries.WithTx(tx)

	row, err := q.GetPage(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, model.NewPersistenceError("loading page", err)
	}
	before, err := decodeConfig(row.Config)
	if err != nil {
		return false, err
	}

	after := before.Clone()
	dirty := false
	for slot, promo := range after.Promotions {
		if promo.Enabled && promo.Expired(now) {
			promo.Enabled = false
			after.Promotions[slot] = promo
			dirty = true
		}
	}
	if !dirty {
		return false, nil
	}

	after.Version = before.Version + 1
	after.UpdatedAt = now

	raw, err := encodeConfig(after)
	if err != nil {
		return false, err
	}
	if err := q.UpdatePage(ctx, store.UpdatePageParams{
		ID:          after.ID,
		Name:        after.Name,
		Status:      after.Status,
		Version:     after.Version,
		Config:      raw,
		ScheduledAt: util.NullTimeFromPtr(after.ScheduledAt),
		UpdatedAt:   after.UpdatedAt,
	}); err != nil {
		return false, model.NewPersistenceError("updating page", err)
	}
	if err := record(ctx, q, model.ActionUpdate, after.ID, before, after, actor, model.RequestMeta{Origin: "scheduler"}); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, model.NewPersistenceError("committing promotion update", err)
	}

	s.notify(EventPageUpdated, after)
	return true, nil
}

// validateComponents checks every component tree in the config against
// the registry, including the tree-level unique-id invariant.
func (s *PageService) validateComponents(cfg *model.PageConfig) error {
	if !cfg.ComponentIDsUnique() {
		return model.NewValidationError("component ids must be unique within a page")
	}
	for _, areaID := range sortedAreas(cfg.DIYAreas) {
		area := cfg.DIYAreas[areaID]
		res := s.validate.ValidateTree(area.Components)
		if !res.Valid {
			return model.NewValidationError("area %s: %s", areaID, strings.Join(res.Errors, "; "))
		}
	}
	return nil
}

func sortedAreas(areas map[string]model.DIYArea) []string {
	ids := make([]string, 0, len(areas))
	for id := range areas {
		ids = append(ids, id)
	}
	// Deterministic validation error ordering.
	sort.Strings(ids)
	return ids
}

