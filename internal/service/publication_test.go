// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pageforge/pageforge/internal/cache"
	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/render"
	"github.com/pageforge/pageforge/internal/schema"
	"github.com/pageforge/pageforge/internal/testutil"
)

func newPublicationServices(t *testing.T, c cache.Cache) (*PageService, *PublicationService, func()) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)

	registry := schema.Default()
	renderer, err := render.New(registry)
	if err != nil {
		cleanup()
		t.Fatalf("render.New: %v", err)
	}
	return NewPageService(db, registry), NewPublicationService(db, registry, renderer, c), cleanup
}

func createDraft(t *testing.T, pages *PageService, name string) *model.PageConfig {
	t.Helper()
	cfg, err := pages.Create(context.Background(), CreatePageParams{
		Name:     name,
		PageType: model.PageTypeHome,
		Initial: map[string]any{
			"diy_areas": map[string]any{
				"main": map[string]any{
					"layout": model.LayoutStack,
					"components": []any{
						map[string]any{"id": "t1", "type": schema.TypeText, "props": map[string]any{"content": "hi"}},
					},
				},
			},
		},
		Actor: "alice",
		Meta:  testMeta(),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return cfg
}

func TestPublish_FreezesSnapshot(t *testing.T) {
	pages, pubs, cleanup := newPublicationServices(t, nil)
	defer cleanup()
	ctx := context.Background()

	cfg := createDraft(t, pages, "Launch")

	rec, err := pubs.Publish(ctx, cfg.ID, "alice", testMeta())
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if rec.Status != model.PublicationStatusActive {
		t.Errorf("publication status = %q, want active", rec.Status)
	}
	if rec.Version != 2 {
		t.Errorf("publication version = %d, want 2", rec.Version)
	}
	if rec.PublishedBy != "alice" {
		t.Errorf("published by = %q, want alice", rec.PublishedBy)
	}
	if rec.Snapshot == nil || rec.Snapshot.Status != model.PageStatusPublished {
		t.Error("snapshot missing or not marked published")
	}

	got, err := pages.Get(ctx, cfg.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != model.PageStatusPublished || got.Version != 2 {
		t.Errorf("page = %s v%d, want published v2", got.Status, got.Version)
	}
}

func TestPublish_OnlyDrafts(t *testing.T) {
	pages, pubs, cleanup := newPublicationServices(t, nil)
	defer cleanup()
	ctx := context.Background()

	cfg := createDraft(t, pages, "Once")
	if _, err := pubs.Publish(ctx, cfg.ID, "alice", testMeta()); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	_, err := pubs.Publish(ctx, cfg.ID, "alice", testMeta())
	if model.CodeOf(err) != model.CodeStateConflict {
		t.Fatalf("second publish err = %v, want state conflict", err)
	}
}

func TestPublish_NotFound(t *testing.T) {
	_, pubs, cleanup := newPublicationServices(t, nil)
	defer cleanup()

	_, err := pubs.Publish(context.Background(), "ghost", "alice", testMeta())
	if model.CodeOf(err) != model.CodeNotFound {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestPublish_SingleActiveInvariant(t *testing.T) {
	pages, pubs, cleanup := newPublicationServices(t, nil)
	defer cleanup()
	ctx := context.Background()

	cfg := createDraft(t, pages, "Iterated")
	if _, err := pubs.Publish(ctx, cfg.ID, "alice", testMeta()); err != nil {
		t.Fatalf("first publish: %v", err)
	}

	// Edit moves the page back to draft, clearing the way to republish.
	if _, err := pages.Update(ctx, cfg.ID, map[string]any{"name": "Iterated v2"},
		UpdateOptions{Actor: "alice", Meta: testMeta()}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	second, err := pubs.Publish(ctx, cfg.ID, "alice", testMeta())
	if err != nil {
		t.Fatalf("second publish: %v", err)
	}

	history, err := pubs.GetPublications(ctx, cfg.ID)
	if err != nil {
		t.Fatalf("GetPublications: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history = %d records, want 2", len(history))
	}

	var active int
	for _, rec := range history {
		if rec.Status == model.PublicationStatusActive {
			active++
		}
	}
	if active != 1 {
		t.Fatalf("active publications = %d, want exactly 1", active)
	}

	current, err := pubs.GetActive(ctx, cfg.ID)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if current.ID != second.ID {
		t.Errorf("active = %s, want the latest publication %s", current.ID, second.ID)
	}
	if current.Snapshot.Name != "Iterated v2" {
		t.Errorf("active snapshot name = %q, want Iterated v2", current.Snapshot.Name)
	}
}

func TestGetActive_NonePublished(t *testing.T) {
	pages, pubs, cleanup := newPublicationServices(t, nil)
	defer cleanup()

	cfg := createDraft(t, pages, "Unpublished")
	_, err := pubs.GetActive(context.Background(), cfg.ID)
	if model.CodeOf(err) != model.CodeNotFound {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestGetActive_ServedFromCache(t *testing.T) {
	mem := cache.NewSimpleMemoryCache(time.Minute)
	pages, pubs, cleanup := newPublicationServices(t, mem)
	defer cleanup()
	ctx := context.Background()

	cfg := createDraft(t, pages, "Cached")
	first, err := pubs.Publish(ctx, cfg.ID, "alice", testMeta())
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	got, err := pubs.GetActive(ctx, cfg.ID)
	if err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if got.ID != first.ID {
		t.Fatalf("active = %s, want %s", got.ID, first.ID)
	}

	// Republish must invalidate the cached snapshot.
	if _, err := pages.Update(ctx, cfg.ID, map[string]any{"name": "Cached v2"},
		UpdateOptions{Actor: "alice", Meta: testMeta()}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	second, err := pubs.Publish(ctx, cfg.ID, "alice", testMeta())
	if err != nil {
		t.Fatalf("republish: %v", err)
	}
	got, err = pubs.GetActive(ctx, cfg.ID)
	if err != nil {
		t.Fatalf("GetActive after republish: %v", err)
	}
	if got.ID != second.ID {
		t.Errorf("active = %s, stale cache served; want %s", got.ID, second.ID)
	}
}

func TestPreview_DoesNotTouchState(t *testing.T) {
	pages, pubs, cleanup := newPublicationServices(t, nil)
	defer cleanup()
	ctx := context.Background()

	cfg := createDraft(t, pages, "Previewable")

	doc, err := pubs.Preview(cfg, render.Context{Platform: "mobile"})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if doc.Markup == "" {
		t.Error("preview markup is empty")
	}
	if doc.Units == 0 {
		t.Error("preview unit count is zero")
	}

	got, err := pages.Get(ctx, cfg.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Version != 1 || got.Status != model.PageStatusDraft {
		t.Errorf("page changed by preview: %s v%d", got.Status, got.Version)
	}
}

func TestPreview_RejectsInvalidConfig(t *testing.T) {
	_, pubs, cleanup := newPublicationServices(t, nil)
	defer cleanup()

	bad := &model.PageConfig{
		ID: "x", Name: "bad", PageType: model.PageTypeCustom,
		DIYAreas: map[string]model.DIYArea{
			"main": {Layout: model.LayoutStack, Components: []model.Component{
				{ID: "c1", Type: "hologram"},
			}},
		},
	}
	_, err := pubs.Preview(bad, render.Context{})
	if model.CodeOf(err) != model.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestRestore_BringsBackSnapshot(t *testing.T) {
	pages, pubs, cleanup := newPublicationServices(t, nil)
	defer cleanup()
	ctx := context.Background()

	cfg := createDraft(t, pages, "Keeper")
	pub, err := pubs.Publish(ctx, cfg.ID, "alice", testMeta())
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	if _, err := pages.Update(ctx, cfg.ID, map[string]any{"name": "Drifted"},
		UpdateOptions{Actor: "bob", Meta: testMeta()}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	restored, err := pubs.Restore(ctx, cfg.ID, pub.ID, "alice", testMeta())
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.Name != "Keeper" {
		t.Errorf("restored name = %q, want Keeper", restored.Name)
	}
	if restored.Status != model.PageStatusDraft {
		t.Errorf("restored status = %q, want draft", restored.Status)
	}
	// Restore continues the page's version lineage rather than
	// rewinding it.
	if restored.Version != 4 {
		t.Errorf("restored version = %d, want 4", restored.Version)
	}
	if restored.ID != cfg.ID || restored.Slug != cfg.Slug {
		t.Error("restore changed page identity")
	}

	// The history itself is untouched.
	history, err := pubs.GetPublications(ctx, cfg.ID)
	if err != nil {
		t.Fatalf("GetPublications: %v", err)
	}
	if len(history) != 1 {
		t.Errorf("history = %d records, want 1", len(history))
	}
}

func TestRestore_WrongPage(t *testing.T) {
	pages, pubs, cleanup := newPublicationServices(t, nil)
	defer cleanup()
	ctx := context.Background()

	a := createDraft(t, pages, "Page A")
	b := createDraft(t, pages, "Page B")
	pub, err := pubs.Publish(ctx, a.ID, "alice", testMeta())
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	_, err = pubs.Restore(ctx, b.ID, pub.ID, "alice", testMeta())
	if model.CodeOf(err) != model.CodeValidation {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestDelete_InvalidatesActiveSnapshotCache(t *testing.T) {
	mem := cache.NewSimpleMemoryCache(time.Minute)
	pages, pubs, cleanup := newPublicationServices(t, mem)
	defer cleanup()
	pages.WithInvalidator(pubs)
	ctx := context.Background()

	cfg := createDraft(t, pages, "Ephemeral")
	if _, err := pubs.Publish(ctx, cfg.ID, "alice", testMeta()); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if _, err := pubs.GetActive(ctx, cfg.ID); err != nil {
		t.Fatalf("GetActive: %v", err)
	}
	if _, err := mem.Get(ctx, "pub:active:"+cfg.ID); err != nil {
		t.Fatalf("active snapshot not cached: %v", err)
	}

	if err := pages.Delete(ctx, cfg.ID, "alice", testMeta()); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := mem.Get(ctx, "pub:active:"+cfg.ID); !errors.Is(err, cache.ErrCacheMiss) {
		t.Errorf("deleted page still served from cache (err = %v)", err)
	}
}
