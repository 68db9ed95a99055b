// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/render"
	"github.com/pageforge/pageforge/internal/schema"
	"github.com/pageforge/pageforge/internal/service"
	"github.com/pageforge/pageforge/internal/testutil"
)

func mustRenderer(t *testing.T, registry *schema.Registry) *render.Renderer {
	t.Helper()
	r, err := render.New(registry)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return r
}

func seedSource(t *testing.T, db *sql.DB) (*model.PageConfig, *service.Template) {
	t.Helper()
	ctx := context.Background()
	registry := schema.Default()

	pages := service.NewPageService(db, registry)
	page, err := pages.Create(ctx, service.CreatePageParams{
		Name:     "Exported Home",
		PageType: model.PageTypeHome,
		Initial: map[string]any{
			"diy_areas": map[string]any{
				"main": map[string]any{
					"layout": model.LayoutStack,
					"components": []any{
						map[string]any{"id": "t1", "type": schema.TypeText, "props": map[string]any{"content": "hello"}},
					},
				},
			},
		},
		Actor: "alice",
		Meta:  model.RequestMeta{Origin: "test"},
	})
	if err != nil {
		t.Fatalf("seeding page: %v", err)
	}

	library := service.NewLibraryService(db, registry, nil)
	tpl, err := library.CreateTemplate(ctx, service.CreateTemplateParams{
		Name:     "Exported Text",
		Category: "basic",
		Component: model.Component{
			ID:    "tpl-1",
			Type:  schema.TypeText,
			Props: map[string]any{"content": "canned"},
		},
		Actor: "alice",
	})
	if err != nil {
		t.Fatalf("seeding template: %v", err)
	}
	return page, tpl
}

func TestExportImport_RoundTrip(t *testing.T) {
	srcDB, srcCleanup := testutil.TestDB(t)
	defer srcCleanup()
	dstDB, dstCleanup := testutil.TestDB(t)
	defer dstCleanup()
	ctx := context.Background()

	page, tpl := seedSource(t, srcDB)

	exporter := NewExporter(srcDB, testutil.TestLogger(), ArchiveSource{Name: "src"})
	archive, err := exporter.Export(ctx, DefaultExportOptions())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(archive.Pages) != 1 || len(archive.Templates) != 1 {
		t.Fatalf("archive = %d pages, %d templates; want 1 and 1", len(archive.Pages), len(archive.Templates))
	}
	if archive.Source.Name != "src" {
		t.Errorf("source = %q, want src", archive.Source.Name)
	}

	importer := NewImporter(dstDB, schema.Default(), testutil.TestLogger())
	result, err := importer.Import(ctx, archive, DefaultImportOptions())
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.Imported["pages"] != 1 || result.Imported["templates"] != 1 {
		t.Fatalf("imported = %+v, want 1 page and 1 template", result.Imported)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("errors = %+v, want none", result.Errors)
	}

	pages := service.NewPageService(dstDB, schema.Default())
	got, err := pages.Get(ctx, page.ID)
	if err != nil {
		t.Fatalf("Get imported page: %v", err)
	}
	if got.Name != "Exported Home" || got.Slug != page.Slug {
		t.Errorf("imported page = %s/%s, want original name and slug", got.Name, got.Slug)
	}
	if got.Status != model.PageStatusDraft {
		t.Errorf("imported status = %q, want draft", got.Status)
	}
	if len(got.DIYAreas["main"].Components) != 1 {
		t.Error("imported page lost its components")
	}

	library := service.NewLibraryService(dstDB, schema.Default(), nil)
	gotTpl, err := library.GetTemplate(ctx, tpl.ID)
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if gotTpl.Name != "Exported Text" {
		t.Errorf("template name = %q, want Exported Text", gotTpl.Name)
	}
}

func TestImport_ConflictSkipAndReplace(t *testing.T) {
	srcDB, srcCleanup := testutil.TestDB(t)
	defer srcCleanup()
	dstDB, dstCleanup := testutil.TestDB(t)
	defer dstCleanup()
	ctx := context.Background()

	page, _ := seedSource(t, srcDB)

	exporter := NewExporter(srcDB, testutil.TestLogger(), ArchiveSource{Name: "src"})
	archive, err := exporter.Export(ctx, DefaultExportOptions())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	importer := NewImporter(dstDB, schema.Default(), testutil.TestLogger())
	if _, err := importer.Import(ctx, archive, DefaultImportOptions()); err != nil {
		t.Fatalf("first import: %v", err)
	}

	// Second run against the same archive hits every entity.
	result, err := importer.Import(ctx, archive, DefaultImportOptions())
	if err != nil {
		t.Fatalf("Import skip: %v", err)
	}
	if result.Skipped["pages"] != 1 || result.Skipped["templates"] != 1 {
		t.Fatalf("skipped = %+v, want page and template skipped", result.Skipped)
	}

	opts := DefaultImportOptions()
	opts.ConflictStrategy = ConflictReplace
	result, err = importer.Import(ctx, archive, opts)
	if err != nil {
		t.Fatalf("Import replace: %v", err)
	}
	if result.Replaced["pages"] != 1 || result.Replaced["templates"] != 1 {
		t.Fatalf("replaced = %+v, want page and template replaced", result.Replaced)
	}

	// Replacement keeps local identity and continues the version line.
	pages := service.NewPageService(dstDB, schema.Default())
	got, err := pages.Get(ctx, page.ID)
	if err != nil {
		t.Fatalf("Get replaced page: %v", err)
	}
	if got.Version != page.Version+1 {
		t.Errorf("version = %d, want %d", got.Version, page.Version+1)
	}
}

func TestImport_DryRun(t *testing.T) {
	srcDB, srcCleanup := testutil.TestDB(t)
	defer srcCleanup()
	dstDB, dstCleanup := testutil.TestDB(t)
	defer dstCleanup()
	ctx := context.Background()

	page, _ := seedSource(t, srcDB)

	exporter := NewExporter(srcDB, testutil.TestLogger(), ArchiveSource{Name: "src"})
	archive, err := exporter.Export(ctx, DefaultExportOptions())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	importer := NewImporter(dstDB, schema.Default(), testutil.TestLogger())
	opts := DefaultImportOptions()
	opts.DryRun = true
	result, err := importer.Import(ctx, archive, opts)
	if err != nil {
		t.Fatalf("Import dry run: %v", err)
	}
	if !result.DryRun {
		t.Error("result not marked as dry run")
	}
	if result.Imported["pages"] != 1 || result.Imported["templates"] != 1 {
		t.Fatalf("dry run counts = %+v, want 1 page and 1 template", result.Imported)
	}

	// Nothing was written.
	pages := service.NewPageService(dstDB, schema.Default())
	if _, err := pages.Get(ctx, page.ID); model.CodeOf(err) != model.CodeNotFound {
		t.Fatalf("page exists after dry run: %v", err)
	}
}

func TestImport_RejectsBadArchive(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	importer := NewImporter(db, schema.Default(), testutil.TestLogger())

	_, err := importer.Import(context.Background(), &Archive{Version: "9.9"}, DefaultImportOptions())
	if model.CodeOf(err) != model.CodeValidation {
		t.Fatalf("bad version err = %v, want validation", err)
	}

	archive := &Archive{
		Version: ArchiveVersion,
		Pages: []ExportedPage{{
			Config: &model.PageConfig{
				ID: "p1", Name: "Bad", Slug: "bad", PageType: model.PageTypeCustom,
				DIYAreas: map[string]model.DIYArea{
					"main": {Layout: model.LayoutStack, Components: []model.Component{
						{ID: "c1", Type: "hologram"},
					}},
				},
			},
		}},
	}
	result, err := importer.Import(context.Background(), archive, DefaultImportOptions())
	if model.CodeOf(err) != model.CodeValidation {
		t.Fatalf("invalid component err = %v, want validation", err)
	}
	if len(result.Errors) == 0 {
		t.Error("validation errors not reported in result")
	}
}

func TestZipRoundTrip(t *testing.T) {
	srcDB, srcCleanup := testutil.TestDB(t)
	defer srcCleanup()
	dstDB, dstCleanup := testutil.TestDB(t)
	defer dstCleanup()
	ctx := context.Background()

	page, _ := seedSource(t, srcDB)

	exporter := NewExporter(srcDB, testutil.TestLogger(), ArchiveSource{Name: "src"})
	var buf bytes.Buffer
	if err := exporter.WriteZip(ctx, DefaultExportOptions(), &buf); err != nil {
		t.Fatalf("WriteZip: %v", err)
	}

	importer := NewImporter(dstDB, schema.Default(), testutil.TestLogger())
	result, err := importer.ImportFromZipBytes(ctx, buf.Bytes(), DefaultImportOptions())
	if err != nil {
		t.Fatalf("ImportFromZipBytes: %v", err)
	}
	if result.Imported["pages"] != 1 {
		t.Fatalf("imported = %+v, want 1 page", result.Imported)
	}

	pages := service.NewPageService(dstDB, schema.Default())
	if _, err := pages.Get(ctx, page.ID); err != nil {
		t.Fatalf("Get imported page: %v", err)
	}
}

func TestImportFromZipBytes_NotAZip(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	defer cleanup()
	importer := NewImporter(db, schema.Default(), testutil.TestLogger())

	_, err := importer.ImportFromZipBytes(context.Background(), []byte("plain text"), DefaultImportOptions())
	if model.CodeOf(err) != model.CodeValidation {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestExport_PublicationHistory(t *testing.T) {
	srcDB, srcCleanup := testutil.TestDB(t)
	defer srcCleanup()
	ctx := context.Background()

	page, _ := seedSource(t, srcDB)

	registry := schema.Default()
	pubs := service.NewPublicationService(srcDB, registry, mustRenderer(t, registry), nil)
	if _, err := pubs.Publish(ctx, page.ID, "alice", model.RequestMeta{Origin: "test"}); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	exporter := NewExporter(srcDB, testutil.TestLogger(), ArchiveSource{Name: "src"})
	opts := DefaultExportOptions()
	opts.IncludePublications = true
	archive, err := exporter.Export(ctx, opts)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if len(archive.Pages) != 1 || len(archive.Pages[0].Publications) != 1 {
		t.Fatalf("archive pages = %+v, want one page with one publication", archive.Pages)
	}

	// Imported history arrives inactive.
	dstDB, dstCleanup := testutil.TestDB(t)
	defer dstCleanup()
	importer := NewImporter(dstDB, schema.Default(), testutil.TestLogger())
	result, err := importer.Import(ctx, archive, DefaultImportOptions())
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if result.Imported["publications"] != 1 {
		t.Fatalf("imported = %+v, want 1 publication", result.Imported)
	}

	dstPubs := service.NewPublicationService(dstDB, registry, nil, nil)
	if _, err := dstPubs.GetActive(ctx, page.ID); model.CodeOf(err) != model.CodeNotFound {
		t.Fatalf("GetActive = %v, imported history must not be live", err)
	}
	history, err := dstPubs.GetPublications(ctx, page.ID)
	if err != nil {
		t.Fatalf("GetPublications: %v", err)
	}
	if len(history) != 1 || history[0].Status != model.PublicationStatusInactive {
		t.Fatalf("history = %+v, want one inactive record", history)
	}
}
