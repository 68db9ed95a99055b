package service

import (
	"context"
	"testing"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/render"
	"github.com/pageforge/pageforge/internal/schema"
	"github.com/pageforge/pageforge/internal/testutil"
)

func newLibraryService(t *testing.T) (*LibraryService, func()) {
	t.Helper()
	db, cleanup := testutil.TestDB(t)

	registry := schema.Default()
	renderer, err := render.New(registry)
	if err != nil {
		cleanup()
		t.Fatalf("render.New: %v", err)
	}
	return NewLibraryService(db, registry, renderer), cleanup
}

func bannerComponent() model.Component {
	return model.Component{
		ID:   "tpl-banner",
		Type: schema.TypeBanner,
		Props: map[string]any{
			"slides": []any{
				map[string]any{
					"image": "https://cdn.example.com/sale.png",
					"title": "Summer Sale",
				},
			},
			"autoplay": true,
		},
	}
}

func TestTemplateCRUD(t *testing.T) {
	svc, cleanup := newLibraryService(t)
	defer cleanup()
	ctx := context.Background()

	created, err := svc.CreateTemplate(ctx, CreateTemplateParams{
		Name:        "Sale Banner",
		Category:    "marketing",
		Description: "Seasonal hero banner",
		Component:   bannerComponent(),
		Actor:       "alice",
	})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}
	if created.ID == "" || created.CreatedBy != "alice" {
		t.Fatalf("created = %+v, want id and creator set", created)
	}

	got, err := svc.GetTemplate(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTemplate: %v", err)
	}
	if got.Component.Type != schema.TypeBanner {
		t.Errorf("component type = %q, want banner", got.Component.Type)
	}

	updated, err := svc.UpdateTemplate(ctx, created.ID, UpdateTemplateParams{
		Name:      "Winter Banner",
		Category:  "marketing",
		Component: bannerComponent(),
	})
	if err != nil {
		t.Fatalf("UpdateTemplate: %v", err)
	}
	if updated.Name != "Winter Banner" {
		t.Errorf("name = %q, want Winter Banner", updated.Name)
	}

	if err := svc.DeleteTemplate(ctx, created.ID); err != nil {
		t.Fatalf("DeleteTemplate: %v", err)
	}
	if _, err := svc.GetTemplate(ctx, created.ID); model.CodeOf(err) != model.CodeNotFound {
		t.Fatalf("get after delete: %v, want not found", err)
	}
}

func TestCreateTemplate_Rejections(t *testing.T) {
	svc, cleanup := newLibraryService(t)
	defer cleanup()
	ctx := context.Background()

	_, err := svc.CreateTemplate(ctx, CreateTemplateParams{
		Name: " ", Component: bannerComponent(),
	})
	if model.CodeOf(err) != model.CodeValidation {
		t.Errorf("empty name err = %v, want validation", err)
	}

	_, err = svc.CreateTemplate(ctx, CreateTemplateParams{
		Name:      "Bad",
		Component: model.Component{ID: "x", Type: "hologram"},
	})
	if model.CodeOf(err) != model.CodeValidation {
		t.Errorf("unknown type err = %v, want validation", err)
	}
}

func TestListTemplates_ByCategory(t *testing.T) {
	svc, cleanup := newLibraryService(t)
	defer cleanup()
	ctx := context.Background()

	for _, tpl := range []struct{ name, category string }{
		{"Banner A", "marketing"},
		{"Banner B", "marketing"},
		{"Footer Note", "layout"},
	} {
		if _, err := svc.CreateTemplate(ctx, CreateTemplateParams{
			Name: tpl.name, Category: tpl.category, Component: bannerComponent(), Actor: "alice",
		}); err != nil {
			t.Fatalf("CreateTemplate %s: %v", tpl.name, err)
		}
	}

	all, err := svc.ListTemplates(ctx, "")
	if err != nil {
		t.Fatalf("ListTemplates: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("all templates = %d, want 3", len(all))
	}

	marketing, err := svc.ListTemplates(ctx, "marketing")
	if err != nil {
		t.Fatalf("ListTemplates marketing: %v", err)
	}
	if len(marketing) != 2 {
		t.Fatalf("marketing templates = %d, want 2", len(marketing))
	}
}

func TestCatalog_GroupsTemplatesByType(t *testing.T) {
	svc, cleanup := newLibraryService(t)
	defer cleanup()
	ctx := context.Background()

	if _, err := svc.CreateTemplate(ctx, CreateTemplateParams{
		Name: "Hero", Category: "marketing", Component: bannerComponent(), Actor: "alice",
	}); err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	entries, err := svc.Catalog(ctx)
	if err != nil {
		t.Fatalf("Catalog: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("catalog is empty")
	}

	var bannerEntry *CatalogEntry
	for i := range entries {
		if entries[i].Schema.Type == schema.TypeBanner {
			bannerEntry = &entries[i]
		} else if len(entries[i].Templates) != 0 {
			t.Errorf("type %s has %d templates, want 0", entries[i].Schema.Type, len(entries[i].Templates))
		}
	}
	if bannerEntry == nil {
		t.Fatal("banner schema missing from catalog")
	}
	if len(bannerEntry.Templates) != 1 || bannerEntry.Templates[0].Name != "Hero" {
		t.Fatalf("banner templates = %+v, want the Hero template", bannerEntry.Templates)
	}
}

func TestRenderComponent(t *testing.T) {
	svc, cleanup := newLibraryService(t)
	defer cleanup()

	c := bannerComponent()
	out, err := svc.RenderComponent(&c, render.Context{Platform: "mobile"})
	if err != nil {
		t.Fatalf("RenderComponent: %v", err)
	}
	if out.Markup == "" {
		t.Error("markup is empty")
	}

	bad := model.Component{ID: "x", Type: "hologram"}
	if _, err := svc.RenderComponent(&bad, render.Context{}); model.CodeOf(err) != model.CodeValidation {
		t.Errorf("err = %v, want validation", err)
	}
}

func TestPreviewTemplate(t *testing.T) {
	svc, cleanup := newLibraryService(t)
	defer cleanup()
	ctx := context.Background()

	created, err := svc.CreateTemplate(ctx, CreateTemplateParams{
		Name: "Previewed", Category: "marketing", Component: bannerComponent(), Actor: "alice",
	})
	if err != nil {
		t.Fatalf("CreateTemplate: %v", err)
	}

	doc, err := svc.PreviewTemplate(ctx, created.ID, render.Context{})
	if err != nil {
		t.Fatalf("PreviewTemplate: %v", err)
	}
	if doc.Markup == "" || doc.Units != 1 {
		t.Errorf("doc = %d units with markup %q, want 1 unit of markup", doc.Units, doc.Markup)
	}

	if _, err := svc.PreviewTemplate(ctx, "ghost", render.Context{}); model.CodeOf(err) != model.CodeNotFound {
		t.Errorf("err = %v, want not found", err)
	}
}
