package render

import (
	"strings"
	"testing"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/schema"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New(schema.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return r
}

func TestNew_RequiresHandlerPerType(t *testing.T) {
	registry, err := schema.NewRegistry([]model.ComponentSchema{
		{Type: "text", Name: "Text"},
		{Type: "unhandled-widget", Name: "Widget"},
	})
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	if _, err := New(registry); err == nil {
		t.Fatal("renderer accepted a registry with no handler for unhandled-widget")
	} else if !strings.Contains(err.Error(), "unhandled-widget") {
		t.Errorf("error does not name the missing type: %v", err)
	}
}

func TestRenderText(t *testing.T) {
	r := newRenderer(t)

	out := r.Render(&model.Component{
		ID:    "t1",
		Type:  schema.TypeText,
		Props: map[string]any{"content": "5 < 6 & true"},
	}, Context{})

	if !strings.Contains(out.Markup, "5 &lt; 6 &amp; true") {
		t.Errorf("content not escaped: %q", out.Markup)
	}
	if !strings.Contains(out.Markup, `id="pf-t1"`) {
		t.Errorf("markup lacks namespaced id: %q", out.Markup)
	}
	// Schema defaults flow into the style channel.
	if !strings.Contains(out.Style, "font-size:14px") {
		t.Errorf("default font size missing: %q", out.Style)
	}
	if !strings.Contains(out.Style, "text-align:left") {
		t.Errorf("default alignment missing: %q", out.Style)
	}
}

func TestRenderText_Markdown(t *testing.T) {
	r := newRenderer(t)

	out := r.Render(&model.Component{
		ID:   "t1",
		Type: schema.TypeText,
		Props: map[string]any{
			"content":  "**bold** <script>alert(1)</script>",
			"markdown": true,
		},
	}, Context{})

	if !strings.Contains(out.Markup, "<strong>bold</strong>") {
		t.Errorf("markdown not converted: %q", out.Markup)
	}
	if strings.Contains(out.Markup, "<script>") {
		t.Errorf("script tag survived sanitization: %q", out.Markup)
	}
}

func TestRender_InvalidComponentGetsPlaceholder(t *testing.T) {
	r := newRenderer(t)

	tests := []struct {
		name string
		c    model.Component
	}{
		{"unknown type", model.Component{ID: "x", Type: "hologram"}},
		{"missing required prop", model.Component{ID: "x", Type: schema.TypeText, Props: map[string]any{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := r.Render(&tt.c, Context{})
			if !strings.Contains(out.Markup, "pf-error") {
				t.Errorf("no placeholder emitted: %q", out.Markup)
			}
			if !strings.Contains(out.Markup, "component unavailable") {
				t.Errorf("placeholder lacks visible text: %q", out.Markup)
			}
		})
	}
}

func TestRenderButton_VariantAndTheme(t *testing.T) {
	r := newRenderer(t)

	c := model.Component{
		ID:    "b1",
		Type:  schema.TypeButton,
		Props: map[string]any{"text": "Buy", "variant": "outline"},
	}

	out := r.Render(&c, Context{Theme: map[string]string{"primary": "#ff0000"}})
	if !strings.Contains(out.Style, "border:1px solid #ff0000") {
		t.Errorf("theme primary not applied to outline: %q", out.Style)
	}
	if !strings.Contains(out.Style, "background:transparent") {
		t.Errorf("outline variant keeps solid background: %q", out.Style)
	}

	// Without a theme the schema default background wins.
	out = r.Render(&c, Context{})
	if !strings.Contains(out.Style, "#0a84ff") {
		t.Errorf("default background missing: %q", out.Style)
	}
}

func TestRender_EventBehavior(t *testing.T) {
	r := newRenderer(t)

	out := r.Render(&model.Component{
		ID:    "b1",
		Type:  schema.TypeButton,
		Props: map[string]any{"text": "Go"},
		Events: []model.EventConfig{
			{Trigger: "click", Action: "navigate", Params: map[string]any{"to": "/home"}},
		},
	}, Context{})

	if !strings.Contains(out.Behavior, `pf.on("pf-b1","click"`) {
		t.Errorf("event binding missing: %q", out.Behavior)
	}
	if !strings.Contains(out.Behavior, `"navigate"`) {
		t.Errorf("action missing from behavior: %q", out.Behavior)
	}
}

func TestRenderTree_OrderAndUnits(t *testing.T) {
	r := newRenderer(t)

	doc := r.RenderTree([]model.Component{
		{ID: "second", Type: schema.TypeText, Props: map[string]any{"content": "second"}, SortIndex: 2},
		{ID: "first", Type: schema.TypeText, Props: map[string]any{"content": "first"}, SortIndex: 1},
		{ID: "broken", Type: "hologram", SortIndex: 3},
	}, Context{})

	if doc.Units != 3 {
		t.Errorf("Units = %d, want 3", doc.Units)
	}
	firstAt := strings.Index(doc.Markup, "first")
	secondAt := strings.Index(doc.Markup, "second")
	if firstAt < 0 || secondAt < 0 || firstAt > secondAt {
		t.Errorf("sort order not honored:\n%s", doc.Markup)
	}
	// The invalid node contributes a placeholder, not an abort.
	if !strings.Contains(doc.Markup, "pf-error") {
		t.Errorf("invalid sibling dropped instead of placeheld:\n%s", doc.Markup)
	}
}

func TestRenderTree_SiblingSelectorsDistinct(t *testing.T) {
	r := newRenderer(t)

	doc := r.RenderTree([]model.Component{
		{ID: "b1", Type: schema.TypeButton, Props: map[string]any{"label": "Buy"}, SortIndex: 1},
		{ID: "b2", Type: schema.TypeButton, Props: map[string]any{"label": "Sell"}, SortIndex: 2},
	}, Context{})

	// Same component type twice in one tree: each instance styles its
	// own node, never a shared selector.
	if !strings.Contains(doc.Style, "#pf-b1{") || !strings.Contains(doc.Style, "#pf-b2{") {
		t.Fatalf("per-instance selectors missing:\n%s", doc.Style)
	}
	if strings.Count(doc.Style, "#pf-b1{") != 1 || strings.Count(doc.Style, "#pf-b2{") != 1 {
		t.Errorf("selector emitted more than once per instance:\n%s", doc.Style)
	}
}

func TestRenderTree_CountsNestedNodes(t *testing.T) {
	r := newRenderer(t)

	doc := r.RenderTree([]model.Component{
		{ID: "c1", Type: schema.TypeContainer, Children: []model.Component{
			{ID: "t1", Type: schema.TypeText, Props: map[string]any{"content": "a"}},
			{ID: "t2", Type: schema.TypeText, Props: map[string]any{"content": "b"}},
		}},
	}, Context{})

	if doc.Units != 3 {
		t.Errorf("Units = %d, want 3 (container plus two children)", doc.Units)
	}
	if !strings.Contains(doc.Markup, "a") || !strings.Contains(doc.Markup, "b") {
		t.Errorf("children not rendered:\n%s", doc.Markup)
	}
}

func TestRenderPage(t *testing.T) {
	r := newRenderer(t)

	cfg := &model.PageConfig{
		Name: "Store Home",
		DIYAreas: map[string]model.DIYArea{
			"zz-footer": {Layout: model.LayoutGrid, Components: []model.Component{
				{ID: "f1", Type: schema.TypeText, Props: map[string]any{"content": "footer"}},
			}},
			"aa-main": {Components: []model.Component{
				{ID: "m1", Type: schema.TypeText, Props: map[string]any{"content": "main"}},
			}},
		},
		KingKong: &model.KingKongConfig{
			Enabled: true,
			Columns: 5,
			Items: []model.KingKongItem{
				{Title: "Deals", Link: "/deals", SortIndex: 1},
				{Title: "New", Link: "/new", SortIndex: 0},
			},
		},
	}

	doc := r.RenderPage(cfg, Context{})

	if doc.Units != 2 {
		t.Errorf("Units = %d, want 2", doc.Units)
	}
	if !strings.Contains(doc.Markup, "repeat(5,1fr)") {
		t.Errorf("king kong columns not applied:\n%s", doc.Markup)
	}
	newAt := strings.Index(doc.Markup, "New")
	dealsAt := strings.Index(doc.Markup, "Deals")
	if newAt < 0 || dealsAt < 0 || newAt > dealsAt {
		t.Errorf("king kong items not in sort order:\n%s", doc.Markup)
	}
	// Areas render in stable key order; an empty layout falls back to stack.
	mainAt := strings.Index(doc.Markup, `data-area="aa-main"`)
	footerAt := strings.Index(doc.Markup, `data-area="zz-footer"`)
	if mainAt < 0 || footerAt < 0 || mainAt > footerAt {
		t.Errorf("areas not in key order:\n%s", doc.Markup)
	}
	if !strings.Contains(doc.Markup, "pf-layout-stack") {
		t.Errorf("default layout class missing:\n%s", doc.Markup)
	}
	if !strings.Contains(doc.Markup, "pf-layout-grid") {
		t.Errorf("grid layout class missing:\n%s", doc.Markup)
	}

	// A disabled quick-link grid renders nothing.
	cfg.KingKong.Enabled = false
	if strings.Contains(r.RenderPage(cfg, Context{}).Markup, "pf-kingkong") {
		t.Error("disabled king kong still rendered")
	}
}

func TestRenderHTML(t *testing.T) {
	r := newRenderer(t)

	cfg := &model.PageConfig{
		Name: "Preview <Page>",
		DIYAreas: map[string]model.DIYArea{
			"main": {Components: []model.Component{
				{ID: "t1", Type: schema.TypeText, Props: map[string]any{"content": "hello"}},
			}},
		},
	}

	out := r.RenderHTML(cfg, Context{IsPreview: true})

	if !strings.HasPrefix(out, "<!DOCTYPE html>") {
		t.Errorf("not a standalone document:\n%s", out[:60])
	}
	if !strings.Contains(out, "<title>Preview &lt;Page&gt;</title>") {
		t.Errorf("title not escaped:\n%s", out)
	}
	if !strings.Contains(out, "<style>") {
		t.Errorf("style channel not embedded:\n%s", out)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("body content missing:\n%s", out)
	}
}
