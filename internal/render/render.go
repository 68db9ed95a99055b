// Package render converts validated component trees into render output:
// a (markup, style, behavior) triple per component. Rendering is pure
// and CPU-bound; it performs no I/O and keeps no shared mutable state,
// so concurrent renders need no coordination.
package render

import (
	"encoding/json"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/schema"
)

// Platforms a tree can be rendered for.
const (
	PlatformEmbedded = "embedded-app"
	PlatformWeb      = "web"
	PlatformAdmin    = "admin"
)

// Output is the render result for a single component.
type Output struct {
	Markup   string `json:"markup"`
	Style    string `json:"style"`
	Behavior string `json:"behavior"`
}

// Document is the render result for a component tree. The three
// channels are concatenated independently: behavior code from every
// node is collected, not just the first. Units counts rendered nodes,
// including placeholders, and always equals the tree's node count.
type Document struct {
	Markup   string `json:"markup"`
	Style    string `json:"style"`
	Behavior string `json:"behavior"`
	Units    int    `json:"units"`
}

// Context carries request-scoped render parameters.
type Context struct {
	PageID    string
	IsPreview bool
	Platform  string
	Theme     map[string]string
}

// handlerFunc renders one component whose props have already been
// merged with schema defaults.
type handlerFunc func(c *model.Component, props map[string]any, ctx Context) (Output, error)

// Renderer dispatches components to per-type handlers. The handler
// table is exhaustive over the registry and checked at construction.
type Renderer struct {
	registry  *schema.Registry
	validator *schema.Validator
	handlers  map[string]handlerFunc
	richtext  *richText
}

// New creates a renderer over the given registry. It fails if any
// registered component type lacks a render handler, so an incomplete
// dispatch table is caught at startup rather than at request time.
func New(registry *schema.Registry) (*Renderer, error) {
	r := &Renderer{
		registry:  registry,
		validator: schema.NewValidator(registry),
		richtext:  newRichText(),
	}
	r.handlers = r.builtinHandlers()

	var missing []string
	for _, t := range registry.Types() {
		if _, ok := r.handlers[t]; !ok {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("render: no handler for component types: %s", strings.Join(missing, ", "))
	}
	return r, nil
}

// Render renders a single component. It never fails: an unknown type,
// an invalid instance or a handler fault yields a visible error
// placeholder for that node so sibling rendering is never aborted.
func (r *Renderer) Render(c *model.Component, ctx Context) Output {
	res := r.validator.Validate(c)
	if !res.Valid {
		return r.placeholder(c, strings.Join(res.Errors, "; "))
	}
	return r.renderValidated(c, ctx)
}

// renderValidated dispatches to the type handler with panic
// containment. The caller has already validated the component.
func (r *Renderer) renderValidated(c *model.Component, ctx Context) (out Output) {
	defer func() {
		if rec := recover(); rec != nil {
			out = r.placeholder(c, fmt.Sprintf("handler panic: %v", rec))
		}
	}()

	handler, ok := r.handlers[c.Type]
	if !ok {
		return r.placeholder(c, "unknown component type: "+c.Type)
	}

	out, err := handler(c, r.mergedProps(c), ctx)
	if err != nil {
		return r.placeholder(c, err.Error())
	}
	return out
}

// RenderTree renders components in sortIndex order and concatenates
// the markup, style and behavior channels independently. Every node in
// the tree, including invalid ones, contributes exactly one unit.
func (r *Renderer) RenderTree(components []model.Component, ctx Context) Document {
	ordered := sortBySortIndex(components)

	var markup, style, behavior []string
	units := 0
	for i := range ordered {
		out := r.Render(&ordered[i], ctx)
		if out.Markup != "" {
			markup = append(markup, out.Markup)
		}
		if out.Style != "" {
			style = append(style, out.Style)
		}
		if out.Behavior != "" {
			behavior = append(behavior, out.Behavior)
		}
		units += countNodes(&ordered[i])
	}

	return Document{
		Markup:   strings.Join(markup, "\n"),
		Style:    strings.Join(style, "\n"),
		Behavior: strings.Join(behavior, "\n"),
		Units:    units,
	}
}

// RenderPage renders a full page configuration: every DIY area in
// stable key order, the quick-link grid and active promotions.
func (r *Renderer) RenderPage(cfg *model.PageConfig, ctx Context) Document {
	var markup, style, behavior []string
	units := 0

	if cfg.KingKong != nil && cfg.KingKong.Enabled {
		markup = append(markup, r.renderKingKong(cfg.KingKong))
	}

	for _, areaID := range sortedAreaIDs(cfg.DIYAreas) {
		area := cfg.DIYAreas[areaID]
		doc := r.RenderTree(area.Components, ctx)
		markup = append(markup, fmt.Sprintf(
			"<section class=\"pf-area pf-layout-%s\" data-area=%q>\n%s\n</section>",
			html.EscapeString(areaLayout(area)), areaID, doc.Markup))
		if doc.Style != "" {
			style = append(style, doc.Style)
		}
		if doc.Behavior != "" {
			behavior = append(behavior, doc.Behavior)
		}
		units += doc.Units
	}

	return Document{
		Markup:   strings.Join(markup, "\n"),
		Style:    strings.Join(style, "\n"),
		Behavior: strings.Join(behavior, "\n"),
		Units:    units,
	}
}

// RenderHTML wraps a page render into a standalone HTML document, used
// by preview.
func (r *Renderer) RenderHTML(cfg *model.PageConfig, ctx Context) string {
	doc := r.RenderPage(cfg, ctx)
	var b strings.Builder
	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", html.EscapeString(cfg.Name))
	if doc.Style != "" {
		fmt.Fprintf(&b, "<style>\n%s\n</style>\n", doc.Style)
	}
	b.WriteString("</head>\n<body>\n")
	b.WriteString(doc.Markup)
	if doc.Behavior != "" {
		fmt.Fprintf(&b, "\n<script>\n%s\n</script>\n", doc.Behavior)
	}
	b.WriteString("\n</body>\n</html>\n")
	return b.String()
}

// mergedProps lays the component's props over its schema defaults. The
// component copy wins on conflict.
func (r *Renderer) mergedProps(c *model.Component) map[string]any {
	s, ok := r.registry.Get(c.Type)
	if !ok {
		return c.Props
	}
	props := s.Defaults()
	for k, v := range c.Props {
		props[k] = v
	}
	return props
}

// placeholder renders the visible error node emitted when a component
// cannot be rendered. Contained per component: siblings keep rendering.
func (r *Renderer) placeholder(c *model.Component, reason string) Output {
	id := nodeID(c)
	return Output{
		Markup: fmt.Sprintf(
			"<div id=%q class=\"pf pf-error\" data-component-type=%q data-error=%q>component unavailable</div>",
			id, c.Type, reason),
		Style: fmt.Sprintf("#%s{border:1px dashed #f53f3f;color:#f53f3f;padding:8px;font-size:12px}", id),
	}
}

// nodeID returns the DOM id namespacing a component's output. Ids are
// unique within a page tree, so selectors from concurrently rendered
// components never collide.
func nodeID(c *model.Component) string {
	return "pf-" + c.ID
}

// wrapperAttrs renders the shared attributes for a component's root
// element, including display conditions as a data attribute.
func wrapperAttrs(c *model.Component) string {
	var b strings.Builder
	fmt.Fprintf(&b, "id=%q class=\"pf pf-%s\"", nodeID(c), c.Type)
	if len(c.Conditions) > 0 {
		if enc, err := json.Marshal(c.Conditions); err == nil {
			fmt.Fprintf(&b, " data-conditions=%q", string(enc))
		}
	}
	return b.String()
}

// styleRule renders a CSS rule for the component's root element,
// combining handler declarations with the instance's styles map.
func styleRule(c *model.Component, decls map[string]string) string {
	keys := make([]string, 0, len(decls)+len(c.Styles))
	merged := make(map[string]string, len(decls)+len(c.Styles))
	for k, v := range decls {
		merged[k] = v
	}
	for k, v := range c.Styles {
		if s, ok := v.(string); ok {
			merged[k] = s
		}
	}
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	fmt.Fprintf(&b, "#%s{", nodeID(c))
	for _, k := range keys {
		fmt.Fprintf(&b, "%s:%s;", k, merged[k])
	}
	b.WriteString("}")
	return b.String()
}

// eventBehavior emits listener bindings for the component's configured
// events. Actions are dispatched through the client runtime's pf bus.
func eventBehavior(c *model.Component) string {
	if len(c.Events) == 0 {
		return ""
	}
	var b strings.Builder
	for _, ev := range c.Events {
		params := "{}"
		if ev.Params != nil {
			if enc, err := json.Marshal(ev.Params); err == nil {
				params = string(enc)
			}
		}
		fmt.Fprintf(&b, "pf.on(%q,%q,function(){pf.dispatch(%q,%s)});\n",
			nodeID(c), ev.Trigger, ev.Action, params)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// renderKingKong renders the quick-link grid.
func (r *Renderer) renderKingKong(kk *model.KingKongConfig) string {
	items := append([]model.KingKongItem(nil), kk.Items...)
	sort.SliceStable(items, func(i, j int) bool { return items[i].SortIndex < items[j].SortIndex })

	cols := kk.Columns
	if cols <= 0 {
		cols = 4
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<nav class=\"pf-kingkong\" style=\"display:grid;grid-template-columns:repeat(%d,1fr)\">\n", cols)
	for _, item := range items {
		fmt.Fprintf(&b, "<a href=%q class=\"pf-kingkong-item\"><img src=%q alt=\"\"><span>%s</span></a>\n",
			html.EscapeString(item.Link), html.EscapeString(item.Icon), html.EscapeString(item.Title))
	}
	b.WriteString("</nav>")
	return b.String()
}

// sortBySortIndex returns a stable copy ordered by SortIndex.
func sortBySortIndex(components []model.Component) []model.Component {
	out := append([]model.Component(nil), components...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].SortIndex < out[j].SortIndex })
	return out
}

// countNodes counts a component and all its descendants.
func countNodes(c *model.Component) int {
	n := 0
	c.Walk(func(*model.Component) { n++ })
	return n
}

func sortedAreaIDs(areas map[string]model.DIYArea) []string {
	ids := make([]string, 0, len(areas))
	for id := range areas {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func areaLayout(a model.DIYArea) string {
	if a.Layout == "" {
		return model.LayoutStack
	}
	return a.Layout
}
