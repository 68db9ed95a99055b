package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/schema"
)

// builtinHandlers returns the dispatch table covering every built-in
// component type. The table must stay exhaustive over the registry;
// New verifies that at startup.
func (r *Renderer) builtinHandlers() map[string]handlerFunc {
	return map[string]handlerFunc{
		schema.TypeText:        r.renderText,
		schema.TypeImage:       r.renderImage,
		schema.TypeButton:      r.renderButton,
		schema.TypeIcon:        r.renderIcon,
		schema.TypeBanner:      r.renderBanner,
		schema.TypeProductCard: r.renderProductCard,
		schema.TypeContainer:   r.renderContainer,
		schema.TypeDivider:     r.renderDivider,
		schema.TypeVideo:       r.renderVideo,
		schema.TypeCountdown:   r.renderCountdown,
		schema.TypeSearchBar:   r.renderSearchBar,
		schema.TypeTabBar:      r.renderTabBar,
	}
}

func (r *Renderer) renderText(c *model.Component, props map[string]any, _ Context) (Output, error) {
	content := propString(props, "content")

	var body string
	if propBool(props, "markdown") {
		rendered, err := r.richtext.Render(content)
		if err != nil {
			return Output{}, fmt.Errorf("rendering markdown: %w", err)
		}
		body = rendered
	} else {
		body = html.EscapeString(content)
	}

	return Output{
		Markup: fmt.Sprintf("<div %s>%s</div>", wrapperAttrs(c), body),
		Style: styleRule(c, map[string]string{
			"text-align": propString(props, "align"),
			"font-size":  fmt.Sprintf("%dpx", int(propNumber(props, "size"))),
			"color":      propString(props, "color"),
		}),
		Behavior: eventBehavior(c),
	}, nil
}

func (r *Renderer) renderImage(c *model.Component, props map[string]any, _ Context) (Output, error) {
	img := fmt.Sprintf("<img src=%q alt=%q>",
		html.EscapeString(propString(props, "src")),
		html.EscapeString(propString(props, "alt")))

	inner := img
	if link := propString(props, "link"); link != "" {
		inner = fmt.Sprintf("<a href=%q>%s</a>", html.EscapeString(link), img)
	}

	return Output{
		Markup: fmt.Sprintf("<figure %s>%s</figure>", wrapperAttrs(c), inner),
		Style: styleRule(c, map[string]string{
			"border-radius": fmt.Sprintf("%dpx", int(propNumber(props, "radius"))),
			"object-fit":    propString(props, "mode"),
			"overflow":      "hidden",
		}),
		Behavior: eventBehavior(c),
	}, nil
}

func (r *Renderer) renderButton(c *model.Component, props map[string]any, ctx Context) (Output, error) {
	text := html.EscapeString(propString(props, "text"))
	link := propString(props, "link")

	var markup string
	if link != "" {
		markup = fmt.Sprintf("<a %s href=%q role=\"button\">%s</a>", wrapperAttrs(c), html.EscapeString(link), text)
	} else {
		markup = fmt.Sprintf("<button %s>%s</button>", wrapperAttrs(c), text)
	}

	background := themeColor(ctx, "primary", propString(props, "background"))
	decls := map[string]string{
		"color":         propString(props, "color"),
		"border-radius": "4px",
		"padding":       "8px 16px",
	}
	switch propString(props, "variant") {
	case "outline":
		decls["background"] = "transparent"
		decls["border"] = "1px solid " + background
		decls["color"] = background
	case "text":
		decls["background"] = "transparent"
		decls["color"] = background
	default:
		decls["background"] = background
	}
	if propBool(props, "block") {
		decls["display"] = "block"
		decls["width"] = "100%"
	}

	return Output{
		Markup:   markup,
		Style:    styleRule(c, decls),
		Behavior: eventBehavior(c),
	}, nil
}

func (r *Renderer) renderIcon(c *model.Component, props map[string]any, _ Context) (Output, error) {
	name := html.EscapeString(propString(props, "name"))

	inner := fmt.Sprintf("<i class=\"pf-icon-%s\"></i>", name)
	if link := propString(props, "link"); link != "" {
		inner = fmt.Sprintf("<a href=%q>%s</a>", html.EscapeString(link), inner)
	}

	return Output{
		Markup: fmt.Sprintf("<span %s>%s</span>", wrapperAttrs(c), inner),
		Style: styleRule(c, map[string]string{
			"font-size": fmt.Sprintf("%dpx", int(propNumber(props, "size"))),
			"color":     propString(props, "color"),
		}),
		Behavior: eventBehavior(c),
	}, nil
}

func (r *Renderer) renderBanner(c *model.Component, props map[string]any, _ Context) (Output, error) {
	slides, _ := props["slides"].([]any)

	var b strings.Builder
	fmt.Fprintf(&b, "<div %s>\n", wrapperAttrs(c))
	for i, raw := range slides {
		slide, _ := raw.(map[string]any)
		fmt.Fprintf(&b, "<figure class=\"pf-slide\" data-index=\"%d\">", i)
		fmt.Fprintf(&b, "<img src=%q alt=%q>", html.EscapeString(propString(slide, "image")),
			html.EscapeString(propString(slide, "title")))
		if title := propString(slide, "title"); title != "" {
			fmt.Fprintf(&b, "<figcaption>%s</figcaption>", html.EscapeString(title))
		}
		b.WriteString("</figure>\n")
	}
	b.WriteString("</div>")

	var behavior string
	if propBool(props, "autoplay") && len(slides) > 1 {
		behavior = fmt.Sprintf("pf.carousel(%q,{interval:%d});", nodeID(c), int(propNumber(props, "interval")))
	}
	if evb := eventBehavior(c); evb != "" {
		if behavior != "" {
			behavior += "\n"
		}
		behavior += evb
	}

	return Output{
		Markup: b.String(),
		Style: styleRule(c, map[string]string{
			"height":   fmt.Sprintf("%dpx", int(propNumber(props, "height"))),
			"overflow": "hidden",
			"position": "relative",
		}),
		Behavior: behavior,
	}, nil
}

func (r *Renderer) renderProductCard(c *model.Component, props map[string]any, _ Context) (Output, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "<article %s>\n", wrapperAttrs(c))
	fmt.Fprintf(&b, "<img src=%q alt=%q>\n",
		html.EscapeString(propString(props, "image")),
		html.EscapeString(propString(props, "title")))
	fmt.Fprintf(&b, "<h3>%s</h3>\n", html.EscapeString(propString(props, "title")))

	if badge := propString(props, "badge"); badge != "" && badge != "none" {
		fmt.Fprintf(&b, "<span class=\"pf-badge pf-badge-%s\">%s</span>\n", badge, strings.ToUpper(badge))
	}

	if propBool(props, "show_price") {
		if _, ok := props["price"]; ok {
			fmt.Fprintf(&b, "<p class=\"pf-price\">%.2f</p>\n", propNumber(props, "price"))
		}
		if _, ok := props["original"]; ok {
			fmt.Fprintf(&b, "<p class=\"pf-price-original\">%.2f</p>\n", propNumber(props, "original"))
		}
	}

	if link := propString(props, "link"); link != "" {
		fmt.Fprintf(&b, "<a href=%q class=\"pf-card-link\"></a>\n", html.EscapeString(link))
	}
	b.WriteString("</article>")

	return Output{
		Markup: b.String(),
		Style: styleRule(c, map[string]string{
			"position":      "relative",
			"border-radius": "8px",
			"overflow":      "hidden",
		}),
		Behavior: eventBehavior(c),
	}, nil
}

// renderContainer renders a layout node and recursively renders its
// children in sortIndex order. Child styles and behaviors bubble up
// into the container's channels.
func (r *Renderer) renderContainer(c *model.Component, props map[string]any, ctx Context) (Output, error) {
	children := sortBySortIndex(c.Children)

	var markup, style, behavior []string
	for i := range children {
		out := r.Render(&children[i], ctx)
		markup = append(markup, out.Markup)
		if out.Style != "" {
			style = append(style, out.Style)
		}
		if out.Behavior != "" {
			behavior = append(behavior, out.Behavior)
		}
	}

	decls := map[string]string{
		"display":        "flex",
		"flex-direction": propString(props, "direction"),
		"gap":            fmt.Sprintf("%dpx", int(propNumber(props, "gap"))),
		"padding":        fmt.Sprintf("%dpx", int(propNumber(props, "padding"))),
	}
	if bg := propString(props, "background"); bg != "" {
		decls["background"] = bg
	}

	style = append([]string{styleRule(c, decls)}, style...)
	if evb := eventBehavior(c); evb != "" {
		behavior = append([]string{evb}, behavior...)
	}

	return Output{
		Markup:   fmt.Sprintf("<div %s>\n%s\n</div>", wrapperAttrs(c), strings.Join(markup, "\n")),
		Style:    strings.Join(style, "\n"),
		Behavior: strings.Join(behavior, "\n"),
	}, nil
}

func (r *Renderer) renderDivider(c *model.Component, props map[string]any, _ Context) (Output, error) {
	borderStyle := "solid"
	if propBool(props, "dashed") {
		borderStyle = "dashed"
	}
	return Output{
		Markup: fmt.Sprintf("<hr %s>", wrapperAttrs(c)),
		Style: styleRule(c, map[string]string{
			"border":     "none",
			"border-top": fmt.Sprintf("%dpx %s %s", int(propNumber(props, "thickness")), borderStyle, propString(props, "color")),
		}),
	}, nil
}

func (r *Renderer) renderVideo(c *model.Component, props map[string]any, _ Context) (Output, error) {
	var attrs []string
	if propBool(props, "autoplay") {
		attrs = append(attrs, "autoplay")
	}
	if propBool(props, "loop") {
		attrs = append(attrs, "loop")
	}
	if propBool(props, "muted") {
		attrs = append(attrs, "muted")
	}
	if poster := propString(props, "poster"); poster != "" {
		attrs = append(attrs, fmt.Sprintf("poster=%q", html.EscapeString(poster)))
	}

	extra := ""
	if len(attrs) > 0 {
		extra = " " + strings.Join(attrs, " ")
	}

	return Output{
		Markup: fmt.Sprintf("<video %s src=%q controls%s></video>",
			wrapperAttrs(c), html.EscapeString(propString(props, "src")), extra),
		Style:    styleRule(c, map[string]string{"width": "100%"}),
		Behavior: eventBehavior(c),
	}, nil
}

func (r *Renderer) renderCountdown(c *model.Component, props map[string]any, _ Context) (Output, error) {
	deadline := propString(props, "deadline")

	var b strings.Builder
	fmt.Fprintf(&b, "<div %s data-deadline=%q>", wrapperAttrs(c), html.EscapeString(deadline))
	if title := propString(props, "title"); title != "" {
		fmt.Fprintf(&b, "<span class=\"pf-countdown-title\">%s</span>", html.EscapeString(title))
	}
	b.WriteString("<span class=\"pf-countdown-digits\"></span></div>")

	behavior := fmt.Sprintf("pf.countdown(%q,%q);", nodeID(c), deadline)
	if evb := eventBehavior(c); evb != "" {
		behavior += "\n" + evb
	}

	return Output{
		Markup:   b.String(),
		Style:    styleRule(c, map[string]string{"color": propString(props, "color")}),
		Behavior: behavior,
	}, nil
}

func (r *Renderer) renderSearchBar(c *model.Component, props map[string]any, _ Context) (Output, error) {
	radius := "4px"
	if propBool(props, "rounded") {
		radius = "999px"
	}
	return Output{
		Markup: fmt.Sprintf("<div %s><input type=\"search\" placeholder=%q></div>",
			wrapperAttrs(c), html.EscapeString(propString(props, "placeholder"))),
		Style: styleRule(c, map[string]string{
			"background":    propString(props, "background"),
			"border-radius": radius,
			"padding":       "6px 12px",
		}),
		Behavior: eventBehavior(c),
	}, nil
}

func (r *Renderer) renderTabBar(c *model.Component, props map[string]any, _ Context) (Output, error) {
	tabs, _ := props["tabs"].([]any)

	var b strings.Builder
	fmt.Fprintf(&b, "<nav %s>\n", wrapperAttrs(c))
	for _, raw := range tabs {
		tab, _ := raw.(map[string]any)
		fmt.Fprintf(&b, "<a href=%q class=\"pf-tab\">", html.EscapeString(propString(tab, "link")))
		if icon := propString(tab, "icon"); icon != "" {
			fmt.Fprintf(&b, "<i class=\"pf-icon-%s\"></i>", html.EscapeString(icon))
		}
		fmt.Fprintf(&b, "<span>%s</span></a>\n", html.EscapeString(propString(tab, "title")))
	}
	b.WriteString("</nav>")

	return Output{
		Markup: b.String(),
		Style: styleRule(c, map[string]string{
			"display":         "flex",
			"justify-content": "space-around",
		}) + fmt.Sprintf("\n#%s .pf-tab:hover{color:%s}", nodeID(c), propString(props, "active_color")),
		Behavior: eventBehavior(c),
	}, nil
}

// propString reads a string prop, returning "" for missing or
// non-string values.
func propString(props map[string]any, key string) string {
	s, _ := props[key].(string)
	return s
}

// propNumber reads a numeric prop across the shapes JSON decoding
// produces.
func propNumber(props map[string]any, key string) float64 {
	switch n := props[key].(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func propBool(props map[string]any, key string) bool {
	b, _ := props[key].(bool)
	return b
}

// themeColor applies a context theme override, falling back to the
// component's own value.
func themeColor(ctx Context, key, fallback string) string {
	if ctx.Theme != nil {
		if v, ok := ctx.Theme[key]; ok && v != "" {
			return v
		}
	}
	return fallback
}
