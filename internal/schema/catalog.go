// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package schema

import "github.com/pageforge/pageforge/internal/model"

// Schema categories
const (
	CategoryBasic      = "basic"
	CategoryMedia      = "media"
	CategoryLayout     = "layout"
	CategoryCommerce   = "commerce"
	CategoryNavigation = "navigation"
	CategoryMarketing  = "marketing"
)

// Component type keys
const (
	TypeText        = "text"
	TypeImage       = "image"
	TypeButton      = "button"
	TypeIcon        = "icon"
	TypeBanner      = "banner"
	TypeProductCard = "product-card"
	TypeContainer   = "container"
	TypeDivider     = "divider"
	TypeVideo       = "video"
	TypeCountdown   = "countdown"
	TypeSearchBar   = "search-bar"
	TypeTabBar      = "tab-bar"
)

func floatPtr(f float64) *float64 { return &f }

// builtinSchemas returns the built-in component catalog. Adding a type
// here requires a matching render handler; the renderer's startup check
// enforces the pairing.
func builtinSchemas() []model.ComponentSchema {
	return []model.ComponentSchema{
		{
			Type:     TypeText,
			Name:     "Text",
			Category: CategoryBasic,
			Icon:     "type",
			Properties: map[string]model.PropertyDef{
				"content":  {Kind: model.KindText, Label: "Content", Required: true, MaxLength: 20000},
				"markdown": {Kind: model.KindBoolean, Label: "Render as Markdown", Default: false},
				"align": {
					Kind: model.KindSelect, Label: "Alignment",
					Options: []string{"left", "center", "right"},
					Default: "left",
				},
				"size":  {Kind: model.KindNumber, Label: "Font size", Min: floatPtr(10), Max: floatPtr(72), Default: float64(14)},
				"color": {Kind: model.KindColor, Label: "Text color", Default: "#1f2329"},
			},
		},
		{
			Type:     TypeImage,
			Name:     "Image",
			Category: CategoryMedia,
			Icon:     "image",
			Properties: map[string]model.PropertyDef{
				"src":    {Kind: model.KindImage, Label: "Image", Required: true},
				"alt":    {Kind: model.KindText, Label: "Alt text", MaxLength: 200, Default: ""},
				"link":   {Kind: model.KindURL, Label: "Link"},
				"radius": {Kind: model.KindNumber, Label: "Corner radius", Min: floatPtr(0), Max: floatPtr(48), Default: float64(0)},
				"mode": {
					Kind: model.KindSelect, Label: "Fit mode",
					Options: []string{"cover", "contain", "fill"},
					Default: "cover",
				},
			},
		},
		{
			Type:     TypeButton,
			Name:     "Button",
			Category: CategoryBasic,
			Icon:     "square",
			Properties: map[string]model.PropertyDef{
				"text":       {Kind: model.KindText, Label: "Label", Required: true, MaxLength: 40},
				"link":       {Kind: model.KindURL, Label: "Target"},
				"background": {Kind: model.KindColor, Label: "Background", Default: "#0a84ff"},
				"color":      {Kind: model.KindColor, Label: "Text color", Default: "#ffffff"},
				"block":      {Kind: model.KindBoolean, Label: "Full width", Default: false},
				"variant": {
					Kind: model.KindSelect, Label: "Variant",
					Options: []string{"solid", "outline", "text"},
					Default: "solid",
				},
			},
		},
		{
			Type:     TypeIcon,
			Name:     "Icon",
			Category: CategoryBasic,
			Icon:     "star",
			Properties: map[string]model.PropertyDef{
				"name":  {Kind: model.KindText, Label: "Icon name", Required: true, MaxLength: 64},
				"size":  {Kind: model.KindNumber, Label: "Size", Min: floatPtr(12), Max: floatPtr(128), Default: float64(24)},
				"color": {Kind: model.KindColor, Label: "Color", Default: "#1f2329"},
				"link":  {Kind: model.KindURL, Label: "Link"},
			},
		},
		{
			Type:     TypeBanner,
			Name:     "Banner",
			Category: CategoryMarketing,
			Icon:     "layout",
			Properties: map[string]model.PropertyDef{
				"slides": {
					Kind: model.KindArray, Label: "Slides", Required: true,
					Item: &model.PropertyDef{
						Kind: model.KindObject,
						Fields: map[string]model.PropertyDef{
							"image": {Kind: model.KindImage, Required: true},
							"title": {Kind: model.KindText, MaxLength: 80},
							"link":  {Kind: model.KindURL},
						},
					},
				},
				"autoplay": {Kind: model.KindBoolean, Label: "Autoplay", Default: true},
				"interval": {Kind: model.KindNumber, Label: "Interval (ms)", Min: floatPtr(1000), Max: floatPtr(30000), Default: float64(4000)},
				"height":   {Kind: model.KindNumber, Label: "Height", Min: floatPtr(80), Max: floatPtr(640), Default: float64(180)},
			},
		},
		{
			Type:     TypeProductCard,
			Name:     "Product Card",
			Category: CategoryCommerce,
			Icon:     "shopping-bag",
			Properties: map[string]model.PropertyDef{
				"title":      {Kind: model.KindText, Label: "Title", Required: true, MaxLength: 120},
				"image":      {Kind: model.KindImage, Label: "Image", Required: true},
				"price":      {Kind: model.KindNumber, Label: "Price", Min: floatPtr(0)},
				"original":   {Kind: model.KindNumber, Label: "Original price", Min: floatPtr(0)},
				"link":       {Kind: model.KindURL, Label: "Product link"},
				"show_price": {Kind: model.KindBoolean, Label: "Show price", Default: true},
				"badge": {
					Kind: model.KindSelect, Label: "Badge",
					Options: []string{"none", "new", "hot", "sale"},
					Default: "none",
				},
			},
		},
		{
			Type:      TypeContainer,
			Name:      "Container",
			Category:  CategoryLayout,
			Icon:      "box",
			Container: true,
			Properties: map[string]model.PropertyDef{
				"direction": {
					Kind: model.KindSelect, Label: "Direction",
					Options: []string{"row", "column"},
					Default: "column",
				},
				"gap":        {Kind: model.KindNumber, Label: "Gap", Min: floatPtr(0), Max: floatPtr(64), Default: float64(8)},
				"padding":    {Kind: model.KindNumber, Label: "Padding", Min: floatPtr(0), Max: floatPtr(64), Default: float64(0)},
				"background": {Kind: model.KindColor, Label: "Background"},
			},
		},
		{
			Type:     TypeDivider,
			Name:     "Divider",
			Category: CategoryLayout,
			Icon:     "minus",
			Properties: map[string]model.PropertyDef{
				"thickness": {Kind: model.KindNumber, Label: "Thickness", Min: floatPtr(1), Max: floatPtr(16), Default: float64(1)},
				"color":     {Kind: model.KindColor, Label: "Color", Default: "#e5e6eb"},
				"dashed":    {Kind: model.KindBoolean, Label: "Dashed", Default: false},
			},
		},
		{
			Type:     TypeVideo,
			Name:     "Video",
			Category: CategoryMedia,
			Icon:     "video",
			Properties: map[string]model.PropertyDef{
				"src":      {Kind: model.KindURL, Label: "Video URL", Required: true},
				"poster":   {Kind: model.KindImage, Label: "Poster"},
				"autoplay": {Kind: model.KindBoolean, Label: "Autoplay", Default: false},
				"loop":     {Kind: model.KindBoolean, Label: "Loop", Default: false},
				"muted":    {Kind: model.KindBoolean, Label: "Muted", Default: true},
			},
		},
		{
			Type:     TypeCountdown,
			Name:     "Countdown",
			Category: CategoryMarketing,
			Icon:     "clock",
			Properties: map[string]model.PropertyDef{
				"deadline": {Kind: model.KindText, Label: "Deadline (RFC 3339)", Required: true},
				"title":    {Kind: model.KindText, Label: "Title", MaxLength: 80, Default: ""},
				"color":    {Kind: model.KindColor, Label: "Digit color", Default: "#1f2329"},
			},
		},
		{
			Type:     TypeSearchBar,
			Name:     "Search Bar",
			Category: CategoryNavigation,
			Icon:     "search",
			Properties: map[string]model.PropertyDef{
				"placeholder": {Kind: model.KindText, Label: "Placeholder", MaxLength: 60, Default: "Search"},
				"rounded":     {Kind: model.KindBoolean, Label: "Rounded", Default: true},
				"background":  {Kind: model.KindColor, Label: "Background", Default: "#f2f3f5"},
			},
		},
		{
			Type:     TypeTabBar,
			Name:     "Tab Bar",
			Category: CategoryNavigation,
			Icon:     "columns",
			Properties: map[string]model.PropertyDef{
				"tabs": {
					Kind: model.KindArray, Label: "Tabs", Required: true,
					Item: &model.PropertyDef{
						Kind: model.KindObject,
						Fields: map[string]model.PropertyDef{
							"title": {Kind: model.KindText, Required: true, MaxLength: 20},
							"icon":  {Kind: model.KindText},
							"link":  {Kind: model.KindURL, Required: true},
						},
					},
				},
				"active_color": {Kind: model.KindColor, Label: "Active color", Default: "#0a84ff"},
			},
		},
	}
}
