// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import "github.com/pageforge/pageforge/internal/model"

// defaultConfig returns the structural scaffold a new page of the
// given type starts from. Caller-supplied initial config is deep-merged
// over this scaffold, so a "home" page always carries an
// empty-but-structured quick-link grid even when the caller supplies
// nothing.
func defaultConfig(pageType string) map[string]any {
	base := map[string]any{
		"page_settings": map[string]any{
			"background": "#ffffff",
			"title_bar":  true,
		},
		"diy_areas": map[string]any{
			"main": map[string]any{
				"layout":     model.LayoutStack,
				"components": []any{},
			},
		},
	}

	switch pageType {
	case model.PageTypeHome:
		base["king_kong_config"] = map[string]any{
			"enabled": true,
			"columns": 4,
			"items":   []any{},
		}
		base["promotions"] = map[string]any{}
	case model.PageTypeCommunity:
		base["diy_areas"].(map[string]any)["feed"] = map[string]any{
			"layout":     model.LayoutScroll,
			"components": []any{},
		}
	case model.PageTypeCrowdfunding:
		base["promotions"] = map[string]any{}
	}

	return base
}
