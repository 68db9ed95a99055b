// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package model defines the domain types for page configurations,
// components, schemas, publications and the operation log.
package model

import (
	"time"
)

// Page statuses
const (
	PageStatusDraft     = "draft"
	PageStatusPublished = "published"
	PageStatusArchived  = "archived"
)

// Page types
const (
	PageTypeHome         = "home"
	PageTypeCommunity    = "community"
	PageTypeCrowdfunding = "crowdfunding"
	PageTypeProfile      = "profile"
	PageTypeCustom       = "custom"
)

// KnownPageTypes lists every page type the engine accepts on create.
var KnownPageTypes = []string{
	PageTypeHome,
	PageTypeCommunity,
	PageTypeCrowdfunding,
	PageTypeProfile,
	PageTypeCustom,
}

// PageConfig is the persisted description of one renderable page.
type PageConfig struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Slug         string               `json:"slug"`
	PageType     string               `json:"page_type"`
	Status       string               `json:"status"`
	Version      int64                `json:"version"`
	PageSettings map[string]any       `json:"page_settings,omitempty"`
	DIYAreas     map[string]DIYArea   `json:"diy_areas,omitempty"`
	KingKong     *KingKongConfig      `json:"king_kong_config,omitempty"`
	Promotions   map[string]Promotion `json:"promotions,omitempty"`
	Author       string               `json:"author,omitempty"`
	Tags         []string             `json:"tags,omitempty"`
	ScheduledAt  *time.Time           `json:"scheduled_at,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// DIYArea is one operator-composable region of a page. The component
// order is render-significant and preserved exactly on every round trip.
type DIYArea struct {
	Layout     string         `json:"layout"`
	Components []Component    `json:"components"`
	Styles     map[string]any `json:"styles,omitempty"`
}

// Area layouts
const (
	LayoutStack  = "stack"
	LayoutGrid   = "grid"
	LayoutScroll = "scroll"
)

// KingKongConfig is the quick-link grid shown near the top of home pages.
type KingKongConfig struct {
	Enabled bool           `json:"enabled"`
	Columns int            `json:"columns"`
	Items   []KingKongItem `json:"items"`
}

// KingKongItem is a single quick-link entry.
type KingKongItem struct {
	Title     string `json:"title"`
	Icon      string `json:"icon"`
	Link      string `json:"link"`
	SortIndex int    `json:"sort_index"`
}

// Promotion is a promotional slot with an optional activity window.
type Promotion struct {
	Type     string         `json:"type"`
	Config   map[string]any `json:"config,omitempty"`
	Enabled  bool           `json:"enabled"`
	StartsAt *time.Time     `json:"starts_at,omitempty"`
	EndsAt   *time.Time     `json:"ends_at,omitempty"`
}

// ActiveAt reports whether the promotion is enabled and inside its
// activity window at the given instant. A missing bound is open-ended.
func (p Promotion) ActiveAt(t time.Time) bool {
	if !p.Enabled {
		return false
	}
	if p.StartsAt != nil && t.Before(*p.StartsAt) {
		return false
	}
	if p.EndsAt != nil && t.After(*p.EndsAt) {
		return false
	}
	return true
}

// Expired reports whether the promotion window has closed.
func (p Promotion) Expired(t time.Time) bool {
	return p.EndsAt != nil && t.After(*p.EndsAt)
}

// IsPublished returns true if the page is published.
func (p *PageConfig) IsPublished() bool {
	return p.Status == PageStatusPublished
}

// IsDraft returns true if the page is a draft.
func (p *PageConfig) IsDraft() bool {
	return p.Status == PageStatusDraft
}

// Components returns every component in the page, walking all DIY areas
// and nested children depth-first.
func (p *PageConfig) Components() []*Component {
	var out []*Component
	for area := range p.DIYAreas {
		a := p.DIYAreas[area]
		for i := range a.Components {
			a.Components[i].Walk(func(c *Component) {
				out = append(out, c)
			})
		}
	}
	return out
}

// ComponentIDsUnique reports whether every component id in the page's
// full tree occurs exactly once.
func (p *PageConfig) ComponentIDsUnique() bool {
	seen := make(map[string]bool)
	for _, c := range p.Components() {
		if seen[c.ID] {
			return false
		}
		seen[c.ID] = true
	}
	return true
}

// Clone returns a deep copy of the page config sharing no mutable state
// with the original.
func (p *PageConfig) Clone() *PageConfig {
	out := *p
	out.PageSettings = cloneMap(p.PageSettings)
	if p.DIYAreas != nil {
		out.DIYAreas = make(map[string]DIYArea, len(p.DIYAreas))
		for id, area := range p.DIYAreas {
			cloned := DIYArea{
				Layout: area.Layout,
				Styles: cloneMap(area.Styles),
			}
			if area.Components != nil {
				cloned.Components = make([]Component, len(area.Components))
				for i := range area.Components {
					cloned.Components[i] = area.Components[i].Clone()
				}
			}
			out.DIYAreas[id] = cloned
		}
	}
	if p.KingKong != nil {
		kk := *p.KingKong
		kk.Items = append([]KingKongItem(nil), p.KingKong.Items...)
		out.KingKong = &kk
	}
	if p.Promotions != nil {
		out.Promotions = make(map[string]Promotion, len(p.Promotions))
		for id, promo := range p.Promotions {
			cloned := promo
			cloned.Config = cloneMap(promo.Config)
			if promo.StartsAt != nil {
				t := *promo.StartsAt
				cloned.StartsAt = &t
			}
			if promo.EndsAt != nil {
				t := *promo.EndsAt
				cloned.EndsAt = &t
			}
			out.Promotions[id] = cloned
		}
	}
	out.Tags = append([]string(nil), p.Tags...)
	if p.ScheduledAt != nil {
		t := *p.ScheduledAt
		out.ScheduledAt = &t
	}
	return &out
}

// ValidPageType reports whether t is a known page type.
func ValidPageType(t string) bool {
	for _, known := range KnownPageTypes {
		if t == known {
			return true
		}
	}
	return false
}
