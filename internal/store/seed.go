// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pageforge/pageforge/internal/model"
)

// Seed creates sample content in an empty database. It is a no-op when
// disabled or when pages already exist.
func Seed(ctx context.Context, db *sql.DB, enabled bool) error {
	if !enabled {
		return nil
	}

	queries := New(db)

	total, err := queries.CountPages(ctx, PageFilter{})
	if err != nil {
		return fmt.Errorf("counting pages: %w", err)
	}
	if total > 0 {
		slog.Info("database already has pages, skipping seed")
		return nil
	}

	now := time.Now().UTC()
	cfg := model.PageConfig{
		ID:       uuid.NewString(),
		Name:     "Welcome Home",
		Slug:     "welcome-home",
		PageType: model.PageTypeHome,
		Status:   model.PageStatusDraft,
		Version:  1,
		PageSettings: map[string]any{
			"background": "#ffffff",
			"title_bar":  true,
		},
		DIYAreas: map[string]model.DIYArea{
			"main": {
				Layout: model.LayoutStack,
				Components: []model.Component{
					{
						ID:    uuid.NewString(),
						Type:  "text",
						Props: map[string]any{"content": "Welcome to your new storefront."},
					},
				},
			},
		},
		KingKong: &model.KingKongConfig{
			Enabled: true,
			Columns: 4,
			Items: []model.KingKongItem{
				{Title: "New Arrivals", Icon: "sparkle", Link: "/new", SortIndex: 0},
				{Title: "Deals", Icon: "tag", Link: "/deals", SortIndex: 1},
			},
		},
		Author:    "seed",
		CreatedAt: now,
		UpdatedAt: now,
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding seed page: %w", err)
	}

	page, err := queries.CreatePage(ctx, CreatePageParams{
		ID:        cfg.ID,
		Name:      cfg.Name,
		Slug:      cfg.Slug,
		PageType:  cfg.PageType,
		Status:    cfg.Status,
		Version:   cfg.Version,
		Config:    string(raw),
		Author:    cfg.Author,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return fmt.Errorf("creating seed page: %w", err)
	}

	hero := model.Component{
		ID:   uuid.NewString(),
		Type: "banner",
		Props: map[string]any{
			"slides": []any{
				map[string]any{
					"image": "https://cdn.example.com/banners/sale.png",
					"title": "Seasonal Sale",
				},
			},
			"autoplay": true,
		},
	}
	heroRaw, err := json.Marshal(hero)
	if err != nil {
		return fmt.Errorf("encoding seed template: %w", err)
	}
	if _, err := queries.CreateTemplate(ctx, CreateTemplateParams{
		ID:          uuid.NewString(),
		Name:        "Hero Banner",
		Category:    "marketing",
		Description: "Full-width banner for campaign landings",
		Component:   string(heroRaw),
		CreatedBy:   "seed",
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		return fmt.Errorf("creating seed template: %w", err)
	}

	slog.Info("seeded sample content", "page_id", page.ID)
	return nil
}
