// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package schema

import (
	"sort"
	"testing"

	"github.com/pageforge/pageforge/internal/model"
)

func TestDefaultRegistry(t *testing.T) {
	r := Default()

	for _, typ := range []string{
		TypeText, TypeImage, TypeButton, TypeIcon, TypeBanner, TypeProductCard,
		TypeContainer, TypeDivider, TypeVideo, TypeCountdown, TypeSearchBar, TypeTabBar,
	} {
		if !r.Has(typ) {
			t.Errorf("built-in type %q missing from registry", typ)
		}
	}
	if r.Has("hologram") {
		t.Error("unknown type reported as registered")
	}

	types := r.Types()
	if !sort.StringsAreSorted(types) {
		t.Errorf("Types() not sorted: %v", types)
	}
	if len(types) != len(r.List()) {
		t.Errorf("Types and List disagree: %d vs %d", len(types), len(r.List()))
	}

	cats := r.ListCategories()
	if !sort.StringsAreSorted(cats) {
		t.Errorf("ListCategories() not sorted: %v", cats)
	}
	found := false
	for _, c := range cats {
		if c == CategoryMarketing {
			found = true
		}
	}
	if !found {
		t.Errorf("marketing category missing: %v", cats)
	}
}

func TestNewRegistry_RejectsBadCatalogs(t *testing.T) {
	tests := []struct {
		name    string
		schemas []model.ComponentSchema
	}{
		{
			name: "empty type key",
			schemas: []model.ComponentSchema{
				{Type: "", Name: "Broken"},
			},
		},
		{
			name: "duplicate type key",
			schemas: []model.ComponentSchema{
				{Type: "text", Name: "Text"},
				{Type: "text", Name: "Text Again"},
			},
		},
		{
			name: "unknown property kind",
			schemas: []model.ComponentSchema{
				{Type: "widget", Name: "Widget", Properties: map[string]model.PropertyDef{
					"blob": {Kind: "quantum"},
				}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewRegistry(tt.schemas); err == nil {
				t.Error("NewRegistry accepted a malformed catalog")
			}
		})
	}
}
