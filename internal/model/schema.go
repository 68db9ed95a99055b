// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

// PropertyKind is the declared kind of a component property.
type PropertyKind string

// Property kinds
const (
	KindText    PropertyKind = "text"
	KindNumber  PropertyKind = "number"
	KindBoolean PropertyKind = "boolean"
	KindColor   PropertyKind = "color"
	KindImage   PropertyKind = "image"
	KindURL     PropertyKind = "url"
	KindSelect  PropertyKind = "select"
	KindArray   PropertyKind = "array"
	KindObject  PropertyKind = "object"
)

// KnownPropertyKinds lists every kind the validator understands.
var KnownPropertyKinds = []PropertyKind{
	KindText, KindNumber, KindBoolean, KindColor, KindImage,
	KindURL, KindSelect, KindArray, KindObject,
}

// PropertyDef declares one property of a component schema: its kind,
// kind-specific constraints and an optional default.
type PropertyDef struct {
	Kind      PropertyKind           `json:"kind"`
	Label     string                 `json:"label,omitempty"`
	Required  bool                   `json:"required,omitempty"`
	Default   any                    `json:"default,omitempty"`
	Min       *float64               `json:"min,omitempty"`
	Max       *float64               `json:"max,omitempty"`
	MaxLength int                    `json:"max_length,omitempty"`
	Options   []string               `json:"options,omitempty"`
	Item      *PropertyDef           `json:"item,omitempty"`
	Fields    map[string]PropertyDef `json:"fields,omitempty"`
}

// ComponentSchema is the declarative contract for one component type.
type ComponentSchema struct {
	Type       string                 `json:"type"`
	Name       string                 `json:"name"`
	Category   string                 `json:"category"`
	Icon       string                 `json:"icon,omitempty"`
	Container  bool                   `json:"container,omitempty"`
	Properties map[string]PropertyDef `json:"properties"`
}

// Defaults returns the schema's declared default values for every
// property that has one.
func (s ComponentSchema) Defaults() map[string]any {
	out := make(map[string]any)
	for name, def := range s.Properties {
		if def.Default != nil {
			out[name] = def.Default
		}
	}
	return out
}
