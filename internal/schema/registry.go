// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package schema provides the component schema registry and the
// structural validator for component instances.
package schema

import (
	"fmt"
	"sort"

	"github.com/pageforge/pageforge/internal/model"
)

// Registry is the static catalog mapping a component type key to its
// schema. It is built once at process start and never mutated, so
// concurrent reads need no synchronization.
type Registry struct {
	schemas    map[string]model.ComponentSchema
	types      []string
	categories []string
}

// NewRegistry builds a registry from the given schemas. Duplicate type
// keys are a configuration error.
func NewRegistry(schemas []model.ComponentSchema) (*Registry, error) {
	r := &Registry{
		schemas: make(map[string]model.ComponentSchema, len(schemas)),
	}

	catSeen := make(map[string]bool)
	for _, s := range schemas {
		if s.Type == "" {
			return nil, fmt.Errorf("component schema with empty type")
		}
		if _, exists := r.schemas[s.Type]; exists {
			return nil, fmt.Errorf("component type %q already registered", s.Type)
		}
		for name, def := range s.Properties {
			if !knownKind(def.Kind) {
				return nil, fmt.Errorf("component %q property %q: unknown kind %q", s.Type, name, def.Kind)
			}
		}
		r.schemas[s.Type] = s
		r.types = append(r.types, s.Type)
		if s.Category != "" && !catSeen[s.Category] {
			catSeen[s.Category] = true
			r.categories = append(r.categories, s.Category)
		}
	}

	sort.Strings(r.types)
	sort.Strings(r.categories)
	return r, nil
}

// Default builds the registry seeded with the built-in component
// catalog. It panics on a malformed catalog, which is a programming
// error caught at startup.
func Default() *Registry {
	r, err := NewRegistry(builtinSchemas())
	if err != nil {
		panic(fmt.Sprintf("schema: building default registry: %v", err))
	}
	return r
}

// Get returns the schema for a component type.
func (r *Registry) Get(componentType string) (model.ComponentSchema, bool) {
	s, ok := r.schemas[componentType]
	return s, ok
}

// List returns all registered schemas ordered by type key.
func (r *Registry) List() []model.ComponentSchema {
	out := make([]model.ComponentSchema, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, r.schemas[t])
	}
	return out
}

// ListCategories returns the distinct schema categories, sorted.
func (r *Registry) ListCategories() []string {
	return append([]string(nil), r.categories...)
}

// Types returns the registered type keys, sorted.
func (r *Registry) Types() []string {
	return append([]string(nil), r.types...)
}

// Has reports whether the type is registered.
func (r *Registry) Has(componentType string) bool {
	_, ok := r.schemas[componentType]
	return ok
}

func knownKind(k model.PropertyKind) bool {
	for _, known := range model.KnownPropertyKinds {
		if k == known {
			return true
		}
	}
	return false
}
