// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package schema

import (
	"fmt"
	"sort"

	"github.com/pageforge/pageforge/internal/model"
)

// Result is the outcome of validating one component instance.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validator checks component instances against their declared schemas.
// Validation is purely structural: it interprets the PropertyDef variant
// and never applies cross-field business rules.
type Validator struct {
	registry *Registry
}

// NewValidator creates a validator over the given registry.
func NewValidator(registry *Registry) *Validator {
	return &Validator{registry: registry}
}

// Validate checks a single component's properties against its schema.
// An unknown type short-circuits with a single error. Children are not
// descended into; use ValidateTree for whole trees.
func (v *Validator) Validate(c *model.Component) Result {
	s, ok := v.registry.Get(c.Type)
	if !ok {
		return Result{Valid: false, Errors: []string{fmt.Sprintf("unknown component type: %s", c.Type)}}
	}

	var errs []string
	for _, name := range sortedPropertyNames(s.Properties) {
		def := s.Properties[name]
		val, present := c.Props[name]
		if !present {
			if def.Required {
				errs = append(errs, fmt.Sprintf("missing required property: %s", name))
			}
			continue
		}
		errs = append(errs, checkKind(name, def, val)...)
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// ValidateTree validates a component and all its descendants, plus the
// tree-level invariant that component ids are unique. Errors are
// prefixed with the offending component's id.
func (v *Validator) ValidateTree(components []model.Component) Result {
	var errs []string
	seen := make(map[string]bool)

	for i := range components {
		components[i].Walk(func(c *model.Component) {
			if c.ID != "" {
				if seen[c.ID] {
					errs = append(errs, fmt.Sprintf("%s: duplicate component id", c.ID))
				}
				seen[c.ID] = true
			}
			res := v.Validate(c)
			for _, e := range res.Errors {
				errs = append(errs, fmt.Sprintf("%s: %s", c.ID, e))
			}
		})
	}

	return Result{Valid: len(errs) == 0, Errors: errs}
}

// checkKind verifies that a present value conforms to its declared
// kind and kind-specific constraints. Array and object kinds recurse
// through their item and field definitions.
func checkKind(name string, def model.PropertyDef, val any) []string {
	switch def.Kind {
	case model.KindText, model.KindColor, model.KindImage, model.KindURL:
		s, ok := val.(string)
		if !ok {
			return []string{fmt.Sprintf("property %s must be a string", name)}
		}
		if def.MaxLength > 0 && len(s) > def.MaxLength {
			return []string{fmt.Sprintf("property %s exceeds max length %d", name, def.MaxLength)}
		}
		return nil

	case model.KindNumber:
		n, ok := asNumber(val)
		if !ok {
			return []string{fmt.Sprintf("property %s must be a number", name)}
		}
		if def.Min != nil && n < *def.Min {
			return []string{fmt.Sprintf("property %s below minimum %v", name, *def.Min)}
		}
		if def.Max != nil && n > *def.Max {
			return []string{fmt.Sprintf("property %s above maximum %v", name, *def.Max)}
		}
		return nil

	case model.KindBoolean:
		if _, ok := val.(bool); !ok {
			return []string{fmt.Sprintf("property %s must be a boolean", name)}
		}
		return nil

	case model.KindSelect:
		s, ok := val.(string)
		if !ok {
			return []string{fmt.Sprintf("property %s must be a string", name)}
		}
		for _, opt := range def.Options {
			if s == opt {
				return nil
			}
		}
		return []string{fmt.Sprintf("property %s: %q is not an allowed option", name, s)}

	case model.KindArray:
		items, ok := val.([]any)
		if !ok {
			return []string{fmt.Sprintf("property %s must be an array", name)}
		}
		if def.Item == nil {
			return nil
		}
		var errs []string
		for i, item := range items {
			errs = append(errs, checkKind(fmt.Sprintf("%s[%d]", name, i), *def.Item, item)...)
		}
		return errs

	case model.KindObject:
		obj, ok := val.(map[string]any)
		if !ok {
			return []string{fmt.Sprintf("property %s must be an object", name)}
		}
		var errs []string
		for _, field := range sortedPropertyNames(def.Fields) {
			fdef := def.Fields[field]
			fval, present := obj[field]
			if !present {
				if fdef.Required {
					errs = append(errs, fmt.Sprintf("missing required property: %s.%s", name, field))
				}
				continue
			}
			errs = append(errs, checkKind(name+"."+field, fdef, fval)...)
		}
		return errs

	default:
		return []string{fmt.Sprintf("property %s has unknown kind %q", name, def.Kind)}
	}
}

// sortedPropertyNames returns property names in a stable order so
// validation errors are deterministic.
func sortedPropertyNames(m map[string]model.PropertyDef) []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// asNumber accepts the numeric shapes JSON decoding and Go callers
// produce.
func asNumber(val any) (float64, bool) {
	switch n := val.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
