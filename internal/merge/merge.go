// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package merge implements the structural deep merge used for partial
// page-configuration updates.
//
// Precedence: at every leaf the incoming value wins. Maps merge
// recursively key by key; any other value, including slices, replaces
// the existing value wholesale. Slices are never merged element-wise
// because component order inside an area is render-significant and a
// partial update supplies an area's full component sequence.
package merge

// Deep merges patch into base and returns the result. Neither input is
// mutated; shared subtrees are copied before modification. A nil value
// in patch overwrites (callers strip keys they do not want applied).
func Deep(base, patch map[string]any) map[string]any {
	if base == nil && patch == nil {
		return nil
	}

	out := make(map[string]any, len(base)+len(patch))
	for k, v := range base {
		out[k] = copyValue(v)
	}
	for k, incoming := range patch {
		existing, ok := out[k]
		if !ok {
			out[k] = copyValue(incoming)
			continue
		}
		existingMap, eOK := existing.(map[string]any)
		incomingMap, iOK := incoming.(map[string]any)
		if eOK && iOK {
			out[k] = Deep(existingMap, incomingMap)
			continue
		}
		out[k] = copyValue(incoming)
	}
	return out
}

// copyValue deep-copies JSON-shaped values so merge results never
// alias their inputs.
func copyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = copyValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = copyValue(item)
		}
		return out
	default:
		return v
	}
}
