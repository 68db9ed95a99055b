// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the business logic for page configurations:
// CRUD with versioning, deep-merge updates, publication workflow,
// template library and the append-only operation log.
package service

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pageforge/pageforge/internal/model"
)

// encodeConfig serializes a page configuration document for storage.
func encodeConfig(cfg *model.PageConfig) (string, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encoding page config: %w", err)
	}
	return string(data), nil
}

// decodeConfig deserializes a stored page configuration document.
func decodeConfig(raw string) (*model.PageConfig, error) {
	var cfg model.PageConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("decoding page config: %w", err)
	}
	return &cfg, nil
}

// configToMap converts a typed configuration to its JSON map shape for
// structural merging.
func configToMap(cfg *model.PageConfig) (map[string]any, error) {
	data, err := json.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("encoding page config: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding page config map: %w", err)
	}
	return m, nil
}

// mapToConfig converts a JSON map shape back to the typed
// configuration, rejecting shapes that do not fit the document model.
func mapToConfig(m map[string]any) (*model.PageConfig, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encoding merged config: %w", err)
	}
	var cfg model.PageConfig
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, model.NewValidationError("config does not match the page document model: %v", err)
	}
	return &cfg, nil
}

// protectedFields are managed by the engine and ignored when supplied
// in an update patch.
var protectedFields = []string{"id", "page_type", "status", "version", "created_at", "updated_at", "slug"}

// stripProtected removes engine-managed fields from an incoming patch
// so callers cannot tamper with identity, status or version bookkeeping
// through a partial update.
func stripProtected(patch map[string]any) map[string]any {
	if patch == nil {
		return nil
	}
	out := make(map[string]any, len(patch))
	for k, v := range patch {
		out[k] = v
	}
	for _, f := range protectedFields {
		delete(out, f)
	}
	return out
}
