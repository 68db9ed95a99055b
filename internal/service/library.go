// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/render"
	"github.com/pageforge/pageforge/internal/schema"
	"github.com/pageforge/pageforge/internal/store"
)

// LibraryService exposes the component catalog: registered schemas plus
// operator-defined templates, with preview rendering over both.
type LibraryService struct {
	queries  *store.Queries
	registry *schema.Registry
	validate *schema.Validator
	renderer *render.Renderer
	timeout  time.Duration
}

// NewLibraryService creates a LibraryService.
func NewLibraryService(db *sql.DB, registry *schema.Registry, renderer *render.Renderer) *LibraryService {
	return &LibraryService{
		queries:  store.New(db),
		registry: registry,
		validate: schema.NewValidator(registry),
		renderer: renderer,
		timeout:  defaultTimeout,
	}
}

// Template is a named, pre-configured component tree operators can drop
// into a page.
type Template struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
	Component   model.Component `json:"component"`
	CreatedBy   string          `json:"created_by,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// CreateTemplateParams describes a template creation request.
type CreateTemplateParams struct {
	Name        string
	Category    string
	Description string
	Component   model.Component
	Actor       string
}

// CreateTemplate validates and persists a new template.
func (s *LibraryService) CreateTemplate(ctx context.Context, params CreateTemplateParams) (*Template, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, model.NewValidationError("template name is required")
	}
	if err := s.validateTree(params.Component); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(params.Component)
	if err != nil {
		return nil, model.NewValidationError("encoding template component: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now().UTC()
	row, err := s.queries.CreateTemplate(ctx, store.CreateTemplateParams{
		ID:          uuid.NewString(),
		Name:        params.Name,
		Category:    params.Category,
		Description: params.Description,
		Component:   string(raw),
		CreatedBy:   params.Actor,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return nil, model.NewPersistenceError("creating template", err)
	}
	return templateFromRow(row)
}

// GetTemplate returns a template by id.
func (s *LibraryService) GetTemplate(ctx context.Context, id string) (*Template, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	row, err := s.queries.GetTemplate(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.NewNotFoundError("template", id)
		}
		return nil, model.NewPersistenceError("loading template", err)
	}
	return templateFromRow(row)
}

// UpdateTemplateParams describes a template update request.
type UpdateTemplateParams struct {
	Name        string
	Category    string
	Description string
	Component   model.Component
}

// UpdateTemplate validates and overwrites an existing template.
func (s *LibraryService) UpdateTemplate(ctx context.Context, id string, params UpdateTemplateParams) (*Template, error) {
	if strings.TrimSpace(params.Name) == "" {
		return nil, model.NewValidationError("template name is required")
	}
	if err := s.validateTree(params.Component); err != nil {
		return nil, err
	}

	raw, err := json.Marshal(params.Component)
	if err != nil {
		return nil, model.NewValidationError("encoding template component: %v", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.queries.GetTemplate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.NewNotFoundError("template", id)
		}
		return nil, model.NewPersistenceError("loading template", err)
	}
	if err := s.queries.UpdateTemplate(ctx, store.UpdateTemplateParams{
		ID:          id,
		Name:        params.Name,
		Category:    params.Category,
		Description: params.Description,
		Component:   string(raw),
		UpdatedAt:   time.Now().UTC(),
	}); err != nil {
		return nil, model.NewPersistenceError("updating template", err)
	}
	return s.GetTemplate(ctx, id)
}

// DeleteTemplate removes a template.
func (s *LibraryService) DeleteTemplate(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.queries.GetTemplate(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.NewNotFoundError("template", id)
		}
		return model.NewPersistenceError("loading template", err)
	}
	if err := s.queries.DeleteTemplate(ctx, id); err != nil {
		return model.NewPersistenceError("deleting template", err)
	}
	return nil
}

// ListTemplates returns templates ordered by name, optionally narrowed
// to a category.
func (s *LibraryService) ListTemplates(ctx context.Context, category string) ([]*Template, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.queries.ListTemplates(ctx, category)
	if err != nil {
		return nil, model.NewPersistenceError("listing templates", err)
	}
	out := make([]*Template, 0, len(rows))
	for _, row := range rows {
		t, err := templateFromRow(row)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// RenderComponent validates and renders a single component instance.
func (s *LibraryService) RenderComponent(c *model.Component, rctx render.Context) (render.Output, error) {
	if res := s.validate.ValidateTree([]model.Component{*c}); !res.Valid {
		return render.Output{}, model.NewValidationError("component is not renderable: %s", strings.Join(res.Errors, "; "))
	}
	rctx.IsPreview = true
	return s.renderer.Render(c, rctx), nil
}

// PreviewTemplate renders a stored template's component tree.
func (s *LibraryService) PreviewTemplate(ctx context.Context, id string, rctx render.Context) (render.Document, error) {
	t, err := s.GetTemplate(ctx, id)
	if err != nil {
		return render.Document{}, err
	}
	rctx.IsPreview = true
	return s.renderer.RenderTree([]model.Component{t.Component}, rctx), nil
}

// CatalogEntry is one component type in the catalog listing, combining
// the registered schema with any templates built on it.
type CatalogEntry struct {
	Schema    model.ComponentSchema `json:"schema"`
	Templates []*Template           `json:"templates,omitempty"`
}

// Catalog lists every registered component schema in registration order,
// each with the persisted templates whose root uses that type.
func (s *LibraryService) Catalog(ctx context.Context) ([]CatalogEntry, error) {
	templates, err := s.ListTemplates(ctx, "")
	if err != nil {
		return nil, err
	}
	byType := make(map[string][]*Template)
	for _, t := range templates {
		byType[t.Component.Type] = append(byType[t.Component.Type], t)
	}

	schemas := s.registry.List()
	out := make([]CatalogEntry, 0, len(schemas))
	for _, sc := range schemas {
		out = append(out, CatalogEntry{Schema: sc, Templates: byType[sc.Type]})
	}
	return out, nil
}

func (s *LibraryService) validateTree(root model.Component) error {
	res := s.validate.ValidateTree([]model.Component{root})
	if !res.Valid {
		return model.NewValidationError("invalid component tree: %s", strings.Join(res.Errors, "; "))
	}
	return nil
}

func templateFromRow(row store.Template) (*Template, error) {
	var c model.Component
	if err := json.Unmarshal([]byte(row.Component), &c); err != nil {
		return nil, model.NewPersistenceError("decoding template component", err)
	}
	return &Template{
		ID:          row.ID,
		Name:        row.Name,
		Category:    row.Category,
		Description: row.Description,
		Component:   c,
		CreatedBy:   row.CreatedBy,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}, nil
}
