package store

import (
	"context"
	"time"
)

// Template is a templates table row: a named, pre-configured component
// tree operators can drop into a page. Component holds the tree JSON.
type Template struct {
	ID          string
	Name        string
	Category    string
	Description string
	Component   string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateTemplateParams holds the values for inserting a template.
type CreateTemplateParams struct {
	ID          string
	Name        string
	Category    string
	Description string
	Component   string
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreateTemplate inserts a template row.
func (q *Queries) CreateTemplate(ctx context.Context, arg CreateTemplateParams) (Template, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO templates (id, name, category, description, component, created_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.Name, arg.Category, arg.Description, arg.Component,
		arg.CreatedBy, arg.CreatedAt, arg.UpdatedAt,
	)
	if err != nil {
		return Template{}, err
	}
	return q.GetTemplate(ctx, arg.ID)
}

// GetTemplate returns a template row by id.
func (q *Queries) GetTemplate(ctx context.Context, id string) (Template, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, name, category, description, component, created_by, created_at, updated_at
		FROM templates WHERE id = ?`, id)
	var t Template
	err := row.Scan(&t.ID, &t.Name, &t.Category, &t.Description, &t.Component,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// UpdateTemplateParams holds the values for updating a template.
type UpdateTemplateParams struct {
	ID          string
	Name        string
	Category    string
	Description string
	Component   string
	UpdatedAt   time.Time
}

// UpdateTemplate writes the new state of a template row.
func (q *Queries) UpdateTemplate(ctx context.Context, arg UpdateTemplateParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE templates SET name = ?, category = ?, description = ?, component = ?, updated_at = ?
		WHERE id = ?`,
		arg.Name, arg.Category, arg.Description, arg.Component, arg.UpdatedAt, arg.ID,
	)
	return err
}

// DeleteTemplate removes a template row.
func (q *Queries) DeleteTemplate(ctx context.Context, id string) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	return err
}

// ListTemplates returns templates, optionally narrowed to a category,
// ordered by name.
func (q *Queries) ListTemplates(ctx context.Context, category string) ([]Template, error) {
	query := `
		SELECT id, name, category, description, component, created_by, created_at, updated_at
		FROM templates`
	var args []any
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY name"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Category, &t.Description, &t.Component,
			&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
