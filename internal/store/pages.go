package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Page is a pages table row. Config holds the full page configuration
// document as JSON; the remaining columns mirror the queryable
// attributes so list filtering never decodes config payloads.
type Page struct {
	ID          string
	Name        string
	Slug        string
	PageType    string
	Status      string
	Version     int64
	Config      string
	Author      string
	ScheduledAt sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PageSummary is a pages row without the config payload, returned from
// list queries for performance.
type PageSummary struct {
	ID        string
	Name      string
	Slug      string
	PageType  string
	Status    string
	Version   int64
	Author    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CreatePageParams holds the values for inserting a page row.
type CreatePageParams struct {
	ID          string
	Name        string
	Slug        string
	PageType    string
	Status      string
	Version     int64
	Config      string
	Author      string
	ScheduledAt sql.NullTime
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CreatePage inserts a page row.
func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (Page, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO pages (id, name, slug, page_type, status, version, config, author, scheduled_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.Name, arg.Slug, arg.PageType, arg.Status, arg.Version,
		arg.Config, arg.Author, arg.ScheduledAt, arg.CreatedAt, arg.UpdatedAt,
	)
	if err != nil {
		return Page{}, err
	}
	return q.GetPage(ctx, arg.ID)
}

// GetPage returns a page row by id.
func (q *Queries) GetPage(ctx context.Context, id string) (Page, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, name, slug, page_type, status, version, config, author, scheduled_at, created_at, updated_at
		FROM pages WHERE id = ?`, id)
	return scanPage(row)
}

// GetPageBySlug returns a page row by slug. Slugs are the stable
// cross-install identity used by content import.
func (q *Queries) GetPageBySlug(ctx context.Context, slug string) (Page, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, name, slug, page_type, status, version, config, author, scheduled_at, created_at, updated_at
		FROM pages WHERE slug = ?`, slug)
	return scanPage(row)
}

// UpdatePageParams holds the values for a full page-row update. The
// caller supplies the already-merged config and the bumped version.
type UpdatePageParams struct {
	ID          string
	Name        string
	Status      string
	Version     int64
	Config      string
	ScheduledAt sql.NullTime
	UpdatedAt   time.Time
}

// UpdatePage writes the new state of a page row.
func (q *Queries) UpdatePage(ctx context.Context, arg UpdatePageParams) error {
	res, err := q.db.ExecContext(ctx, `
		UPDATE pages SET name = ?, status = ?, version = ?, config = ?, scheduled_at = ?, updated_at = ?
		WHERE id = ?`,
		arg.Name, arg.Status, arg.Version, arg.Config, arg.ScheduledAt, arg.UpdatedAt, arg.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeletePage hard-deletes a page row. Publications and operation log
// entries are retained independently.
func (q *Queries) DeletePage(ctx context.Context, id string) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// PageFilter narrows list and count queries. Zero values mean "no
// restriction"; NameQuery is a case-insensitive substring match.
type PageFilter struct {
	Status        string
	PageType      string
	Author        string
	NameQuery     string
	CreatedAfter  sql.NullTime
	CreatedBefore sql.NullTime
}

// whereClause builds the WHERE fragment and argument list for a filter.
func (f PageFilter) whereClause() (string, []any) {
	var conds []string
	var args []any
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, f.Status)
	}
	if f.PageType != "" {
		conds = append(conds, "page_type = ?")
		args = append(args, f.PageType)
	}
	if f.Author != "" {
		conds = append(conds, "author = ?")
		args = append(args, f.Author)
	}
	if f.NameQuery != "" {
		conds = append(conds, "name LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(f.NameQuery)+"%")
	}
	if f.CreatedAfter.Valid {
		conds = append(conds, "created_at >= ?")
		args = append(args, f.CreatedAfter.Time)
	}
	if f.CreatedBefore.Valid {
		conds = append(conds, "created_at <= ?")
		args = append(args, f.CreatedBefore.Time)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// ListPagesParams paginates a filtered page listing.
type ListPagesParams struct {
	Filter PageFilter
	Limit  int64
	Offset int64
}

// ListPages returns page summaries matching the filter, most recently
// updated first. The config payload is deliberately omitted.
func (q *Queries) ListPages(ctx context.Context, arg ListPagesParams) ([]PageSummary, error) {
	where, args := arg.Filter.whereClause()
	query := `
		SELECT id, name, slug, page_type, status, version, author, created_at, updated_at
		FROM pages` + where + `
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?`
	args = append(args, arg.Limit, arg.Offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PageSummary
	for rows.Next() {
		var p PageSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.PageType, &p.Status, &p.Version,
			&p.Author, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountPages returns the number of pages matching the filter.
func (q *Queries) CountPages(ctx context.Context, filter PageFilter) (int64, error) {
	where, args := filter.whereClause()
	var count int64
	err := q.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pages`+where, args...).Scan(&count)
	return count, err
}

// ListScheduledPages returns draft pages whose scheduled publish time
// is at or before the given instant.
func (q *Queries) ListScheduledPages(ctx context.Context, due time.Time) ([]Page, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, name, slug, page_type, status, version, config, author, scheduled_at, created_at, updated_at
		FROM pages
		WHERE status = 'draft' AND scheduled_at IS NOT NULL AND scheduled_at <= ?
		ORDER BY scheduled_at`, due)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Page
	for rows.Next() {
		p, err := scanPageRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPage(row *sql.Row) (Page, error) {
	var p Page
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.PageType, &p.Status, &p.Version,
		&p.Config, &p.Author, &p.ScheduledAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func scanPageRows(rows *sql.Rows) (Page, error) {
	var p Page
	err := rows.Scan(&p.ID, &p.Name, &p.Slug, &p.PageType, &p.Status, &p.Version,
		&p.Config, &p.Author, &p.ScheduledAt, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// escapeLike escapes LIKE wildcards in user-supplied match text.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
