package store

import (
	"context"
	"time"
)

// Publication is a publications table row. Snapshot holds the page
// configuration JSON frozen at publish time.
type Publication struct {
	ID          string
	PageID      string
	Version     int64
	Snapshot    string
	Status      string
	PublishedBy string
	PublishedAt time.Time
}

// CreatePublicationParams holds the values for inserting a publication.
type CreatePublicationParams struct {
	ID          string
	PageID      string
	Version     int64
	Snapshot    string
	Status      string
	PublishedBy string
	PublishedAt time.Time
}

// CreatePublication inserts a publication row.
func (q *Queries) CreatePublication(ctx context.Context, arg CreatePublicationParams) (Publication, error) {
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO publications (id, page_id, version, snapshot, status, published_by, published_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		arg.ID, arg.PageID, arg.Version, arg.Snapshot, arg.Status, arg.PublishedBy, arg.PublishedAt,
	)
	if err != nil {
		return Publication{}, err
	}
	return q.GetPublication(ctx, arg.ID)
}

// GetPublication returns a publication row by id.
func (q *Queries) GetPublication(ctx context.Context, id string) (Publication, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, page_id, version, snapshot, status, published_by, published_at
		FROM publications WHERE id = ?`, id)
	var p Publication
	err := row.Scan(&p.ID, &p.PageID, &p.Version, &p.Snapshot, &p.Status, &p.PublishedBy, &p.PublishedAt)
	return p, err
}

// GetActivePublication returns the single active publication for a
// page, if any.
func (q *Queries) GetActivePublication(ctx context.Context, pageID string) (Publication, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, page_id, version, snapshot, status, published_by, published_at
		FROM publications WHERE page_id = ? AND status = 'active'`, pageID)
	var p Publication
	err := row.Scan(&p.ID, &p.PageID, &p.Version, &p.Snapshot, &p.Status, &p.PublishedBy, &p.PublishedAt)
	return p, err
}

// ReplaceActivePublications transitions any active publication for the
// page to replaced. Run inside the publish transaction so a new active
// record and its predecessor can never coexist.
func (q *Queries) ReplaceActivePublications(ctx context.Context, pageID string) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE publications SET status = 'replaced'
		WHERE page_id = ? AND status = 'active'`, pageID)
	return err
}

// ListPublicationsByPage returns a page's publication history, newest
// first.
func (q *Queries) ListPublicationsByPage(ctx context.Context, pageID string) ([]Publication, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, page_id, version, snapshot, status, published_by, published_at
		FROM publications WHERE page_id = ?
		ORDER BY published_at DESC, version DESC`, pageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Publication
	for rows.Next() {
		var p Publication
		if err := rows.Scan(&p.ID, &p.PageID, &p.Version, &p.Snapshot, &p.Status,
			&p.PublishedBy, &p.PublishedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// CountPublicationsByPage returns the number of publication records for
// a page.
func (q *Queries) CountPublicationsByPage(ctx context.Context, pageID string) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM publications WHERE page_id = ?`, pageID).Scan(&count)
	return count, err
}
