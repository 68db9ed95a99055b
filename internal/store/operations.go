package store

import (
	"context"
	"database/sql"
	"time"
)

// Operation is an operations table row: one immutable audit entry per
// configuration-changing action.
type Operation struct {
	ID           int64
	PageID       sql.NullString
	Action       string
	BeforeConfig sql.NullString
	AfterConfig  sql.NullString
	Actor        string
	Origin       string
	ClientIP     string
	ClientInfo   string
	CreatedAt    time.Time
}

// CreateOperationParams holds the values for appending an audit entry.
type CreateOperationParams struct {
	PageID       sql.NullString
	Action       string
	BeforeConfig sql.NullString
	AfterConfig  sql.NullString
	Actor        string
	Origin       string
	ClientIP     string
	ClientInfo   string
	CreatedAt    time.Time
}

// CreateOperation appends an operation log entry. The log is
// append-only: no update or delete queries exist for this table.
func (q *Queries) CreateOperation(ctx context.Context, arg CreateOperationParams) (Operation, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO operations (page_id, action, before_config, after_config, actor, origin, client_ip, client_info, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		arg.PageID, arg.Action, arg.BeforeConfig, arg.AfterConfig,
		arg.Actor, arg.Origin, arg.ClientIP, arg.ClientInfo, arg.CreatedAt,
	)
	if err != nil {
		return Operation{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Operation{}, err
	}
	return Operation{
		ID:           id,
		PageID:       arg.PageID,
		Action:       arg.Action,
		BeforeConfig: arg.BeforeConfig,
		AfterConfig:  arg.AfterConfig,
		Actor:        arg.Actor,
		Origin:       arg.Origin,
		ClientIP:     arg.ClientIP,
		ClientInfo:   arg.ClientInfo,
		CreatedAt:    arg.CreatedAt,
	}, nil
}

// ListOperationsParams paginates operation history queries. PageID
// and Action are optional filters.
type ListOperationsParams struct {
	PageID string
	Action string
	Limit  int64
	Offset int64
}

// ListOperations returns audit entries newest first.
func (q *Queries) ListOperations(ctx context.Context, arg ListOperationsParams) ([]Operation, error) {
	query := `
		SELECT id, page_id, action, before_config, after_config, actor, origin, client_ip, client_info, created_at
		FROM operations WHERE 1=1`
	var args []any
	if arg.PageID != "" {
		query += " AND page_id = ?"
		args = append(args, arg.PageID)
	}
	if arg.Action != "" {
		query += " AND action = ?"
		args = append(args, arg.Action)
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, arg.Limit, arg.Offset)

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Operation
	for rows.Next() {
		var op Operation
		if err := rows.Scan(&op.ID, &op.PageID, &op.Action, &op.BeforeConfig, &op.AfterConfig,
			&op.Actor, &op.Origin, &op.ClientIP, &op.ClientInfo, &op.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, rows.Err()
}

// CountOperations returns the number of audit entries matching the
// filter.
func (q *Queries) CountOperations(ctx context.Context, pageID, action string) (int64, error) {
	query := `SELECT COUNT(*) FROM operations WHERE 1=1`
	var args []any
	if pageID != "" {
		query += " AND page_id = ?"
		args = append(args, pageID)
	}
	if action != "" {
		query += " AND action = ?"
		args = append(args, action)
	}
	var count int64
	err := q.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}
