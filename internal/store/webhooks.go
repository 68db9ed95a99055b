package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

// Webhook delivery statuses
const (
	DeliveryStatusPending = "pending"
	DeliveryStatusSuccess = "success"
	DeliveryStatusFailed  = "failed"
)

// Webhook is a webhooks table row. Events holds a comma-separated list
// of subscribed event types; empty means all events.
type Webhook struct {
	ID        int64
	Name      string
	URL       string
	Secret    string
	Events    string
	IsActive  int64
	CreatedAt time.Time
}

// SubscribedTo reports whether the webhook wants the given event type.
func (w Webhook) SubscribedTo(event string) bool {
	if w.Events == "" {
		return true
	}
	for _, e := range strings.Split(w.Events, ",") {
		if strings.TrimSpace(e) == event {
			return true
		}
	}
	return false
}

// CreateWebhookParams holds the values for registering a webhook.
type CreateWebhookParams struct {
	Name      string
	URL       string
	Secret    string
	Events    string
	IsActive  int64
	CreatedAt time.Time
}

// CreateWebhook inserts a webhook row.
func (q *Queries) CreateWebhook(ctx context.Context, arg CreateWebhookParams) (Webhook, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO webhooks (name, url, secret, events, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		arg.Name, arg.URL, arg.Secret, arg.Events, arg.IsActive, arg.CreatedAt,
	)
	if err != nil {
		return Webhook{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Webhook{}, err
	}
	return Webhook{
		ID: id, Name: arg.Name, URL: arg.URL, Secret: arg.Secret,
		Events: arg.Events, IsActive: arg.IsActive, CreatedAt: arg.CreatedAt,
	}, nil
}

// ListActiveWebhooks returns all active webhooks.
func (q *Queries) ListActiveWebhooks(ctx context.Context) ([]Webhook, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, name, url, secret, events, is_active, created_at
		FROM webhooks WHERE is_active = 1 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Webhook
	for rows.Next() {
		var w Webhook
		if err := rows.Scan(&w.ID, &w.Name, &w.URL, &w.Secret, &w.Events, &w.IsActive, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// DeleteWebhook removes a webhook and, via cascade, its deliveries.
func (q *Queries) DeleteWebhook(ctx context.Context, id int64) error {
	_, err := q.db.ExecContext(ctx, `DELETE FROM webhooks WHERE id = ?`, id)
	return err
}

// WebhookDelivery is a webhook_deliveries table row.
type WebhookDelivery struct {
	ID           int64
	WebhookID    int64
	Event        string
	Payload      string
	Status       string
	Attempts     int64
	ResponseCode sql.NullInt64
	NextRetryAt  sql.NullTime
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateDeliveryParams holds the values for queuing a delivery.
type CreateDeliveryParams struct {
	WebhookID int64
	Event     string
	Payload   string
	CreatedAt time.Time
}

// CreateDelivery queues a pending delivery row.
func (q *Queries) CreateDelivery(ctx context.Context, arg CreateDeliveryParams) (WebhookDelivery, error) {
	res, err := q.db.ExecContext(ctx, `
		INSERT INTO webhook_deliveries (webhook_id, event, payload, status, attempts, created_at, updated_at)
		VALUES (?, ?, ?, 'pending', 0, ?, ?)`,
		arg.WebhookID, arg.Event, arg.Payload, arg.CreatedAt, arg.CreatedAt,
	)
	if err != nil {
		return WebhookDelivery{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return WebhookDelivery{}, err
	}
	return WebhookDelivery{
		ID: id, WebhookID: arg.WebhookID, Event: arg.Event, Payload: arg.Payload,
		Status: DeliveryStatusPending, CreatedAt: arg.CreatedAt, UpdatedAt: arg.CreatedAt,
	}, nil
}

// UpdateDeliveryParams records a delivery attempt's outcome.
type UpdateDeliveryParams struct {
	ID           int64
	Status       string
	Attempts     int64
	ResponseCode sql.NullInt64
	NextRetryAt  sql.NullTime
	UpdatedAt    time.Time
}

// UpdateDelivery records the outcome of a delivery attempt.
func (q *Queries) UpdateDelivery(ctx context.Context, arg UpdateDeliveryParams) error {
	_, err := q.db.ExecContext(ctx, `
		UPDATE webhook_deliveries
		SET status = ?, attempts = ?, response_code = ?, next_retry_at = ?, updated_at = ?
		WHERE id = ?`,
		arg.Status, arg.Attempts, arg.ResponseCode, arg.NextRetryAt, arg.UpdatedAt, arg.ID,
	)
	return err
}

// ListDueDeliveries returns pending deliveries ready to attempt at the
// given instant.
func (q *Queries) ListDueDeliveries(ctx context.Context, now time.Time, limit int64) ([]WebhookDelivery, error) {
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, webhook_id, event, payload, status, attempts, response_code, next_retry_at, created_at, updated_at
		FROM webhook_deliveries
		WHERE status = 'pending' AND (next_retry_at IS NULL OR next_retry_at <= ?)
		ORDER BY created_at LIMIT ?`, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []WebhookDelivery
	for rows.Next() {
		var d WebhookDelivery
		if err := rows.Scan(&d.ID, &d.WebhookID, &d.Event, &d.Payload, &d.Status, &d.Attempts,
			&d.ResponseCode, &d.NextRetryAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// GetWebhook returns a webhook row by id.
func (q *Queries) GetWebhook(ctx context.Context, id int64) (Webhook, error) {
	row := q.db.QueryRowContext(ctx, `
		SELECT id, name, url, secret, events, is_active, created_at
		FROM webhooks WHERE id = ?`, id)
	var w Webhook
	err := row.Scan(&w.ID, &w.Name, &w.URL, &w.Secret, &w.Events, &w.IsActive, &w.CreatedAt)
	return w, err
}
