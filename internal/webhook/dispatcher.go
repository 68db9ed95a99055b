package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pageforge/pageforge/internal/model"
	"github.com/pageforge/pageforge/internal/store"
	"github.com/pageforge/pageforge/internal/util"
)

// Dispatcher handles webhook event dispatching and queuing.
type Dispatcher struct {
	db       *sql.DB
	queries  *store.Queries
	logger   *slog.Logger
	queue    chan *QueuedDelivery
	debounce *Debouncer
	workers  int
	wg       sync.WaitGroup
	done     chan struct{}
	mu       sync.RWMutex
	running  bool
}

// QueuedDelivery represents a delivery queued for processing.
type QueuedDelivery struct {
	DeliveryID int64
	WebhookID  int64
	Event      string
	Payload    []byte
	URL        string
	Secret     string
	Attempts   int64
}

// Config holds dispatcher configuration.
type Config struct {
	Workers  int            // Number of concurrent delivery workers
	Debounce DebounceConfig // Coalescing window for change notifications
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:  4,
		Debounce: DefaultDebounceConfig(),
	}
}

// NewDispatcher creates a new webhook dispatcher.
func NewDispatcher(db *sql.DB, logger *slog.Logger, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Dispatcher{
		db:      db,
		queries: store.New(db),
		logger:  logger,
		queue:   make(chan *QueuedDelivery, 100),
		workers: cfg.Workers,
		done:    make(chan struct{}),
	}
	d.debounce = NewDebouncer(d, cfg.Debounce)
	return d
}

// Start starts the dispatcher workers and the retry pump.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("starting webhook dispatcher", "workers", d.workers)

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}

	d.wg.Add(1)
	go d.retryLoop(ctx)
}

// Stop flushes debounced events, then stops the dispatcher and waits
// for workers to finish.
func (d *Dispatcher) Stop() {
	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()
	if !running {
		return
	}

	// Flush while still running so pending notifications reach the queue.
	d.debounce.Stop()

	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	d.logger.Info("stopping webhook dispatcher")
	close(d.done)
	d.wg.Wait()
	d.logger.Info("webhook dispatcher stopped")
}

// worker processes queued deliveries.
func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	d.logger.Debug("webhook worker started", "worker_id", id)

	for {
		select {
		case <-d.done:
			d.logger.Debug("webhook worker stopping", "worker_id", id)
			return
		case <-ctx.Done():
			d.logger.Debug("webhook worker context cancelled", "worker_id", id)
			return
		case delivery := <-d.queue:
			d.processDelivery(ctx, delivery)
		}
	}
}

// retryLoop periodically re-queues pending deliveries whose retry time
// has come, so failed attempts survive restarts.
func (d *Dispatcher) retryLoop(ctx context.Context) {
	defer d.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-d.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.enqueueDue(ctx)
		}
	}
}

// enqueueDue moves due pending deliveries onto the worker queue.
func (d *Dispatcher) enqueueDue(ctx context.Context) {
	due, err := d.queries.ListDueDeliveries(ctx, time.Now().UTC(), 50)
	if err != nil {
		d.logger.Error("listing due deliveries failed", "error", err, "category", model.EventCategoryWebhook)
		return
	}

	for _, row := range due {
		wh, err := d.queries.GetWebhook(ctx, row.WebhookID)
		if err != nil {
			d.logger.Error("loading webhook for delivery failed",
				"error", err, "delivery_id", row.ID, "webhook_id", row.WebhookID)
			continue
		}

		qd := &QueuedDelivery{
			DeliveryID: row.ID,
			WebhookID:  wh.ID,
			Event:      row.Event,
			Payload:    []byte(row.Payload),
			URL:        wh.URL,
			Secret:     wh.Secret,
			Attempts:   row.Attempts,
		}
		select {
		case d.queue <- qd:
		default:
			// Queue full; the next tick picks it up again.
			return
		}
	}
}

// Dispatch queues an event for every subscribed active webhook.
func (d *Dispatcher) Dispatch(ctx context.Context, event *Event) error {
	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()

	if !running {
		d.logger.Warn("dispatcher not running, cannot dispatch event", "event_type", event.Type)
		return nil
	}

	webhooks, err := d.queries.ListActiveWebhooks(ctx)
	if err != nil {
		d.logger.Error("failed to list webhooks for event", "error", err, "event_type", event.Type)
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		d.logger.Error("failed to marshal event payload", "error", err, "event_type", event.Type)
		return err
	}

	now := time.Now().UTC()

	for _, wh := range webhooks {
		if !wh.SubscribedTo(event.Type) {
			continue
		}

		delivery, err := d.queries.CreateDelivery(ctx, store.CreateDeliveryParams{
			WebhookID: wh.ID,
			Event:     event.Type,
			Payload:   string(payload),
			CreatedAt: now,
		})
		if err != nil {
			d.logger.Error("failed to create delivery record",
				"error", err,
				"webhook_id", wh.ID,
				"event_type", event.Type)
			continue
		}

		qd := &QueuedDelivery{
			DeliveryID: delivery.ID,
			WebhookID:  wh.ID,
			Event:      event.Type,
			Payload:    payload,
			URL:        wh.URL,
			Secret:     wh.Secret,
		}

		select {
		case d.queue <- qd:
			d.logger.Debug("delivery queued", "delivery_id", delivery.ID)
		default:
			d.logger.Warn("delivery queue full, delivery will be retried later", "delivery_id", delivery.ID)
		}
	}

	return nil
}

// DispatchEvent is a convenience method to dispatch an event with the given type and data.
func (d *Dispatcher) DispatchEvent(ctx context.Context, eventType string, data any) error {
	return d.Dispatch(ctx, NewEvent(eventType, data))
}

// Notify lets the dispatcher serve as the services' change notifier.
// Page and publication payloads are projected to their event shapes;
// anything else passes through as-is. Events are debounced per entity,
// so a burst of edits to one page yields a single delivery carrying
// the latest state.
func (d *Dispatcher) Notify(eventType string, data any) {
	switch v := data.(type) {
	case *model.PageConfig:
		data = pageEventData(v)
	case *model.PublicationRecord:
		data = publicationEventData(v)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := d.debounce.DispatchEvent(ctx, eventType, data); err != nil {
		d.logger.Error("webhook dispatch failed", "error", err, "event_type", eventType)
	}
}

// Register validates and stores a new webhook subscription. Events is
// the list of subscribed event types; empty subscribes to everything.
func (d *Dispatcher) Register(ctx context.Context, name, url, secret string, events []string) (store.Webhook, error) {
	if err := util.ValidateWebhookURL(url); err != nil {
		return store.Webhook{}, model.NewValidationError("webhook url: %v", err)
	}
	return d.queries.CreateWebhook(ctx, store.CreateWebhookParams{
		Name:      name,
		URL:       url,
		Secret:    secret,
		Events:    strings.Join(events, ","),
		IsActive:  1,
		CreatedAt: time.Now().UTC(),
	})
}

// List returns all active webhook subscriptions.
func (d *Dispatcher) List(ctx context.Context) ([]store.Webhook, error) {
	hooks, err := d.queries.ListActiveWebhooks(ctx)
	if err != nil {
		return nil, model.NewPersistenceError("listing webhooks", err)
	}
	return hooks, nil
}

// Unregister removes a webhook subscription. Past deliveries stay.
func (d *Dispatcher) Unregister(ctx context.Context, id int64) error {
	if _, err := d.queries.GetWebhook(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.NewNotFoundError("webhook", strconv.FormatInt(id, 10))
		}
		return model.NewPersistenceError("loading webhook", err)
	}
	if err := d.queries.DeleteWebhook(ctx, id); err != nil {
		return model.NewPersistenceError("deleting webhook", err)
	}
	return nil
}

// GenerateSignature generates an HMAC-SHA256 signature for the payload.
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature verifies an HMAC-SHA256 signature.
func VerifySignature(payload []byte, signature, secret string) bool {
	expectedSig := GenerateSignature(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expectedSig))
}
