// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"io"
	"math"
	"net"
	"net/http"
	"time"

	"github.com/pageforge/pageforge/internal/store"
	"github.com/pageforge/pageforge/internal/util"
)

// Delivery configuration constants
const (
	MaxAttempts    = 5                // Maximum number of delivery attempts
	InitialBackoff = 1 * time.Minute  // Initial backoff delay
	MaxBackoff     = 24 * time.Hour   // Maximum backoff delay
	RequestTimeout = 30 * time.Second // HTTP request timeout
	MaxResponseLen = 10 * 1024        // Maximum response body to read (10KB)
	UserAgent      = "PageForge/1.0"  // User-Agent header value
)

// DeliveryResult represents the result of a delivery attempt.
type DeliveryResult struct {
	Success     bool
	StatusCode  int
	Error       error
	ShouldRetry bool
}

// httpClient blocks connections to private address space so operator
// supplied URLs cannot reach internal services.
var httpClient = &http.Client{
	Timeout: RequestTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		DialContext:         util.SSRFSafeDialContext(&net.Dialer{Timeout: 10 * time.Second}),
	},
}

// processDelivery attempts to deliver a webhook payload via HTTP POST
// and records the outcome.
func (d *Dispatcher) processDelivery(ctx context.Context, delivery *QueuedDelivery) {
	result := d.attemptDelivery(ctx, delivery)
	now := time.Now().UTC()
	attempts := delivery.Attempts + 1

	if result.Success {
		err := d.queries.UpdateDelivery(ctx, store.UpdateDeliveryParams{
			ID:           delivery.DeliveryID,
			Status:       store.DeliveryStatusSuccess,
			Attempts:     attempts,
			ResponseCode: sql.NullInt64{Int64: int64(result.StatusCode), Valid: true},
			UpdatedAt:    now,
		})
		if err != nil {
			d.logger.Error("failed to record delivery success",
				"error", err,
				"delivery_id", delivery.DeliveryID)
			return
		}
		d.logger.Info("webhook delivered",
			"delivery_id", delivery.DeliveryID,
			"webhook_id", delivery.WebhookID,
			"status_code", result.StatusCode)
		return
	}

	if !result.ShouldRetry || attempts >= MaxAttempts {
		err := d.queries.UpdateDelivery(ctx, store.UpdateDeliveryParams{
			ID:           delivery.DeliveryID,
			Status:       store.DeliveryStatusFailed,
			Attempts:     attempts,
			ResponseCode: sql.NullInt64{Int64: int64(result.StatusCode), Valid: result.StatusCode > 0},
			UpdatedAt:    now,
		})
		if err != nil {
			d.logger.Error("failed to record delivery failure",
				"error", err,
				"delivery_id", delivery.DeliveryID)
			return
		}
		d.logger.Warn("webhook delivery abandoned",
			"delivery_id", delivery.DeliveryID,
			"webhook_id", delivery.WebhookID,
			"attempts", attempts,
			"error", result.Error)
		return
	}

	// Keep the row pending with a retry time; the retry pump re-queues it.
	backoff := calculateBackoff(attempts)
	err := d.queries.UpdateDelivery(ctx, store.UpdateDeliveryParams{
		ID:           delivery.DeliveryID,
		Status:       store.DeliveryStatusPending,
		Attempts:     attempts,
		ResponseCode: sql.NullInt64{Int64: int64(result.StatusCode), Valid: result.StatusCode > 0},
		NextRetryAt:  sql.NullTime{Time: now.Add(backoff), Valid: true},
		UpdatedAt:    now,
	})
	if err != nil {
		d.logger.Error("failed to schedule delivery retry",
			"error", err,
			"delivery_id", delivery.DeliveryID)
		return
	}
	d.logger.Info("webhook delivery scheduled for retry",
		"delivery_id", delivery.DeliveryID,
		"webhook_id", delivery.WebhookID,
		"attempt", attempts,
		"backoff", backoff.String())
}

// attemptDelivery performs the actual HTTP POST request.
func (d *Dispatcher) attemptDelivery(ctx context.Context, delivery *QueuedDelivery) DeliveryResult {
	ctx, cancel := context.WithTimeout(ctx, RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, delivery.URL, bytes.NewReader(delivery.Payload))
	if err != nil {
		return DeliveryResult{
			Error:       fmt.Errorf("failed to create request: %w", err),
			ShouldRetry: false, // Bad URL, don't retry
		}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)

	signature := GenerateSignature(delivery.Payload, delivery.Secret)
	req.Header.Set("X-Webhook-Signature", signature)
	req.Header.Set("X-Webhook-Event", delivery.Event)
	req.Header.Set("X-Webhook-Delivery-ID", fmt.Sprintf("%d", delivery.DeliveryID))

	resp, err := httpClient.Do(req)
	if err != nil {
		return DeliveryResult{
			Error:       fmt.Errorf("request failed: %w", err),
			ShouldRetry: true, // Network error, retry
		}
	}
	defer func() { _ = resp.Body.Close() }()

	// Drain a bounded amount so the connection can be reused
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, MaxResponseLen))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return DeliveryResult{
			Success:    true,
			StatusCode: resp.StatusCode,
		}
	}

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		// Client error - don't retry (except 408 Request Timeout and 429 Too Many Requests)
		shouldRetry := resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusTooManyRequests
		return DeliveryResult{
			StatusCode:  resp.StatusCode,
			Error:       fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			ShouldRetry: shouldRetry,
		}
	}

	// Server error (5xx) - retry
	return DeliveryResult{
		StatusCode:  resp.StatusCode,
		Error:       fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		ShouldRetry: true,
	}
}

// calculateBackoff calculates the exponential backoff duration for a given attempt.
// Attempt 1 = 1 min, attempt 2 = 2 min, attempt 3 = 4 min, and so on.
func calculateBackoff(attempt int64) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	backoff := time.Duration(float64(InitialBackoff) * math.Pow(2, float64(attempt-1)))
	if backoff > MaxBackoff {
		backoff = MaxBackoff
	}
	return backoff
}
