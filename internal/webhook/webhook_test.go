package webhook

import (
	"context"
	"testing"
	"time"

	"github.com/pageforge/pageforge/internal/model"
)

func TestGenerateSignature(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		secret  string
	}{
		{
			name:    "empty payload",
			payload: []byte{},
			secret:  "secret",
		},
		{
			name:    "simple payload",
			payload: []byte(`{"event":"test"}`),
			secret:  "mysecret",
		},
		{
			name:    "complex payload",
			payload: []byte(`{"type":"page.published","timestamp":"2026-01-01T00:00:00Z","data":{"id":"a1b2","name":"Spring Sale"}}`),
			secret:  "webhook-secret-key",
		},
		{
			name:    "empty secret",
			payload: []byte(`test`),
			secret:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := GenerateSignature(tt.payload, tt.secret)
			// SHA256 = 256 bits = 32 bytes = 64 hex chars
			if len(result) != 64 {
				t.Errorf("GenerateSignature() returned signature with length %d, expected 64", len(result))
			}

			// Same input should always produce same output
			result2 := GenerateSignature(tt.payload, tt.secret)
			if result != result2 {
				t.Errorf("GenerateSignature() not consistent: %s != %s", result, result2)
			}
		})
	}
}

func TestVerifySignature(t *testing.T) {
	tests := []struct {
		name      string
		payload   []byte
		secret    string
		wantValid bool
	}{
		{
			name:      "valid signature",
			payload:   []byte(`{"event":"test"}`),
			secret:    "mysecret",
			wantValid: true,
		},
		{
			name:      "empty payload valid signature",
			payload:   []byte{},
			secret:    "secret",
			wantValid: true,
		},
		{
			name:      "valid with unicode payload",
			payload:   []byte(`{"name":"Тест","label":"日本語"}`),
			secret:    "unicode-secret-ключ",
			wantValid: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signature := GenerateSignature(tt.payload, tt.secret)

			if valid := VerifySignature(tt.payload, signature, tt.secret); valid != tt.wantValid {
				t.Errorf("VerifySignature() = %v, want %v", valid, tt.wantValid)
			}

			// Verify fails with wrong secret
			if tt.wantValid {
				if VerifySignature(tt.payload, signature, "wrong-secret") {
					t.Error("VerifySignature() should return false with wrong secret")
				}
			}
		})
	}
}

func TestVerifySignature_InvalidSignature(t *testing.T) {
	payload := []byte(`{"test":"data"}`)
	secret := "mysecret"

	tests := []struct {
		name      string
		signature string
	}{
		{"empty signature", ""},
		{"invalid hex", "not-a-valid-hex-string"},
		{"wrong length", "abc123"},
		{"tampered signature", "0000000000000000000000000000000000000000000000000000000000000000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if VerifySignature(payload, tt.signature, secret) {
				t.Error("VerifySignature() should return false for invalid signature")
			}
		})
	}
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		name     string
		attempt  int64
		expected time.Duration
	}{
		{"attempt 0", 0, 1 * time.Minute},     // Treated as attempt 1
		{"attempt 1", 1, 1 * time.Minute},     // 1 min * 2^0 = 1 min
		{"attempt 2", 2, 2 * time.Minute},     // 1 min * 2^1 = 2 min
		{"attempt 3", 3, 4 * time.Minute},     // 1 min * 2^2 = 4 min
		{"attempt 4", 4, 8 * time.Minute},     // 1 min * 2^3 = 8 min
		{"attempt 5", 5, 16 * time.Minute},    // 1 min * 2^4 = 16 min
		{"attempt 10", 10, 512 * time.Minute}, // 1 min * 2^9 = 512 min (~8.5 hours)
		{"attempt 15", 15, 24 * time.Hour},    // Would be >24 hours, capped at MaxBackoff
		{"attempt 20", 20, 24 * time.Hour},    // Capped at MaxBackoff
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := calculateBackoff(tt.attempt)
			if result != tt.expected {
				t.Errorf("calculateBackoff(%d) = %v, want %v", tt.attempt, result, tt.expected)
			}
		})
	}
}

func TestCalculateBackoff_NeverExceedsMax(t *testing.T) {
	for attempt := int64(1); attempt <= 100; attempt++ {
		result := calculateBackoff(attempt)
		if result > MaxBackoff {
			t.Errorf("calculateBackoff(%d) = %v, exceeds MaxBackoff %v", attempt, result, MaxBackoff)
		}
	}
}

func TestEventKey(t *testing.T) {
	tests := []struct {
		name     string
		event    *Event
		expected string
	}{
		{
			name: "page event data",
			event: NewEvent("page.created", PageEventData{
				ID:   "0d5f2a91",
				Name: "Summer Landing",
			}),
			expected: "page.created:0d5f2a91",
		},
		{
			name: "page event data pointer",
			event: NewEvent("page.updated", &PageEventData{
				ID:   "77ac01be",
				Name: "Updated Page",
			}),
			expected: "page.updated:77ac01be",
		},
		{
			name: "publication event data",
			event: NewEvent("page.published", PublicationEventData{
				PublicationID: "pub-1",
				PageID:        "0d5f2a91",
			}),
			expected: "page.published:0d5f2a91",
		},
		{
			name: "map with string id",
			event: NewEvent("custom.event", map[string]any{
				"id":   "abc-123",
				"name": "Custom",
			}),
			expected: "custom.event:abc-123",
		},
		{
			name:     "map without id",
			event:    NewEvent("custom.event", map[string]any{"name": "x"}),
			expected: "custom.event",
		},
		{
			name:     "unknown type",
			event:    NewEvent("unknown.event", "string data"),
			expected: "unknown.event",
		},
		{
			name:     "nil data",
			event:    NewEvent("nil.event", nil),
			expected: "nil.event",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := eventKey(tt.event)
			if result != tt.expected {
				t.Errorf("eventKey() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Workers != 4 {
		t.Errorf("DefaultConfig().Workers = %d, want 4", cfg.Workers)
	}
}

func TestDefaultDebounceConfig(t *testing.T) {
	cfg := DefaultDebounceConfig()

	if cfg.Interval != 1*time.Second {
		t.Errorf("DefaultDebounceConfig().Interval = %v, want 1s", cfg.Interval)
	}
	if cfg.MaxWait != 5*time.Second {
		t.Errorf("DefaultDebounceConfig().MaxWait = %v, want 5s", cfg.MaxWait)
	}
}

func TestDeliveryResult(t *testing.T) {
	tests := []struct {
		name        string
		result      DeliveryResult
		wantSuccess bool
		wantRetry   bool
	}{
		{
			name: "successful delivery",
			result: DeliveryResult{
				Success:    true,
				StatusCode: 200,
			},
			wantSuccess: true,
			wantRetry:   false,
		},
		{
			name: "server error should retry",
			result: DeliveryResult{
				Success:     false,
				StatusCode:  500,
				ShouldRetry: true,
			},
			wantSuccess: false,
			wantRetry:   true,
		},
		{
			name: "client error should not retry",
			result: DeliveryResult{
				Success:     false,
				StatusCode:  400,
				ShouldRetry: false,
			},
			wantSuccess: false,
			wantRetry:   false,
		},
		{
			name: "rate limit should retry",
			result: DeliveryResult{
				Success:     false,
				StatusCode:  429,
				ShouldRetry: true,
			},
			wantSuccess: false,
			wantRetry:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Success != tt.wantSuccess {
				t.Errorf("DeliveryResult.Success = %v, want %v", tt.result.Success, tt.wantSuccess)
			}
			if tt.result.ShouldRetry != tt.wantRetry {
				t.Errorf("DeliveryResult.ShouldRetry = %v, want %v", tt.result.ShouldRetry, tt.wantRetry)
			}
		})
	}
}

func TestDebouncer_CoalescesPerEntity(t *testing.T) {
	dispatcher := NewDispatcher(nil, nil, Config{
		Workers:  1,
		Debounce: DebounceConfig{Interval: time.Hour, MaxWait: 2 * time.Hour},
	})
	debouncer := dispatcher.debounce

	ctx := context.Background()

	// Three rapid edits to the same page collapse into one pending event.
	for i := 0; i < 3; i++ {
		err := debouncer.DispatchEvent(ctx, "page.updated", PageEventData{ID: "p-1", Version: int64(i + 1)})
		if err != nil {
			t.Fatalf("DispatchEvent: %v", err)
		}
	}
	if got := debouncer.PendingCount(); got != 1 {
		t.Errorf("PendingCount after same-page burst = %d, want 1", got)
	}

	// A different page gets its own pending slot.
	if err := debouncer.DispatchEvent(ctx, "page.updated", PageEventData{ID: "p-2", Version: 1}); err != nil {
		t.Fatalf("DispatchEvent: %v", err)
	}
	if got := debouncer.PendingCount(); got != 2 {
		t.Errorf("PendingCount with two pages = %d, want 2", got)
	}

	// The coalesced entry carries the latest payload.
	debouncer.mu.Lock()
	pe := debouncer.pending["page.updated:p-1"]
	debouncer.mu.Unlock()
	if pe == nil {
		t.Fatal("pending entry for p-1 missing")
	}
	if data, ok := pe.event.Data.(PageEventData); !ok || data.Version != 3 {
		t.Errorf("pending event data = %#v, want version 3", pe.event.Data)
	}

	debouncer.Flush()
	if got := debouncer.PendingCount(); got != 0 {
		t.Errorf("PendingCount after Flush = %d, want 0", got)
	}
}

func TestNotify_RoutesThroughDebouncer(t *testing.T) {
	dispatcher := NewDispatcher(nil, nil, Config{
		Workers:  1,
		Debounce: DebounceConfig{Interval: time.Hour, MaxWait: 2 * time.Hour},
	})

	page := &model.PageConfig{ID: "p-1", Name: "Home", Version: 4}
	dispatcher.Notify("page.updated", page)
	dispatcher.Notify("page.updated", page)

	if got := dispatcher.debounce.PendingCount(); got != 1 {
		t.Errorf("PendingCount after two notifies = %d, want 1", got)
	}
}
