package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestClient(baseURL string) *AIProviderClient {
	return &AIProviderClient{
		apiKey:      "test-key",
		baseURL:     baseURL,
		model:       "test-model",
		httpClient:  &http.Client{Timeout: 5 * time.Second},
		maxAttempts: 3,
		baseDelay:   10 * time.Millisecond,
		maxDelay:    100 * time.Millisecond,
		maxJitter:   5 * time.Millisecond,
	}
}

func messageBody(text string) string {
	return `{"content":[{"type":"text","text":"` + text + `"}]}`
}

func TestSendSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") == "" {
			t.Errorf("missing version header")
		}
		w.Write([]byte(messageBody("hello")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	text, err := client.Send(context.Background(), "prompt", "system", 256)
	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if text != "hello" {
		t.Errorf("Send() = %q, expected %q", text, "hello")
	}
}

func TestSendRetriesThrottling(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(messageBody("recovered")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	start := time.Now()
	text, err := client.Send(context.Background(), "prompt", "", 256)
	elapsed := time.Since(start)

	if err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if text != "recovered" {
		t.Errorf("Send() = %q, expected %q", text, "recovered")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected 3 calls, got %d", got)
	}
	// Two backoffs: base and 2*base, so at least 30ms total
	if elapsed < 30*time.Millisecond {
		t.Errorf("expected backoff delays, completed in %v", elapsed)
	}
}

func TestSendRetriesServerError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(messageBody("ok")))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	if _, err := client.Send(context.Background(), "prompt", "", 256); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("expected 2 calls, got %d", got)
	}
}

func TestSendDoesNotRetryClientError(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad request"}}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Send(context.Background(), "prompt", "", 256)
	if err == nil {
		t.Fatal("Send() expected error for 400 response")
	}
	if errors.Is(err, ErrProviderUnavailable) {
		t.Errorf("client errors must not map to ErrProviderUnavailable, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("expected exactly 1 call, got %d", got)
	}
}

func TestSendExhaustsRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	_, err := client.Send(context.Background(), "prompt", "", 256)
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("Send() error = %v, expected ErrProviderUnavailable", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("expected %d calls, got %d", 3, got)
	}
}

func TestSendCancelledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.baseDelay = 5 * time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Send(ctx, "prompt", "", 256)
	if err == nil {
		t.Fatal("Send() expected error after context cancellation")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Send() error = %v, expected context deadline", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation should interrupt backoff, took %v", elapsed)
	}
}

func TestBackoffDelayGrowsAndCaps(t *testing.T) {
	client := &AIProviderClient{
		baseDelay: 10 * time.Millisecond,
		maxDelay:  40 * time.Millisecond,
	}

	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 10 * time.Millisecond},
		{2, 20 * time.Millisecond},
		{3, 40 * time.Millisecond},
		{4, 40 * time.Millisecond}, // capped
		{10, 40 * time.Millisecond},
	}

	for _, tt := range tests {
		if got := client.backoffDelay(tt.attempt); got != tt.expected {
			t.Errorf("backoffDelay(%d) = %v, expected %v", tt.attempt, got, tt.expected)
		}
	}
}

func TestBackoffDelayJitterBounds(t *testing.T) {
	client := &AIProviderClient{
		baseDelay: 10 * time.Millisecond,
		maxDelay:  100 * time.Millisecond,
		maxJitter: 5 * time.Millisecond,
	}

	for i := 0; i < 50; i++ {
		got := client.backoffDelay(1)
		if got < 10*time.Millisecond || got >= 15*time.Millisecond {
			t.Fatalf("backoffDelay(1) = %v, expected [10ms, 15ms)", got)
		}
	}
}
