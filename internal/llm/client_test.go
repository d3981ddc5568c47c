package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func chatBody(content string) string {
	return fmt.Sprintf(`{
		"model": "test-model",
		"choices": [{"message": {"content": %q}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 100, "completion_tokens": 50}
	}`, content)
}

func testClient(url string) *Client {
	return NewClient(Options{
		BaseURL:     url,
		APIKey:      "test-key",
		MaxAttempts: 3,
		BaseBackoff: 5 * time.Millisecond,
		PriceTable: map[string]Price{
			"test-model": {InputPerMillion: 3.0, OutputPerMillion: 15.0},
		},
	})
}

func TestChat_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		fmt.Fprint(w, chatBody("hello"))
	}))
	defer srv.Close()

	resp, err := testClient(srv.URL).Chat(context.Background(), Request{
		Model:    "test-model",
		Messages: []Message{{Role: "user", Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if resp.Content != "hello" {
		t.Errorf("unexpected content %q", resp.Content)
	}
	if resp.InputTokens != 100 || resp.OutputTokens != 50 {
		t.Errorf("unexpected token counts %d/%d", resp.InputTokens, resp.OutputTokens)
	}
}

func TestChat_RetriesTransientFailure(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, chatBody("eventually"))
	}))
	defer srv.Close()

	resp, err := testClient(srv.URL).Chat(context.Background(), Request{Model: "test-model"})
	if err != nil {
		t.Fatalf("Chat should succeed after retries: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	if resp.Content != "eventually" {
		t.Errorf("unexpected content %q", resp.Content)
	}
}

func TestChat_ExhaustsAttempts(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Chat(context.Background(), Request{Model: "test-model"})
	if !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestChat_BadRequestNotRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Chat(context.Background(), Request{Model: "test-model"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrExhausted) {
		t.Error("4xx (non-429) must not be retried")
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestChat_EmptyContentRetried(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			fmt.Fprint(w, chatBody(""))
			return
		}
		fmt.Fprint(w, chatBody("filled in"))
	}))
	defer srv.Close()

	resp, err := testClient(srv.URL).Chat(context.Background(), Request{Model: "test-model"})
	if err != nil {
		t.Fatalf("empty content should be retried, not fatal: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 calls, got %d", calls)
	}
	if resp.Content != "filled in" {
		t.Errorf("unexpected content %q", resp.Content)
	}
}

func TestChat_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testClient(srv.URL).Chat(ctx, Request{Model: "test-model"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestChat_RetryAfterHeader(t *testing.T) {
	calls := 0
	start := time.Now()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, chatBody("after backoff"))
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).Chat(context.Background(), Request{Model: "test-model"}); err != nil {
		t.Fatalf("Chat failed: %v", err)
	}
	if elapsed := time.Since(start); elapsed < time.Second {
		t.Errorf("Retry-After of 1s should override the %v base backoff, waited only %v",
			5*time.Millisecond, elapsed)
	}
}

func TestCost(t *testing.T) {
	c := testClient("http://unused")
	got := c.Cost("test-model", 1_000_000, 1_000_000)
	if got != 18.0 {
		t.Errorf("expected 18.0 USD, got %f", got)
	}
	if c.Cost("unknown-model", 1000, 1000) != 0 {
		t.Error("unknown model should cost zero")
	}
}
