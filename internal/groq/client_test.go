package groq

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestComplete_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		var req request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "llama-3.1-8b-instant" {
			t.Errorf("model = %q", req.Model)
		}
		if req.MaxTokens != 250 {
			t.Errorf("max tokens = %d, want default 250", req.MaxTokens)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": "hello, who is calling?"}},
			},
		})
	}))
	defer srv.Close()

	c := NewClientWithURL("test-key", srv.URL)
	got, err := c.Complete(context.Background(), "llama-3.1-8b-instant",
		[]Message{{Role: "user", Content: "hi"}}, Options{Temperature: 0.85})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "hello, who is calling?" {
		t.Errorf("content = %q", got)
	}
}

func TestComplete_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"type":"rate_limit_exceeded","message":"slow down"}}`))
	}))
	defer srv.Close()

	c := NewClientWithURL("test-key", srv.URL)
	_, err := c.Complete(context.Background(), "m", nil, Options{})
	if !errors.Is(err, ErrRateLimited) {
		t.Errorf("expected ErrRateLimited, got %v", err)
	}
}

func TestComplete_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"type":"invalid_request_error","message":"bad model"}}`))
	}))
	defer srv.Close()

	c := NewClientWithURL("test-key", srv.URL)
	_, err := c.Complete(context.Background(), "nope", nil, Options{})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrRateLimited) {
		t.Error("400 must not look like a rate limit")
	}
}

func TestComplete_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewClientWithURL("test-key", srv.URL)
	if _, err := c.Complete(context.Background(), "m", nil, Options{}); err == nil {
		t.Fatal("expected error on empty choices")
	}
}

func TestComplete_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClientWithURL("test-key", srv.URL)
	if _, err := c.Complete(ctx, "m", nil, Options{}); err == nil {
		t.Fatal("expected error on cancelled context")
	}
}
