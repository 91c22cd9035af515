package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestServer(t *testing.T, handler func(w http.ResponseWriter, req ChatRequest)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization header = %q", got)
		}
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		handler(w, req)
	}))
}

func respondWith(w http.ResponseWriter, content string) {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	json.NewEncoder(w).Encode(resp)
}

func TestClassifyUsesTextModel(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, req ChatRequest) {
		if req.Model != "gpt-4o" {
			t.Errorf("model = %q, want gpt-4o", req.Model)
		}
		if len(req.Messages) != 2 {
			t.Errorf("got %d messages, want 2", len(req.Messages))
		}
		respondWith(w, `"classify": {"urgency": "Red", "radius": 0.5}`)
	})
	defer srv.Close()

	c := NewClient("test-key", srv.URL, "gpt-4o", "gpt-4-turbo")
	got, err := c.Classify(context.Background(), "downed power line")
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	if !strings.Contains(got, "urgency") {
		t.Errorf("Classify() = %q, want urgency fragment", got)
	}
}

func TestFilterUsesVisionModelAndImage(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, req ChatRequest) {
		if req.Model != "gpt-4-turbo" {
			t.Errorf("model = %q, want gpt-4-turbo", req.Model)
		}
		raw, _ := json.Marshal(req.Messages)
		if !strings.Contains(string(raw), "data:image/jpeg;base64,") {
			t.Error("request does not carry a base64 image data URL")
		}
		respondWith(w, "Context: fire. Image Description: active flames near a fence line.")
	})
	defer srv.Close()

	c := NewClient("test-key", srv.URL, "gpt-4o", "gpt-4-turbo")
	got, err := c.Filter(context.Background(), "fire in my backyard", []byte{0xff, 0xd8, 0xff})
	if err != nil {
		t.Fatalf("Filter() error: %v", err)
	}
	if !strings.Contains(got, "flames") {
		t.Errorf("Filter() = %q", got)
	}
}

func TestUpstreamErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error": {"message": "invalid auth token"}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL, "gpt-4o", "gpt-4-turbo")
	_, err := c.Summarize(context.Background(), "anything")
	if err == nil {
		t.Fatal("Summarize() expected error")
	}
	if !strings.Contains(err.Error(), "status 401") || !strings.Contains(err.Error(), "auth") {
		t.Errorf("error %q should carry HTTP status and body", err)
	}
}

func TestStructuredContentIsReencoded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": map[string]any{"summary": map[string]any{"description": "x"}}}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient("test-key", srv.URL, "gpt-4o", "gpt-4-turbo")
	got, err := c.Merge(context.Background(), "{}", "{}", "{}")
	if err != nil {
		t.Fatalf("Merge() error: %v", err)
	}
	if !strings.Contains(got, `"description":"x"`) {
		t.Errorf("Merge() = %q", got)
	}
}
