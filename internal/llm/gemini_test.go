package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestGeminiProvider_Complete_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "gemini-test:generateContent") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		cfg, _ := body["generationConfig"].(map[string]any)
		if cfg["responseMimeType"] != "application/json" {
			t.Errorf("Expected JSON mime type, got %v", cfg["responseMimeType"])
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates": [{
				"content": {"role": "model", "parts": [{"text": "{\"factor_scores\": {\"IU001\": 91}}"}]},
				"finishReason": "STOP"
			}],
			"usageMetadata": {"promptTokenCount": 30, "candidatesTokenCount": 12, "totalTokenCount": 42},
			"modelVersion": "gemini-test-001"
		}`))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(context.Background(), Config{
		APIKey:  "test-key",
		BaseURL: server.URL,
		Model:   "gemini-test",
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		System: "system",
		Prompt: "score",
		JSON:   true,
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Text != `{"factor_scores": {"IU001": 91}}` {
		t.Errorf("Unexpected text: %s", resp.Text)
	}
	if resp.TokensUsed != 42 {
		t.Errorf("Expected 42 tokens, got %d", resp.TokensUsed)
	}
	if resp.Model != "gemini-test-001" {
		t.Errorf("Expected model version, got %s", resp.Model)
	}
}

func TestGeminiProvider_Complete_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"code": 503, "message": "overloaded", "status": "UNAVAILABLE"}}`))
	}))
	defer server.Close()

	provider, err := NewGeminiProvider(context.Background(), Config{APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	_, err = provider.Complete(context.Background(), CompletionRequest{Prompt: "x"})

	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("Expected ProviderError, got %v", err)
	}
	if !perr.IsRetryable() {
		t.Errorf("Expected retryable error, got %v", perr)
	}
}

func TestGeminiProvider_MissingKey(t *testing.T) {
	if _, err := NewGeminiProvider(context.Background(), Config{}); !errors.Is(err, ErrEmptyAPIKey) {
		t.Errorf("Expected ErrEmptyAPIKey, got %v", err)
	}
}
