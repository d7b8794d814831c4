package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"prompt-party/internal/game"
)

func newTestGeminiClient(baseURL string) *geminiClient {
	return &geminiClient{
		apiKey:  "test-key",
		model:   "test-model",
		baseURL: baseURL,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func TestGeminiGenerateReturnsImage(t *testing.T) {
	var gotPath, gotKey string
	var gotRequest geminiGenerateRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		_ = json.NewDecoder(r.Body).Decode(&gotRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"parts": []map[string]any{
							{"inlineData": map[string]any{"mimeType": "image/png", "data": "aW1n"}},
						},
					},
				},
			},
		})
	}))
	t.Cleanup(ts.Close)

	client := newTestGeminiClient(ts.URL)
	result, err := client.Generate(context.Background(), "a cat in a hat", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if gotPath != "/v1beta/models/test-model:generateContent" {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("unexpected api key header: %s", gotKey)
	}
	if len(gotRequest.Contents) != 1 || len(gotRequest.Contents[0].Parts) != 1 {
		t.Fatalf("unexpected request shape: %+v", gotRequest)
	}
	if result.ImageURL != "data:image/png;base64,aW1n" {
		t.Fatalf("unexpected image url: %s", result.ImageURL)
	}
	if result.Prompt != "a cat in a hat" {
		t.Fatalf("unexpected prompt: %s", result.Prompt)
	}
}

func TestGeminiGenerateSendsSourceImage(t *testing.T) {
	var gotRequest geminiGenerateRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{
					"content": map[string]any{
						"parts": []map[string]any{
							{"inlineData": map[string]any{"mimeType": "image/png", "data": "aW1n"}},
						},
					},
				},
			},
		})
	}))
	t.Cleanup(ts.Close)

	client := newTestGeminiClient(ts.URL)
	if _, err := client.Generate(context.Background(), "add a moon", "data:image/jpeg;base64,c3Jj"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	parts := gotRequest.Contents[0].Parts
	if len(parts) != 2 {
		t.Fatalf("expected prompt and image parts, got %d", len(parts))
	}
	if parts[1].InlineData == nil || parts[1].InlineData.MimeType != "image/jpeg" || parts[1].InlineData.Data != "c3Jj" {
		t.Fatalf("unexpected inline data: %+v", parts[1].InlineData)
	}
}

func TestGeminiGenerateFailureReasons(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		want    game.FailureReason
	}{
		{"rate limited", http.StatusTooManyRequests, "quota exceeded", game.FailureRateLimited},
		{"billing", http.StatusPaymentRequired, "billing required", game.FailureBilling},
		{"bad key", http.StatusUnauthorized, "API key not valid", game.FailureInvalidCredential},
		{"content policy", http.StatusBadRequest, "request blocked by safety filters", game.FailureContentPolicy},
		{"other", http.StatusInternalServerError, "backend exploded", game.FailureOther},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(map[string]any{
					"error": map[string]any{"code": tt.status, "message": tt.message},
				})
			}))
			t.Cleanup(ts.Close)

			client := newTestGeminiClient(ts.URL)
			_, err := client.Generate(context.Background(), "a cat", "")
			var serviceErr *game.ExternalServiceError
			if !errors.As(err, &serviceErr) {
				t.Fatalf("expected external service error, got %v", err)
			}
			if serviceErr.Reason != tt.want {
				t.Fatalf("expected reason %s, got %s", tt.want, serviceErr.Reason)
			}
		})
	}
}

func TestGeminiGenerateSafetyFinish(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]any{}}, "finishReason": "SAFETY"},
			},
		})
	}))
	t.Cleanup(ts.Close)

	client := newTestGeminiClient(ts.URL)
	_, err := client.Generate(context.Background(), "something shady", "")
	var serviceErr *game.ExternalServiceError
	if !errors.As(err, &serviceErr) || serviceErr.Reason != game.FailureContentPolicy {
		t.Fatalf("expected content-policy failure, got %v", err)
	}
}

func TestGeminiGenerateWithoutKey(t *testing.T) {
	client := &geminiClient{client: http.DefaultClient}
	_, err := client.Generate(context.Background(), "a cat", "")
	var serviceErr *game.ExternalServiceError
	if !errors.As(err, &serviceErr) || serviceErr.Reason != game.FailureInvalidCredential {
		t.Fatalf("expected invalid-credential failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("unexpected message: %v", err)
	}
}
