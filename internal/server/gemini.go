package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"prompt-party/internal/config"
	"prompt-party/internal/game"
)

// imageGenerator is the external image-generation collaborator. The
// core threads its result into the image version chain and passes its
// failures through untouched; there is no retry here.
type imageGenerator interface {
	Generate(ctx context.Context, prompt, sourceImage string) (game.GenerationResult, error)
}

type geminiClient struct {
	apiKey  string
	model   string
	baseURL string
	size    string
	client  *http.Client
}

func newGeminiClient(cfg config.Config) *geminiClient {
	return &geminiClient{
		apiKey:  cfg.GeminiAPIKey,
		model:   cfg.GeminiModel,
		baseURL: strings.TrimRight(cfg.GeminiBaseURL, "/"),
		size:    cfg.GeminiSize,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiGenerateRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text       string `json:"text,omitempty"`
				InlineData *struct {
					MimeType string `json:"mimeType"`
					Data     string `json:"data"`
				} `json:"inlineData,omitempty"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Status  string `json:"status"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *geminiClient) Generate(ctx context.Context, prompt, sourceImage string) (game.GenerationResult, error) {
	if strings.TrimSpace(g.apiKey) == "" {
		return game.GenerationResult{}, &game.ExternalServiceError{
			Reason:  game.FailureInvalidCredential,
			Message: "Gemini API key is not configured",
		}
	}
	if strings.TrimSpace(prompt) == "" {
		return game.GenerationResult{}, &game.ValidationError{Message: "prompt cannot be empty"}
	}

	parts := []geminiPart{{Text: prompt}}
	if sourceImage != "" {
		mimeType, data, err := decodeImageData(sourceImage)
		if err == nil {
			parts = append(parts, geminiPart{InlineData: &geminiInlineData{
				MimeType: mimeType,
				Data:     data,
			}})
		}
	}
	payload, err := json.Marshal(geminiGenerateRequest{
		Contents: []geminiContent{{Parts: parts}},
	})
	if err != nil {
		return game.GenerationResult{}, &game.ExternalServiceError{
			Reason:  game.FailureOther,
			Message: "failed to build Gemini request",
			Err:     err,
		}
	}

	reqCtx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return game.GenerationResult{}, &game.ExternalServiceError{
			Reason:  game.FailureOther,
			Message: "failed to build Gemini request",
			Err:     err,
		}
	}
	req.Header.Set("x-goog-api-key", strings.TrimSpace(g.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return game.GenerationResult{}, &game.ExternalServiceError{
			Reason:  game.FailureOther,
			Message: "failed to reach Gemini",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return game.GenerationResult{}, &game.ExternalServiceError{
			Reason:  game.FailureOther,
			Message: "failed to read Gemini response",
			Err:     err,
		}
	}

	var parsed geminiGenerateResponse
	if err := json.Unmarshal(body, &parsed); err != nil && resp.StatusCode < 300 {
		return game.GenerationResult{}, &game.ExternalServiceError{
			Reason:  game.FailureOther,
			Message: "failed to parse Gemini response",
			Err:     err,
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return game.GenerationResult{}, geminiFailure(resp.StatusCode, &parsed)
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return game.GenerationResult{}, geminiFailure(parsed.Error.Code, &parsed)
	}

	for _, candidate := range parsed.Candidates {
		if strings.EqualFold(candidate.FinishReason, "SAFETY") {
			return game.GenerationResult{}, &game.ExternalServiceError{
				Reason:  game.FailureContentPolicy,
				Message: "prompt violates the Gemini content policy",
			}
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != "" {
				return game.GenerationResult{
					ImageURL:  encodeImageData(part.InlineData.MimeType, part.InlineData.Data),
					Prompt:    prompt,
					CreatedAt: timeNowUTC(),
				}, nil
			}
		}
	}
	return game.GenerationResult{}, &game.ExternalServiceError{
		Reason:  game.FailureOther,
		Message: "Gemini returned no image",
	}
}

func geminiFailure(code int, parsed *geminiGenerateResponse) error {
	message := fmt.Sprintf("Gemini request failed (%d)", code)
	if parsed != nil && parsed.Error != nil && parsed.Error.Message != "" {
		message = parsed.Error.Message
	}
	reason := game.FailureOther
	lower := strings.ToLower(message)
	switch {
	case code == http.StatusTooManyRequests || strings.Contains(lower, "rate limit") || strings.Contains(lower, "quota"):
		reason = game.FailureRateLimited
	case code == http.StatusPaymentRequired || strings.Contains(lower, "billing"):
		reason = game.FailureBilling
	case code == http.StatusUnauthorized || code == http.StatusForbidden || strings.Contains(lower, "api key"):
		reason = game.FailureInvalidCredential
	case strings.Contains(lower, "safety") || strings.Contains(lower, "content policy") || strings.Contains(lower, "blocked"):
		reason = game.FailureContentPolicy
	}
	return &game.ExternalServiceError{Reason: reason, Message: message}
}
