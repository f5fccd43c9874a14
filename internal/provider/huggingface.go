package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultHFBaseURL = "https://api-inference.huggingface.co"

// HuggingFace calls the Hugging Face Inference API.
type HuggingFace struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewHuggingFace creates a Hugging Face provider. An empty baseURL uses the
// public inference endpoint.
func NewHuggingFace(apiKey, baseURL string) *HuggingFace {
	if baseURL == "" {
		baseURL = defaultHFBaseURL
	}
	return &HuggingFace{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

// Generate sends the prompt to the model's inference endpoint and returns
// the generated text.
func (h *HuggingFace) Generate(ctx context.Context, req Request) (*Response, error) {
	if req.Model == "" {
		return nil, fmt.Errorf("model required")
	}
	if req.TopP == 0 {
		req.TopP = 0.9
	}

	reqBody := map[string]any{
		"inputs": req.Prompt,
		"parameters": map[string]any{
			"temperature":      req.Temperature,
			"max_new_tokens":   req.MaxTokens,
			"top_p":            req.TopP,
			"do_sample":        true,
			"return_full_text": false,
		},
		"options": map[string]any{
			"use_cache":      false,
			"wait_for_model": true,
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	url := h.baseURL + "/models/" + req.Model
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create generate request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+h.apiKey)

	resp, err := h.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("huggingface api: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read generate response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("huggingface status %d: %s", resp.StatusCode, respBody)
	}

	var result []struct {
		GeneratedText string `json:"generated_text"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("decode generate response: %w", err)
	}
	if len(result) == 0 {
		return nil, fmt.Errorf("huggingface returned no generations")
	}

	content := result[0].GeneratedText
	return &Response{
		Content:    content,
		Provider:   "huggingface",
		TokensUsed: len(content) / 4, // character-based estimate; HF does not report usage
	}, nil
}

// Models returns a curated list of conversational models. The inference API
// has no practical listing endpoint for this use case.
func (h *HuggingFace) Models(ctx context.Context) ([]ModelInfo, error) {
	return []ModelInfo{
		{ID: "microsoft/DialoGPT-large", Name: "DialoGPT Large", Description: "Conversational model", ContextLength: 1024},
		{ID: "microsoft/DialoGPT-medium", Name: "DialoGPT Medium", Description: "Conversational model", ContextLength: 1024},
		{ID: "facebook/blenderbot-400M-distill", Name: "BlenderBot 400M", Description: "Open-domain chatbot", ContextLength: 512},
	}, nil
}
