package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/openfloor/debateprep/internal/config"
)

func TestHuggingFaceGenerate(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode([]map[string]string{{"generated_text": "A measured rebuttal."}})
	}))
	defer srv.Close()

	hf := NewHuggingFace("test-key", srv.URL)
	resp, err := hf.Generate(context.Background(), Request{
		Prompt:      "Respond to the opening statement",
		Model:       "microsoft/DialoGPT-large",
		Temperature: 0.7,
		MaxTokens:   100,
	})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if resp.Content != "A measured rebuttal." {
		t.Errorf("Content = %q", resp.Content)
	}
	if resp.Provider != "huggingface" {
		t.Errorf("Provider = %q", resp.Provider)
	}
	if resp.TokensUsed != len("A measured rebuttal.")/4 {
		t.Errorf("TokensUsed = %d", resp.TokensUsed)
	}

	if gotPath != "/models/microsoft/DialoGPT-large" {
		t.Errorf("path = %q", gotPath)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotBody["inputs"] != "Respond to the opening statement" {
		t.Errorf("inputs = %v", gotBody["inputs"])
	}
	params, _ := gotBody["parameters"].(map[string]any)
	if params["max_new_tokens"] != float64(100) {
		t.Errorf("max_new_tokens = %v", params["max_new_tokens"])
	}
	if params["return_full_text"] != false {
		t.Errorf("return_full_text = %v", params["return_full_text"])
	}
}

func TestHuggingFaceGenerateRequiresModel(t *testing.T) {
	hf := NewHuggingFace("test-key", "")
	if _, err := hf.Generate(context.Background(), Request{Prompt: "p"}); err == nil {
		t.Error("want error when model missing")
	}
}

func TestHuggingFaceGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"model overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	hf := NewHuggingFace("test-key", srv.URL)
	_, err := hf.Generate(context.Background(), Request{Prompt: "p", Model: "m"})
	if err == nil {
		t.Fatal("want error on 503")
	}
	if !strings.Contains(err.Error(), "503") {
		t.Errorf("err = %v, want status in message", err)
	}
}

func TestHuggingFaceGenerateEmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	hf := NewHuggingFace("test-key", srv.URL)
	if _, err := hf.Generate(context.Background(), Request{Prompt: "p", Model: "m"}); err == nil {
		t.Error("want error on empty generations")
	}
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(config.ProviderConfig{Name: "huggingface", APIKey: "key"})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, ok := c.(*HuggingFace); !ok {
		t.Errorf("client type = %T", c)
	}

	if _, err := NewClient(config.ProviderConfig{Name: "huggingface"}); err == nil {
		t.Error("want error when api key missing")
	}

	if _, err := NewClient(config.ProviderConfig{Name: "unknown", APIKey: "key"}); err == nil {
		t.Error("want error for unknown provider")
	}
}

func TestMockClientRecordsCalls(t *testing.T) {
	mock := &MockClient{Response: &Response{Content: "ok", Provider: "mock"}}

	resp, err := mock.Generate(context.Background(), Request{Prompt: "p1", Model: "m"})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Content != "ok" {
		t.Errorf("Content = %q", resp.Content)
	}
	if len(mock.Calls) != 1 || mock.Calls[0].Prompt != "p1" {
		t.Errorf("Calls = %+v", mock.Calls)
	}
}
