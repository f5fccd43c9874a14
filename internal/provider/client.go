package provider

import (
	"context"
	"fmt"

	"github.com/openfloor/debateprep/internal/config"
)

// Client is the interface for generation providers.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	Models(ctx context.Context) ([]ModelInfo, error)
}

// Request describes a single generation call.
type Request struct {
	Prompt      string
	Model       string
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// Response holds the result of a generation call.
type Response struct {
	Content    string
	Provider   string
	TokensUsed int
}

// ModelInfo describes a model available from a provider.
type ModelInfo struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description,omitempty"`
	ContextLength int    `json:"context_length,omitempty"`
}

// NewClient creates a provider client based on the config.
func NewClient(cfg config.ProviderConfig) (Client, error) {
	switch cfg.Name {
	case "huggingface":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("huggingface provider requires HF_API_KEY or config")
		}
		return NewHuggingFace(cfg.APIKey, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown provider: %q", cfg.Name)
	}
}
