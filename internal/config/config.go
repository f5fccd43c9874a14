package config

import "fmt"

// Config holds all debateprep configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Provider ProviderConfig
}

type ServerConfig struct {
	Bind string
	Port int
}

type DatabaseConfig struct {
	Path string
}

type ProviderConfig struct {
	Name        string // "huggingface"
	Model       string
	APIKey      string
	BaseURL     string // override for testing; empty = provider default
	Temperature float64
	MaxTokens   int
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 37780,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Provider: ProviderConfig{
			Name:        "huggingface",
			Model:       "microsoft/DialoGPT-large",
			Temperature: 0.7,
			MaxTokens:   1000,
		},
	}
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}
