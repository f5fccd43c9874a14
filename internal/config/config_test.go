package config

import "testing"

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Server.Port != 37780 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Provider.Name != "huggingface" {
		t.Errorf("Provider.Name = %q", cfg.Provider.Name)
	}
	if cfg.Provider.APIKey != "" {
		t.Errorf("APIKey should default to empty, got %q", cfg.Provider.APIKey)
	}
}

func TestListenAddr(t *testing.T) {
	cfg := Default()
	if got := cfg.ListenAddr(); got != "127.0.0.1:37780" {
		t.Errorf("ListenAddr() = %q", got)
	}
}
