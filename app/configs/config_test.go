package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyDefaultsFillsEmptyConfig(t *testing.T) {
	cfg := Config{}

	applyDefaults(&cfg)

	if cfg.Agent.Name != "Warden" {
		t.Fatalf("unexpected agent name: %q", cfg.Agent.Name)
	}
	if cfg.Model.Name != "gpt-4o-mini" {
		t.Fatalf("unexpected model name: %q", cfg.Model.Name)
	}
	if cfg.Model.Temperature != 0.4 {
		t.Fatalf("unexpected temperature: %f", cfg.Model.Temperature)
	}
	if cfg.Model.MaxOutputTokens != 1024 {
		t.Fatalf("unexpected max output tokens: %d", cfg.Model.MaxOutputTokens)
	}
	if cfg.Context.HistoryLimit != 15 {
		t.Fatalf("unexpected history limit: %d", cfg.Context.HistoryLimit)
	}
	if cfg.Admin.MuteMinutes != 5 {
		t.Fatalf("unexpected mute minutes: %d", cfg.Admin.MuteMinutes)
	}
	if cfg.Admin.BulkDeleteLimit != 100 {
		t.Fatalf("unexpected bulk delete limit: %d", cfg.Admin.BulkDeleteLimit)
	}
	if cfg.Admin.BulkDeleteMaxAgeHours != 24*14 {
		t.Fatalf("unexpected bulk delete max age: %d", cfg.Admin.BulkDeleteMaxAgeHours)
	}
	if cfg.Health.Port != 8080 {
		t.Fatalf("unexpected health port: %d", cfg.Health.Port)
	}
	if cfg.Queue.Workers != 2 || cfg.Queue.Buffer != 128 {
		t.Fatalf("unexpected queue defaults: %+v", cfg.Queue)
	}
}

func TestApplyDefaultsClampsOutOfRangeValues(t *testing.T) {
	cfg := Config{
		Model: ModelConfig{Temperature: 1.7},
		Admin: AdminConfig{BulkDeleteLimit: 500},
	}

	applyDefaults(&cfg)

	if cfg.Model.Temperature != 0.4 {
		t.Fatalf("expected temperature clamped to 0.4, got %f", cfg.Model.Temperature)
	}
	if cfg.Admin.BulkDeleteLimit != 100 {
		t.Fatalf("expected bulk delete limit clamped to 100, got %d", cfg.Admin.BulkDeleteLimit)
	}
}

func TestApplyDefaultsKeepsExplicitValues(t *testing.T) {
	cfg := Config{
		Agent:   AgentConfig{Name: "Custodian"},
		Model:   ModelConfig{Name: "gpt-4o", Temperature: 0.7, MaxOutputTokens: 512, TimeoutSec: 10},
		Context: ContextConfig{HistoryLimit: 10},
	}

	applyDefaults(&cfg)

	if cfg.Agent.Name != "Custodian" {
		t.Fatalf("expected explicit name preserved, got %q", cfg.Agent.Name)
	}
	if cfg.Model.Name != "gpt-4o" || cfg.Model.Temperature != 0.7 {
		t.Fatalf("expected explicit model preserved, got %+v", cfg.Model)
	}
	if cfg.Context.HistoryLimit != 10 {
		t.Fatalf("expected explicit history limit preserved, got %d", cfg.Context.HistoryLimit)
	}
}

func TestManagerRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")

	mgr, err := NewManager(path)
	if err != nil {
		t.Fatalf("manager init failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file written: %v", err)
	}

	if _, err := mgr.Update(func(c *Config) {
		c.Agent.Name = "Custodian"
	}); err != nil {
		t.Fatalf("update failed: %v", err)
	}

	reloaded, err := NewManager(path)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got := reloaded.Get().Agent.Name; got != "Custodian" {
		t.Fatalf("expected persisted name, got %q", got)
	}
}
