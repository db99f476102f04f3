package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

type Config struct {
	Agent   AgentConfig   `json:"agent"`
	Model   ModelConfig   `json:"model"`
	Context ContextConfig `json:"context"`
	Admin   AdminConfig   `json:"admin"`
	Health  HealthConfig  `json:"health"`
	Queue   QueueConfig   `json:"queue"`
}

type AgentConfig struct {
	Name string `json:"name"`
}

type ModelConfig struct {
	Name            string  `json:"name"`
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"max_output_tokens"`
	TimeoutSec      int     `json:"timeout_sec"`
}

type ContextConfig struct {
	HistoryLimit int `json:"history_limit"`
}

type AdminConfig struct {
	MuteMinutes           int `json:"mute_minutes"`
	BulkDeleteLimit       int `json:"bulk_delete_limit"`
	BulkDeleteMaxAgeHours int `json:"bulk_delete_max_age_hours"`
}

type HealthConfig struct {
	Port int `json:"port"`
}

type QueueConfig struct {
	Workers           int `json:"workers"`
	Buffer            int `json:"buffer"`
	EnqueueTimeoutSec int `json:"enqueue_timeout_sec"`
	AttemptTimeoutSec int `json:"attempt_timeout_sec"`
}

type Manager struct {
	path string
	mu   sync.RWMutex
	cfg  Config
}

func DefaultPath() string {
	return filepath.Join("config", "config.json")
}

func NewManager(path string) (*Manager, error) {
	cfg := defaultConfig()
	mgr := &Manager{
		path: path,
		cfg:  cfg,
	}
	if err := mgr.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	}
	if err := mgr.save(); err != nil {
		return nil, err
	}
	return mgr, nil
}

func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

func (m *Manager) Update(apply func(*Config)) (Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	apply(&m.cfg)
	applyDefaults(&m.cfg)
	if err := m.saveLocked(); err != nil {
		return Config{}, err
	}
	return m.cfg, nil
}

func (m *Manager) load() error {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return err
	}
	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return err
	}
	m.cfg = fileCfg
	applyDefaults(&m.cfg)
	return nil
}

func (m *Manager) save() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveLocked()
}

func (m *Manager) saveLocked() error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m.cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(m.path, data, 0644)
}

func defaultConfig() Config {
	return Config{
		Agent: AgentConfig{
			Name: "Warden",
		},
		Model: ModelConfig{
			Name:            "gpt-4o-mini",
			Temperature:     0.4,
			MaxOutputTokens: 1024,
			TimeoutSec:      30,
		},
		Context: ContextConfig{
			HistoryLimit: 15,
		},
		Admin: AdminConfig{
			MuteMinutes:           5,
			BulkDeleteLimit:       100,
			BulkDeleteMaxAgeHours: 24 * 14,
		},
		Health: HealthConfig{
			Port: 8080,
		},
		Queue: QueueConfig{
			Workers:           2,
			Buffer:            128,
			EnqueueTimeoutSec: 3,
			AttemptTimeoutSec: 120,
		},
	}
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Agent.Name) == "" {
		cfg.Agent.Name = "Warden"
	}
	if strings.TrimSpace(cfg.Model.Name) == "" {
		cfg.Model.Name = "gpt-4o-mini"
	}
	if cfg.Model.Temperature <= 0 || cfg.Model.Temperature > 1 {
		cfg.Model.Temperature = 0.4
	}
	if cfg.Model.MaxOutputTokens <= 0 {
		cfg.Model.MaxOutputTokens = 1024
	}
	if cfg.Model.TimeoutSec <= 0 {
		cfg.Model.TimeoutSec = 30
	}
	if cfg.Context.HistoryLimit <= 0 {
		cfg.Context.HistoryLimit = 15
	}
	if cfg.Admin.MuteMinutes <= 0 {
		cfg.Admin.MuteMinutes = 5
	}
	if cfg.Admin.BulkDeleteLimit <= 0 || cfg.Admin.BulkDeleteLimit > 100 {
		cfg.Admin.BulkDeleteLimit = 100
	}
	if cfg.Admin.BulkDeleteMaxAgeHours <= 0 {
		cfg.Admin.BulkDeleteMaxAgeHours = 24 * 14
	}
	if cfg.Health.Port <= 0 {
		cfg.Health.Port = 8080
	}
	if cfg.Queue.Workers <= 0 {
		cfg.Queue.Workers = 2
	}
	if cfg.Queue.Buffer <= 0 {
		cfg.Queue.Buffer = 128
	}
	if cfg.Queue.EnqueueTimeoutSec <= 0 {
		cfg.Queue.EnqueueTimeoutSec = 3
	}
	if cfg.Queue.AttemptTimeoutSec <= 0 {
		cfg.Queue.AttemptTimeoutSec = 120
	}
}
