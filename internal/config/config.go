// Package config provides YAML-based configuration loading for Conductor.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Conductor configuration, loaded from conductor.yaml.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Memory    MemoryConfig    `yaml:"memory"`
	Providers ProvidersConfig `yaml:"providers"`
	RAG       RAGConfig       `yaml:"rag"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig holds relational store settings. Driver "sqlite" uses Path;
// driver "mysql" uses Host/Port/Name.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Name   string `yaml:"name"`
	User   string `yaml:"user"`
}

// RedisConfig holds connection settings for the Redis memory backend.
type RedisConfig struct {
	Addr string `yaml:"addr"`
}

// MemoryConfig controls the bounded conversational memory.
type MemoryConfig struct {
	Backend    string `yaml:"backend"` // "redis" or "local"
	Limit      int    `yaml:"limit"`
	TTLSeconds int    `yaml:"ttl_seconds"` // 0 = no expiry
}

// ProvidersConfig holds LLM provider settings.
type ProvidersConfig struct {
	OpenAIAPIKey   string `yaml:"openai_api_key"`
	OllamaBaseURL  string `yaml:"ollama_base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// RAGConfig points at the external retrieval service.
type RAGConfig struct {
	BaseURL string `yaml:"base_url"`
	TopK    int    `yaml:"top_k"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "conductor.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "conductor"
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Memory.Backend == "" {
		c.Memory.Backend = "local"
	}
	if c.Memory.Limit == 0 {
		c.Memory.Limit = 5
	}
	if c.Providers.OpenAIAPIKey == "" {
		c.Providers.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Providers.OllamaBaseURL == "" {
		c.Providers.OllamaBaseURL = "http://localhost:11434"
	}
	if c.Providers.TimeoutSeconds == 0 {
		c.Providers.TimeoutSeconds = 300
	}
	if c.RAG.TopK == 0 {
		c.RAG.TopK = 4
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	switch c.Memory.Backend {
	case "local":
	case "redis":
		if c.Redis.Addr == "" {
			errs = append(errs, "redis.addr is required when memory.backend is redis")
		}
	default:
		errs = append(errs, fmt.Sprintf("memory.backend %q is not supported (redis, local)", c.Memory.Backend))
	}
	if c.Memory.Limit < 0 {
		errs = append(errs, "memory.limit must not be negative")
	}
	if c.Memory.TTLSeconds < 0 {
		errs = append(errs, "memory.ttl_seconds must not be negative")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
