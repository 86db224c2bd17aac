// Package config handles petagentd configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./config.yaml, ~/.config/petagent/config.yaml, /etc/petagent/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "petagent", "config.yaml"))
	}

	paths = append(paths, "/etc/petagent/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns the path found, or an error if nothing was found.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", DefaultSearchPaths())
}

// Config holds all petagentd configuration.
type Config struct {
	Listen    ListenConfig    `yaml:"listen"`
	Relay     RelayConfig     `yaml:"relay"`
	Personas  []PersonaConfig `yaml:"personas"`
	DataDir   string          `yaml:"data_dir"`
	LogLevel  string          `yaml:"log_level"`
	LogFormat string          `yaml:"log_format"` // "text" (default) or "json"
}

// ListenConfig defines the API server settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// RelayConfig defines the LAN relay the peer messaging client connects to.
// Discovery and relay topology are handled by the relay itself; we only
// hold a websocket endpoint here.
type RelayConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"` // e.g. ws://192.168.1.20:9470/relay
}

// PersonaConfig defines a single persona driven by one agent session.
// The json tags serve the config update API.
type PersonaConfig struct {
	ID            string         `yaml:"id" json:"id"`
	Name          string         `yaml:"name" json:"name"`
	SystemPrompt  string         `yaml:"system_prompt" json:"system_prompt"`
	Provider      ProviderConfig `yaml:"provider" json:"provider"`
	MaxIterations int            `yaml:"max_iterations" json:"max_iterations"` // 0 = default (5)
	MemorySize    int            `yaml:"memory_size" json:"memory_size"`       // 0 = default (50)

	// DisabledCapabilities turns off tool sources by name. Valid names:
	// avatar, cognition, widgets, peers, plugins. Everything with a
	// configured collaborator is enabled by default.
	DisabledCapabilities []string `yaml:"disabled_capabilities" json:"disabled_capabilities"`
}

// CapabilityDisabled reports whether a named capability is switched off.
func (p PersonaConfig) CapabilityDisabled(name string) bool {
	for _, d := range p.DisabledCapabilities {
		if d == name {
			return true
		}
	}
	return false
}

// ProviderConfig defines the LLM provider behind a persona.
type ProviderConfig struct {
	ID        string `yaml:"id" json:"id"` // "openai" or "claude"
	Model     string `yaml:"model" json:"model"`
	APIKey    string `yaml:"api_key" json:"api_key,omitempty"`
	BaseURL   string `yaml:"base_url" json:"base_url,omitempty"` // required for openai-compatible endpoints
	MaxTokens int    `yaml:"max_tokens" json:"max_tokens,omitempty"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{
		Listen: ListenConfig{Port: 9460},
	}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration.
func Default() *Config {
	return &Config{
		Listen:  ListenConfig{Port: 9460},
		DataDir: ".",
		Personas: []PersonaConfig{
			{
				ID:           "default",
				Name:         "Mochi",
				SystemPrompt: "You are Mochi, a small desktop companion. Be warm and brief.",
				Provider: ProviderConfig{
					ID:    "claude",
					Model: "claude-sonnet-4-20250514",
				},
			},
		},
	}
}
