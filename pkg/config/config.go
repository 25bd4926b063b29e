package config

import (
	"context"
	"encoding/json"
	"time"
)

// Config is the base configuration of an overlay host. Debug overrides are
// layered on top of it by the Manager and never written back.
type Config struct {
	Server  ServerConfig  `koanf:"server"  validate:"required"`
	Runtime RuntimeConfig `koanf:"runtime" validate:"required"`
	Agent   AgentConfig   `koanf:"agent"   validate:"required"`
	Debug   DebugConfig   `koanf:"debug"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Host        string        `koanf:"host"         validate:"required"        env:"OVERLAY_SERVER_HOST"         cli:"host"`
	Port        int           `koanf:"port"         validate:"min=1,max=65535" env:"OVERLAY_SERVER_PORT"         cli:"port"`
	Timeout     time.Duration `koanf:"timeout"                                 env:"OVERLAY_SERVER_TIMEOUT"`
	CORSEnabled bool          `koanf:"cors_enabled"                            env:"OVERLAY_SERVER_CORS_ENABLED" cli:"cors"`
}

// RuntimeConfig contains runtime behavior configuration.
type RuntimeConfig struct {
	Environment string `koanf:"environment" validate:"oneof=development staging production" env:"OVERLAY_ENVIRONMENT"`
	LogLevel    string `koanf:"log_level"   validate:"oneof=debug info warn error disabled"  env:"OVERLAY_LOG_LEVEL"   cli:"log-level"`
	LogJSON     bool   `koanf:"log_json"                                                     env:"OVERLAY_LOG_JSON"    cli:"log-json"`
}

// AgentConfig contains the settings of the hosted agent.
type AgentConfig struct {
	Model       string          `koanf:"model"       validate:"required"       env:"OVERLAY_AGENT_MODEL"`
	Temperature float64         `koanf:"temperature" validate:"min=0,max=2"    env:"OVERLAY_AGENT_TEMPERATURE"`
	MaxTokens   int             `koanf:"max_tokens"  validate:"min=1"          env:"OVERLAY_AGENT_MAX_TOKENS"`
	Tools       []string        `koanf:"tools"       validate:"dive,tool_name" env:"OVERLAY_AGENT_TOOLS"`
	APIKey      SensitiveString `koanf:"api_key"                               env:"OVERLAY_AGENT_API_KEY"     sensitive:"true"`
}

// DebugConfig gates the /debug command surface.
type DebugConfig struct {
	CommandsEnabled bool `koanf:"commands_enabled" env:"OVERLAY_DEBUG_COMMANDS_ENABLED"`
}

// Service defines the configuration loading service.
type Service interface {
	// Load loads configuration from the specified sources with precedence order.
	Load(ctx context.Context, sources ...Source) (*Config, error)
	// Validate checks if the configuration meets all validation requirements.
	Validate(config *Config) error
	// GetSource returns the source type that provided a configuration key.
	GetSource(key string) SourceType
	// Raw returns a copy of the merged base configuration as plain nested maps.
	Raw() map[string]any
}

// Source defines the interface for configuration sources.
type Source interface {
	// Load reads configuration from the source.
	Load() (map[string]any, error)
	// Watch monitors the source for changes.
	Watch(ctx context.Context, callback func()) error
	// Type returns the source type identifier.
	Type() SourceType
	// Close releases any resources held by the source.
	Close() error
}

// SourceType identifies the type of configuration source.
type SourceType string

const (
	SourceCLI     SourceType = "cli"
	SourceYAML    SourceType = "yaml"
	SourceEnv     SourceType = "env"
	SourceDefault SourceType = "default"
)

// Metadata contains metadata about configuration sources.
type Metadata struct {
	Sources  map[string]SourceType `json:"sources"`
	LoadedAt time.Time             `json:"loaded_at"`
}

// Default returns a Config with default values for development.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    5001,
			Timeout: 30 * time.Second,
		},
		Runtime: RuntimeConfig{
			Environment: "development",
			LogLevel:    "info",
		},
		Agent: AgentConfig{
			Model:       "gpt-4o-mini",
			Temperature: 0.7,
			MaxTokens:   1024,
			Tools:       []string{},
		},
		Debug: DebugConfig{
			CommandsEnabled: true,
		},
	}
}

const redacted = "[REDACTED]"

// SensitiveString holds a secret. It prints and marshals as [REDACTED]
// while Value returns the real content.
type SensitiveString string

func (s SensitiveString) String() string {
	if s == "" {
		return ""
	}
	return redacted
}

func (s SensitiveString) Value() string {
	return string(s)
}

func (s SensitiveString) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

func (s *SensitiveString) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = SensitiveString(raw)
	return nil
}
