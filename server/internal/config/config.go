package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort       = 8080
	DefaultStoreCapacity  = 1000
	DefaultStorePath      = "data.json"
	DefaultStreamInterval = 5 * time.Second
)

// Duration is a time.Duration that unmarshals from YAML strings like "5s"
// or "10m" (yaml.v3 has no native support for duration strings).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration %q", value.Value)
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds the server-side configuration parsed from the `server:`
// section of config.yaml. The `agent:` key in the same file is ignored.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server-side settings.
type ServerConfig struct {
	// HTTPPort is the port the HTTP API, WebSocket hub and metrics listen on.
	HTTPPort int `yaml:"http_port"`

	// Store controls measurement retention and persistence.
	Store StoreConfig `yaml:"store"`

	// Stream controls the WebSocket broadcast cadence.
	Stream StreamConfig `yaml:"stream"`

	// Alerts holds threshold rules and webhook delivery targets.
	Alerts AlertsConfig `yaml:"alerts"`
}

// StoreConfig controls measurement retention and persistence.
type StoreConfig struct {
	// Capacity is the maximum number of records kept (default 1000).
	// Oldest records are evicted first.
	Capacity int `yaml:"capacity"`

	// Backend selects the persistence backend: file | sqlite | none.
	// Default: file.
	Backend string `yaml:"backend"`

	// Path is the backing file (or sqlite database) location.
	Path string `yaml:"path"`
}

// StreamConfig controls the WebSocket broadcast cadence.
type StreamConfig struct {
	// Interval is how often the hub pushes the current snapshot to
	// connected dashboard clients. Default: 5s.
	Interval Duration `yaml:"interval"`
}

// AlertsConfig holds threshold rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one threshold condition over an ingested measurement.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression over the record's numeric fields:
	// "temp > 30", "humi < 20", "light >= 5000".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the config file at path, returning the server
// configuration. Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Store: StoreConfig{
				Capacity: DefaultStoreCapacity,
				Backend:  "file",
				Path:     DefaultStorePath,
			},
			Stream: StreamConfig{
				Interval: Duration(DefaultStreamInterval),
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.Store.Capacity <= 0 {
		return fmt.Errorf("server.store.capacity must be positive")
	}
	switch cfg.Server.Store.Backend {
	case "file", "sqlite", "none", "":
	default:
		return fmt.Errorf("server.store.backend %q unknown: want file|sqlite|none", cfg.Server.Store.Backend)
	}
	if cfg.Server.Store.Backend != "none" && cfg.Server.Store.Path == "" {
		return fmt.Errorf("server.store.path must be set for backend %q", cfg.Server.Store.Backend)
	}
	if cfg.Server.Stream.Interval <= 0 {
		return fmt.Errorf("server.stream.interval must be positive")
	}
	return nil
}
