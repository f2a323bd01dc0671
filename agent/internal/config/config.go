package config

import (
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultServerURL      = "http://localhost:8080"
	DefaultSampleInterval = 10 * time.Second
	DefaultBufferSize     = 100
)

// Duration is a time.Duration that unmarshals from YAML strings like "10s"
// (yaml.v3 has no native support for duration strings).
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

// Config holds the agent-side configuration parsed from the `agent:` section
// of config.yaml. The `server:` key in the same file is ignored.
type Config struct {
	Agent AgentConfig `yaml:"agent"`
}

// AgentConfig holds all agent-side settings.
type AgentConfig struct {
	// ServerURL is the base URL of espdash-server; readings are POSTed to
	// its /measurements endpoint.
	ServerURL string `yaml:"server_url"`

	// SampleInterval controls how often a reading is taken.
	SampleInterval Duration `yaml:"sample_interval"`

	// BufferSize is the maximum number of readings held in memory while
	// the server is unreachable. Oldest readings are dropped first.
	BufferSize int `yaml:"buffer_size"`

	// Seed makes the synthetic sensor deterministic when non-zero.
	// Zero seeds from the wall clock.
	Seed int64 `yaml:"seed"`
}

// Load reads and parses the config file at path, returning the agent
// configuration. Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("agent config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("agent config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("agent config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Agent: AgentConfig{
			ServerURL:      DefaultServerURL,
			SampleInterval: Duration(DefaultSampleInterval),
			BufferSize:     DefaultBufferSize,
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	u, err := url.Parse(cfg.Agent.ServerURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("agent.server_url %q is not an absolute URL", cfg.Agent.ServerURL)
	}
	if cfg.Agent.SampleInterval <= 0 {
		return fmt.Errorf("agent.sample_interval must be positive")
	}
	if cfg.Agent.BufferSize <= 0 {
		return fmt.Errorf("agent.buffer_size must be positive")
	}
	return nil
}
