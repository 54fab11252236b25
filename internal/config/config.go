// Package config loads the terminal client's settings from a TOML (or YAML)
// file, the user's .env file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config is the full client configuration.
type Config struct {
	Agent   AgentConfig   `toml:"agent"   yaml:"agent"`
	Voice   VoiceConfig   `toml:"voice"   yaml:"voice"`
	Notify  NotifyConfig  `toml:"notify"  yaml:"notify"`
	Logging LoggingConfig `toml:"logging" yaml:"logging"`
}

// AgentConfig locates the agent's control API.
type AgentConfig struct {
	BaseURL        string   `toml:"base_url"        yaml:"base_url"`
	Token          string   `toml:"token"           yaml:"token"`
	CommandTimeout Duration `toml:"command_timeout" yaml:"command_timeout"`
	HealthTimeout  Duration `toml:"health_timeout"  yaml:"health_timeout"`
}

// VoiceConfig covers capture, transcription, synthesis and playback.
type VoiceConfig struct {
	InputDevice  string   `toml:"input_device"   yaml:"input_device"`
	SampleRate   int      `toml:"sample_rate"    yaml:"sample_rate"`
	Format       string   `toml:"format"         yaml:"format"`
	Channels     int      `toml:"channels"       yaml:"channels"`
	Duration     Duration `toml:"duration"       yaml:"duration"`
	MinClipBytes int64    `toml:"min_clip_bytes" yaml:"min_clip_bytes"`
	// OutputSink is "bluetooth", a PulseAudio sink name, or empty for the
	// default sink.
	OutputSink    string `toml:"output_sink"     yaml:"output_sink"`
	STTModel      string `toml:"stt_model"       yaml:"stt_model"`
	TTSModel      string `toml:"tts_model"       yaml:"tts_model"`
	Voice         string `toml:"voice"           yaml:"voice"`
	Language      string `toml:"language"        yaml:"language"`
	Welcome       string `toml:"welcome"         yaml:"welcome"`
	OpenAIKey     string `toml:"openai_api_key"  yaml:"openai_api_key"`
	OpenAIBaseURL string `toml:"openai_base_url" yaml:"openai_base_url"`
}

// NotifyConfig controls the notification poller.
type NotifyConfig struct {
	PollInterval Duration `toml:"poll_interval" yaml:"poll_interval"`
	// API enables the agent's terminal-messages endpoint as a source in
	// addition to the queue file.
	API bool `toml:"api" yaml:"api"`
}

// LoggingConfig selects the log level and optional log file.
type LoggingConfig struct {
	Level string `toml:"level" yaml:"level"`
	File  string `toml:"file"  yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			BaseURL:        "http://127.0.0.1:9090",
			CommandTimeout: Duration(120 * time.Second),
			HealthTimeout:  Duration(5 * time.Second),
		},
		Voice: VoiceConfig{
			InputDevice:  "hw:2,0",
			SampleRate:   48000,
			Format:       "S16_LE",
			Channels:     1,
			Duration:     Duration(5 * time.Second),
			MinClipBytes: 1000,
			OutputSink:   "bluetooth",
			STTModel:     "whisper-1",
			TTSModel:     "tts-1",
			Voice:        "onyx",
			Language:     "en",
			Welcome:      "Welcome back",
		},
		Notify: NotifyConfig{
			PollInterval: Duration(5 * time.Second),
			API:          true,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// LoadEnvFile loads KEY=value pairs from path into the environment without
// overriding variables that are already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration at path on top of the defaults, applies
// environment overrides and validates the result. A missing file yields the
// defaults. Files ending in .yaml or .yml are decoded as YAML, anything else
// as TOML.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path) //nolint:gosec // config path is chosen by the user
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := decode(path, data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yaml.Unmarshal(data, cfg)
	default:
		return toml.Unmarshal(data, cfg)
	}
}

// applyEnv overrides file values with environment variables when present.
func (c *Config) applyEnv() {
	if v := os.Getenv("ALEX_API_BASE"); v != "" {
		c.Agent.BaseURL = v
	}
	if v := os.Getenv("ALEX_API_TOKEN"); v != "" {
		c.Agent.Token = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.Voice.OpenAIKey = v
	}
	if v := os.Getenv("ALEX_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Agent.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("agent.base_url %q is not an absolute URL", c.Agent.BaseURL)
	}
	for name, d := range map[string]Duration{
		"agent.command_timeout": c.Agent.CommandTimeout,
		"agent.health_timeout":  c.Agent.HealthTimeout,
		"voice.duration":        c.Voice.Duration,
		"notify.poll_interval":  c.Notify.PollInterval,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.Voice.Channels <= 0 {
		return errors.New("voice.channels must be positive")
	}
	if c.Voice.SampleRate <= 0 {
		return errors.New("voice.sample_rate must be positive")
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

// Duration is a time.Duration written as a Go duration string such as "5s".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q", s)
	}
	*d = Duration(v)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}
