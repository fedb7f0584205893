package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"chatgate/internal/domain"
)

// DefaultEnv is the environment used when none is given.
const DefaultEnv = "dev"

// Defaults applied to fields left empty in the file.
const (
	DefaultAddr            = ":8501"
	DefaultBackendURL      = "https://api.openai.com"
	DefaultAPIKeyEnv       = "OPENAI_API_KEY"
	DefaultPoll            = 60
	DefaultTimeout         = 1800
	DefaultBackendTimeout  = 300
	DefaultShutdownTimeout = 30
	DefaultSigningKey      = "keys/dev.key"
)

// Seconds is a duration written as a whole number of seconds.
type Seconds int

// Duration converts s to a time.Duration.
func (s Seconds) Duration() time.Duration { return time.Duration(s) * time.Second }

// Config is the configuration of one environment.
type Config struct {
	// Env is the section name this config was loaded from.
	Env string `yaml:"-"`

	// PubKey is the PEM public key that login tokens are verified against.
	PubKey string `yaml:"pubkey"`

	// SigningKey is the PEM private key used by `chatgate sign`.
	SigningKey string `yaml:"signing_key"`

	// AssistantID names the backend assistant that answers chat turns.
	AssistantID string `yaml:"assistant_id"`

	// Model overrides the assistant's own model when set.
	Model string `yaml:"model"`

	Idle    IdleConfig    `yaml:"idle"`
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Log     LogConfig     `yaml:"log"`
}

// IdleConfig is the idle-timeout policy.
type IdleConfig struct {
	// Poll is how often each session is checked for inactivity.
	Poll Seconds `yaml:"poll"`
	// Timeout is the inactivity allowed before a session times out.
	Timeout Seconds `yaml:"timeout"`
	// Retain is how long a timed-out session is remembered so the
	// browser can be told why. Default: Timeout.
	Retain Seconds `yaml:"retain"`
}

// Policy returns the idle policy as domain durations.
func (c IdleConfig) Policy() domain.IdlePolicy {
	return domain.IdlePolicy{Poll: c.Poll.Duration(), Timeout: c.Timeout.Duration()}
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Addr            string  `yaml:"addr"`
	SecureCookies   bool    `yaml:"secure_cookies"`
	ShutdownTimeout Seconds `yaml:"shutdown_timeout"`
}

// BackendConfig configures the conversational-AI backend.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string  `yaml:"api_key_env"`
	Timeout   Seconds `yaml:"timeout"`
}

// APIKey reads the API key from the environment.
func (c BackendConfig) APIKey() string { return os.Getenv(c.APIKeyEnv) }

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads path and returns the section for env.
func Load(path, env string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data, env)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes a YAML document and returns the validated section for env.
// Paths are left as written.
func Parse(data []byte, env string) (*Config, error) {
	if env == "" {
		env = DefaultEnv
	}

	var sections map[string]*Config
	if err := yaml.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg, ok := sections[env]
	if !ok || cfg == nil {
		return nil, fmt.Errorf("no %q environment (have: %s)", env, strings.Join(sectionNames(sections), ", "))
	}

	cfg.Env = env
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case c.PubKey == "":
		return fmt.Errorf("%s.pubkey is required", c.Env)
	case c.Idle.Poll <= 0:
		return fmt.Errorf("%s.idle.poll must be positive", c.Env)
	case c.Idle.Timeout <= 0:
		return fmt.Errorf("%s.idle.timeout must be positive", c.Env)
	case c.Idle.Retain < 0:
		return fmt.Errorf("%s.idle.retain must not be negative", c.Env)
	case c.Backend.Timeout <= 0:
		return fmt.Errorf("%s.backend.timeout must be positive", c.Env)
	}
	return nil
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are skipped.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		err := godotenv.Load(p)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.SigningKey == "" {
		c.SigningKey = DefaultSigningKey
	}
	if c.Idle.Poll == 0 {
		c.Idle.Poll = DefaultPoll
	}
	if c.Idle.Timeout == 0 {
		c.Idle.Timeout = DefaultTimeout
	}
	if c.Idle.Retain == 0 {
		c.Idle.Retain = c.Idle.Timeout
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = DefaultBackendURL
	}
	if c.Backend.APIKeyEnv == "" {
		c.Backend.APIKeyEnv = DefaultAPIKeyEnv
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = DefaultBackendTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

func (c *Config) resolvePaths(dir string) {
	for _, p := range []*string{&c.PubKey, &c.SigningKey} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

func sectionNames(m map[string]*Config) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
