// Package config loads llcguide settings from layered YAML files and
// LLCGUIDE_* environment variables, and notifies subscribers on reload.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adalundhe/llcguide/core/storage"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid config")

type Manager struct {
	config    atomic.Pointer[Config]
	dirs      *storage.Dirs
	path      string
	project   string
	logger    *slog.Logger
	watchers  []func(*Config)
	watcherMu sync.RWMutex
	stopWatch chan struct{}
	watchOnce sync.Once
}

// Options configures a Manager
type Options struct {
	Dirs *storage.Dirs // Optional, user config is skipped if nil

	// Path is an explicit config file. Unlike the layered files it must exist.
	Path string

	// ProjectRoot holds the .llcguide directory. Defaults to ".".
	ProjectRoot string

	Logger *slog.Logger // Optional, uses slog.Default() if nil
}

type Config struct {
	Conversation ConversationConfig `yaml:"conversation"`
	Cache        CacheConfig        `yaml:"cache"`
	Session      SessionConfig      `yaml:"session"`
	Transcript   TranscriptConfig   `yaml:"transcript"`
	Server       ServerConfig       `yaml:"server"`
	Log          LogConfig          `yaml:"log"`
	Capabilities CapabilitiesConfig `yaml:"capabilities"`
}

type ConversationConfig struct {
	RecognitionThreshold float64       `yaml:"recognition_threshold"`
	AgentTimeout         time.Duration `yaml:"agent_timeout"`
}

type CacheConfig struct {
	Enabled    bool          `yaml:"enabled"`
	MaxEntries int64         `yaml:"max_entries"`
	TTL        time.Duration `yaml:"ttl"`
}

type SessionConfig struct {
	MaxSessions int           `yaml:"max_sessions"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

type TranscriptConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type CapabilitiesConfig struct {
	// Disabled turns capabilities off even when their provider key is set
	Disabled []string `yaml:"disabled"`
}

func NewManager(opts Options) *Manager {
	if opts.ProjectRoot == "" {
		opts.ProjectRoot = "."
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	m := &Manager{
		dirs:      opts.Dirs,
		path:      opts.Path,
		project:   opts.ProjectRoot,
		logger:    opts.Logger,
		stopWatch: make(chan struct{}),
	}
	m.config.Store(DefaultConfig())
	return m
}

func DefaultConfig() *Config {
	return &Config{
		Conversation: ConversationConfig{
			RecognitionThreshold: 0.3,
			AgentTimeout:         30 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:    true,
			MaxEntries: 10000,
			TTL:        10 * time.Minute,
		},
		Session: SessionConfig{
			MaxSessions: 1024,
			IdleTimeout: 30 * time.Minute,
		},
		Transcript: TranscriptConfig{
			Enabled: true,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func (m *Manager) Get() *Config {
	return m.config.Load()
}

// Load rebuilds the config from defaults, the project file, the user file,
// the project-local file, the explicit file and finally the environment, in
// that order. The previous config stays active if anything fails.
func (m *Manager) Load() error {
	cfg := DefaultConfig()

	for _, layer := range m.layers() {
		if err := loadYAMLFile(layer.path, cfg, layer.required); err != nil {
			return fmt.Errorf("%s config: %w", layer.name, err)
		}
	}

	if err := applyEnvironment(cfg); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.config.Store(cfg)
	m.notifyWatchers(cfg)

	return nil
}

type layer struct {
	name     string
	path     string
	required bool
}

func (m *Manager) layers() []layer {
	project := storage.ResolveProjectDirs(m.project)
	layers := []layer{{name: "project", path: project.Config}}
	if m.dirs != nil {
		layers = append(layers, layer{name: "user", path: m.dirs.ConfigFile()})
	}
	layers = append(layers, layer{name: "local", path: filepath.Join(project.Local, "config.yaml")})
	if m.path != "" {
		layers = append(layers, layer{name: "explicit", path: m.path, required: true})
	}
	return layers
}

func loadYAMLFile(path string, cfg *Config, required bool) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) && !required {
		return nil
	}
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

func applyEnvironment(cfg *Config) error {
	var errs []error
	env := func(key string, apply func(string) error) {
		v := os.Getenv("LLCGUIDE_" + key)
		if v == "" {
			return
		}
		if err := apply(v); err != nil {
			errs = append(errs, fmt.Errorf("LLCGUIDE_%s: %w", key, err))
		}
	}

	env("RECOGNITION_THRESHOLD", func(v string) (err error) {
		cfg.Conversation.RecognitionThreshold, err = parseFloat(v)
		return err
	})
	env("AGENT_TIMEOUT", func(v string) (err error) {
		cfg.Conversation.AgentTimeout, err = time.ParseDuration(v)
		return err
	})
	env("CACHE_ENABLED", func(v string) error {
		cfg.Cache.Enabled = strings.ToLower(v) == "true"
		return nil
	})
	env("SESSION_MAX", func(v string) (err error) {
		cfg.Session.MaxSessions, err = parseInt(v)
		return err
	})
	env("SESSION_IDLE_TIMEOUT", func(v string) (err error) {
		cfg.Session.IdleTimeout, err = time.ParseDuration(v)
		return err
	})
	env("TRANSCRIPT_PATH", func(v string) error {
		cfg.Transcript.Path = v
		return nil
	})
	env("TRANSCRIPT_ENABLED", func(v string) error {
		cfg.Transcript.Enabled = strings.ToLower(v) == "true"
		return nil
	})
	env("SERVER_ADDR", func(v string) error {
		cfg.Server.Addr = v
		return nil
	})
	env("LOG_LEVEL", func(v string) error {
		cfg.Log.Level = v
		return nil
	})
	env("LOG_FORMAT", func(v string) error {
		cfg.Log.Format = v
		return nil
	})
	env("CAPABILITIES_DISABLED", func(v string) error {
		cfg.Capabilities.Disabled = splitList(v)
		return nil
	})

	return errors.Join(errs...)
}

// Validate checks value ranges and enumerations
func (c *Config) Validate() error {
	var errs []error
	if c.Conversation.RecognitionThreshold <= 0 || c.Conversation.RecognitionThreshold > 1 {
		errs = append(errs, fmt.Errorf("conversation.recognition_threshold must be in (0, 1], got %v",
			c.Conversation.RecognitionThreshold))
	}
	if c.Conversation.AgentTimeout < 0 {
		errs = append(errs, fmt.Errorf("conversation.agent_timeout must not be negative"))
	}
	if c.Cache.Enabled && c.Cache.MaxEntries <= 0 {
		errs = append(errs, fmt.Errorf("cache.max_entries must be positive"))
	}
	if c.Session.MaxSessions <= 0 {
		errs = append(errs, fmt.Errorf("session.max_sessions must be positive"))
	}
	if c.Session.IdleTimeout < 0 {
		errs = append(errs, fmt.Errorf("session.idle_timeout must not be negative"))
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q is not one of text, json", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func (m *Manager) OnChange(fn func(*Config)) {
	m.watcherMu.Lock()
	m.watchers = append(m.watchers, fn)
	m.watcherMu.Unlock()
}

func (m *Manager) notifyWatchers(cfg *Config) {
	m.watcherMu.RLock()
	watchers := m.watchers
	m.watcherMu.RUnlock()

	for _, fn := range watchers {
		fn(cfg)
	}
}

func (m *Manager) Reload() error {
	return m.Load()
}

func (m *Manager) Close() error {
	m.watchOnce.Do(func() {
		close(m.stopWatch)
	})
	return nil
}

func parseInt(s string) (int, error) {
	var n int
	_, err := fmt.Sscanf(s, "%d", &n)
	return n, err
}

func parseFloat(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(s, "%f", &f)
	return f, err
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
