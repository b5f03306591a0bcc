// Package cmd provides the llcguide command line.
package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/adalundhe/llcguide/agents/guide"
	"github.com/adalundhe/llcguide/core/capability"
	"github.com/adalundhe/llcguide/core/config"
	"github.com/adalundhe/llcguide/core/conversation"
	"github.com/adalundhe/llcguide/core/intent"
	"github.com/adalundhe/llcguide/core/logging"
	"github.com/adalundhe/llcguide/core/session"
	"github.com/adalundhe/llcguide/core/storage"
	"github.com/adalundhe/llcguide/core/transcript"
	"github.com/spf13/cobra"
)

// rootOptions holds the persistent flags
type rootOptions struct {
	configPath     string
	logLevel       string
	transcriptPath string
	projectRoot    string
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "llcguide",
		Short: "llcguide - a guided LLC formation assistant",
		Long: `llcguide walks a founder through forming an LLC: business details,
industry, state of formation, licensing, documents, review and filing.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Path to a config file (must exist)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.transcriptPath, "transcript", "", "Path to the transcript database")
	flags.StringVar(&opts.projectRoot, "project", ".", "Directory holding the .llcguide project config")

	root.AddCommand(
		newChatCmd(opts),
		newClassifyCmd(opts),
		newServeCmd(opts),
	)
	return root
}

// Execute runs the CLI
func Execute() error {
	return NewRootCmd().Execute()
}

// =============================================================================
// Application Wiring
// =============================================================================

// app carries everything a command needs to hold conversations
type app struct {
	configs     *config.Manager
	dirs        *storage.Dirs
	logger      *logging.Logger
	classifier  *intent.CachedClassifier
	engine      *conversation.Engine
	transcripts *transcript.Store
}

// loadConfig resolves the user directories and loads the layered config.
// Missing user directories only drop the user layer.
func loadConfig(opts *rootOptions) (*config.Manager, *storage.Dirs, error) {
	dirs, err := storage.ResolveDirs()
	if err != nil {
		dirs = nil
	}

	configs := config.NewManager(config.Options{
		Dirs:        dirs,
		Path:        opts.configPath,
		ProjectRoot: opts.projectRoot,
	})
	if err := configs.Load(); err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return configs, dirs, nil
}

// newLogger builds the logger for a command. console receives records in
// the configured format; fileLogs adds a JSON file under the log directory.
func newLogger(opts *rootOptions, cfg *config.Config, dirs *storage.Dirs, console io.Writer, service string, fileLogs bool) (*logging.Logger, error) {
	level := cfg.Log.Level
	if opts.logLevel != "" {
		level = opts.logLevel
	}

	logCfg := logging.Config{
		Level:   level,
		Format:  cfg.Log.Format,
		Service: service,
	}
	if fileLogs && dirs != nil {
		logCfg.Dir = dirs.LogDir()
	}
	return logging.New(logCfg, console)
}

// newApp wires config, logging, agents, the classifier, the engine and the
// transcript store.
func newApp(opts *rootOptions, console io.Writer, service string, fileLogs bool) (*app, error) {
	configs, dirs, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	cfg := configs.Get()

	logger, err := newLogger(opts, cfg, dirs, console, service, fileLogs)
	if err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	a := &app{configs: configs, dirs: dirs, logger: logger}

	if err := a.build(opts, cfg); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) build(opts *rootOptions, cfg *config.Config) error {
	log := a.logger.Logger

	caps := capability.FromEnv().Without(cfg.Capabilities.Disabled...)
	log.Info("capabilities resolved", "enabled", caps.String())

	registry, err := guide.NewDefaultRegistry(guide.Config{Capabilities: caps, Logger: log})
	if err != nil {
		return fmt.Errorf("agents: %w", err)
	}

	a.classifier, err = newClassifier(cfg)
	if err != nil {
		return err
	}

	var classifier conversation.Classifier = intent.NewClassifier(nil)
	if a.classifier != nil {
		classifier = a.classifier
	}

	a.engine, err = conversation.NewEngine(conversation.Config{
		Registry:             registry,
		Classifier:           classifier,
		RecognitionThreshold: cfg.Conversation.RecognitionThreshold,
		AgentTimeout:         cfg.Conversation.AgentTimeout,
		Logger:               log,
	})
	if err != nil {
		return err
	}

	path := transcriptPath(opts, cfg, a.dirs)
	if path != "" {
		a.transcripts, err = transcript.Open(path)
		if err != nil {
			return fmt.Errorf("transcript: %w", err)
		}
		log.Debug("transcript store opened", "path", path)
	}
	return nil
}

// newClassifier returns a cached classifier, or nil when caching is off
func newClassifier(cfg *config.Config) (*intent.CachedClassifier, error) {
	if !cfg.Cache.Enabled {
		return nil, nil
	}
	cached, err := intent.NewCachedClassifier(intent.NewClassifier(nil), &intent.CacheConfig{
		NumCounters: cfg.Cache.MaxEntries * 10,
		MaxCost:     cfg.Cache.MaxEntries,
		TTL:         cfg.Cache.TTL,
	})
	if err != nil {
		return nil, fmt.Errorf("intent cache: %w", err)
	}
	return cached, nil
}

// transcriptPath picks the flag, then the configured path, then the default
// data location. An empty result disables transcripts.
func transcriptPath(opts *rootOptions, cfg *config.Config, dirs *storage.Dirs) string {
	if opts.transcriptPath != "" {
		return opts.transcriptPath
	}
	if !cfg.Transcript.Enabled {
		return ""
	}
	if cfg.Transcript.Path != "" {
		return cfg.Transcript.Path
	}
	if dirs != nil {
		return dirs.TranscriptPath()
	}
	return ""
}

// newSessions builds a session manager over the app's engine
func (a *app) newSessions(maxSessions int) (*session.Manager, error) {
	cfg := a.configs.Get()
	if maxSessions <= 0 {
		maxSessions = cfg.Session.MaxSessions
	}

	mcfg := session.ManagerConfig{
		Engine:      a.engine,
		MaxSessions: maxSessions,
		IdleTimeout: cfg.Session.IdleTimeout,
		Logger:      a.logger.Logger,
	}
	if a.transcripts != nil {
		mcfg.Recorder = a.transcripts
	}
	return session.NewManager(mcfg)
}

// Close releases the transcript store, the classifier cache and the log file
func (a *app) Close() error {
	var errs []error
	if a.transcripts != nil {
		errs = append(errs, a.transcripts.Close())
	}
	if a.classifier != nil {
		a.classifier.Close()
	}
	errs = append(errs, a.configs.Close())
	if a.logger != nil {
		errs = append(errs, a.logger.Close())
	}
	return errors.Join(errs...)
}
