package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/adalundhe/llcguide/core/config"
	"github.com/adalundhe/llcguide/core/httpapi"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

const minJanitorInterval = time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the conversation API over HTTP",
		Long: `Serve exposes sessions over HTTP:

  POST   /v1/sessions
  GET    /v1/sessions/:id
  DELETE /v1/sessions/:id
  POST   /v1/sessions/:id/messages
  GET    /v1/sessions/:id/transcript
  GET    /v1/health

Config files are watched; log level changes apply without a restart.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, opts, addr)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, \":8080\")")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *rootOptions, addr string) error {
	a, err := newApp(opts, cmd.ErrOrStderr(), "serve", true)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger.Logger

	cfg := a.configs.Get()
	if addr == "" {
		addr = cfg.Server.Addr
	}

	sessions, err := a.newSessions(0)
	if err != nil {
		return err
	}
	defer sessions.Shutdown()
	sessions.StartJanitor(ctx, janitorInterval(cfg.Session.IdleTimeout))

	a.configs.OnChange(func(next *config.Config) {
		level := next.Log.Level
		if opts.logLevel != "" {
			level = opts.logLevel
		}
		if err := a.logger.SetLevel(level); err != nil {
			logger.Warn("config reload: keeping log level", "error", err)
			return
		}
		logger.Info("config reloaded", "log_level", level)
	})
	if err := a.configs.Watch(ctx); err != nil && !errors.Is(err, config.ErrNothingToWatch) {
		logger.Warn("config watch disabled", "error", err)
	}

	gin.SetMode(gin.ReleaseMode)
	server, err := httpapi.New(httpapi.Config{
		Addr:        addr,
		Sessions:    sessions,
		Transcripts: a.transcriptLister(),
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	return server.Run(ctx)
}

// transcriptLister avoids handing the server a typed nil
func (a *app) transcriptLister() httpapi.TranscriptLister {
	if a.transcripts == nil {
		return nil
	}
	return a.transcripts
}

// janitorInterval sweeps four times per idle timeout
func janitorInterval(idle time.Duration) time.Duration {
	if idle <= 0 {
		return 0
	}
	interval := idle / 4
	if interval < minJanitorInterval {
		interval = minJanitorInterval
	}
	return interval
}

