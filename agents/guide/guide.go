package guide

import (
	"log/slog"

	"github.com/adalundhe/llcguide/agents/compliance"
	"github.com/adalundhe/llcguide/agents/consultant"
	"github.com/adalundhe/llcguide/agents/documents"
	"github.com/adalundhe/llcguide/agents/filing"
	"github.com/adalundhe/llcguide/agents/legal"
	"github.com/adalundhe/llcguide/core/capability"
)

// Config holds what every specialist is built with
type Config struct {
	Capabilities capability.Set
	Logger       *slog.Logger // Optional, uses slog.Default() if nil
}

// NewDefaultRegistry creates one instance of each specialist, registered
// under the names the default flow table uses.
func NewDefaultRegistry(cfg Config) (*Registry, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	cfg.Logger.Debug("building agent registry", "capabilities", cfg.Capabilities.String())

	return NewRegistry(
		Registration{
			Name:    consultant.Name,
			Aliases: []string{"consultant"},
			Agent:   consultant.New(consultant.Config{Capabilities: cfg.Capabilities, Logger: cfg.Logger}),
		},
		Registration{
			Name:    legal.Name,
			Aliases: []string{"legal"},
			Agent:   legal.New(legal.Config{Capabilities: cfg.Capabilities, Logger: cfg.Logger}),
		},
		Registration{
			Name:    compliance.Name,
			Aliases: []string{"compliance"},
			Agent:   compliance.New(compliance.Config{Capabilities: cfg.Capabilities, Logger: cfg.Logger}),
		},
		Registration{
			Name:    documents.Name,
			Aliases: []string{"documents"},
			Agent:   documents.New(documents.Config{Capabilities: cfg.Capabilities, Logger: cfg.Logger}),
		},
		Registration{
			Name:    filing.Name,
			Aliases: []string{"filing"},
			Agent:   filing.New(filing.Config{Capabilities: cfg.Capabilities, Logger: cfg.Logger}),
		},
	)
}
