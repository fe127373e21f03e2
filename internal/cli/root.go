// Package cli defines the wikitype command line: serving the API, running
// migrations and seeding sample data.
package cli

import (
	"fmt"

	"github.com/deppfellow/wikitype-api/internal/config"
	"github.com/deppfellow/wikitype-api/internal/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "wikitype",
		Short:         "WikiType API",
		Long:          "GraphQL API for WikiType typing exercises.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(NewServeCommand())
	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewSeedCommand())

	return cmd
}

// environment is what every command needs before doing real work.
type environment struct {
	cfg           *config.Config
	logger        zerolog.Logger
	loggerService *logger.LoggerService
}

func loadEnvironment() (*environment, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	loggerService := logger.NewLoggerService(cfg.Observability)
	return &environment{
		cfg:           cfg,
		logger:        logger.NewLoggerWithService(cfg.Observability, loggerService),
		loggerService: loggerService,
	}, nil
}

func (env *environment) close() {
	env.loggerService.Shutdown()
}
