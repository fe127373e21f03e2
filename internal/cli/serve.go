package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/wikitype-api/internal/database"
	"github.com/deppfellow/wikitype-api/internal/handler"
	"github.com/deppfellow/wikitype-api/internal/repository"
	"github.com/deppfellow/wikitype-api/internal/router"
	"github.com/deppfellow/wikitype-api/internal/server"
	"github.com/deppfellow/wikitype-api/internal/service"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

type ServeOptions struct {
	Migrate bool
}

func NewServeCommand() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the GraphQL API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Migrate, "migrate", false, "apply pending migrations before serving")

	return cmd
}

func runServe(ctx context.Context, opts *ServeOptions) error {
	env, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer env.close()

	log := &env.logger

	if opts.Migrate || env.cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, log, env.cfg); err != nil {
			return fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	srv, err := server.New(env.cfg, log, env.loggerService)
	if err != nil {
		return err
	}

	repos := repository.NewRepositories(srv)

	services, err := service.NewService(ctx, srv, repos)
	if err != nil {
		_ = srv.Close()
		return err
	}

	handlers, err := handler.NewHandlers(srv, services)
	if err != nil {
		_ = srv.Close()
		return err
	}

	srv.SetupHTTPServer(router.NewRouter(srv, handlers, services))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			_ = srv.Close()
			return fmt.Errorf("server stopped: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("server exited")
	return nil
}
