/*
main.go - Application entry point

PURPOSE:
  CLI for the Wochennachweis generator. Serves the HTTP API or runs the
  same pipeline offline.

COMMANDS:
  serve      Start the HTTP server (default when no command is given)
  generate   Build a ZIP from a JSON plan file
  holidays   Print the public holidays of a year

STARTUP SEQUENCE (serve):
  1. Load configuration (file, .env, WN_* environment, flags)
  2. Build logger, SQLite store, holiday calculator, report service
  3. Warn if the template is missing (downloads fail until it exists)
  4. Start the session reaper and the HTTP server
  5. Graceful shutdown on SIGINT/SIGTERM

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the reaper, close database and Redis
  4. Exit

EXAMPLES:
  # Run with defaults (in-memory database, port 8080)
  ./server serve

  # Keep sessions and custom holidays across restarts
  ./server serve --db ./data/wochennachweis.db --port 3000

  # Offline generation
  ./server generate --plan plan.json --out nachweise.zip

SEE ALSO:
  - app.go: Dependency wiring shared by all commands
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/wochennachweis/api"
	"github.com/warp/wochennachweis/config"
)

const shutdownTimeout = 30 * time.Second

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	dbPath     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var g globalFlags

	serve := newServeCmd(&g)
	root := &cobra.Command{
		Use:           "wochennachweis",
		Short:         "Generate weekly training reports (Wochennachweise) from a .docx template",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file (default ./config/config.yaml or ./config.yaml)")
	root.PersistentFlags().StringVar(&g.dbPath, "db", "", "SQLite database path, \":memory:\" for in-memory (overrides db.path)")
	root.Flags().AddFlagSet(serve.Flags())

	root.AddCommand(serve, newGenerateCmd(&g), newHolidaysCmd(&g))
	return root
}

// loadConfig reads the configuration and applies flag overrides.
func loadConfig(cmd *cobra.Command, g *globalFlags) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("db") {
		cfg.Database.Path = g.dbPath
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		cfg.Server.Port = port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// =============================================================================
// SERVE
// =============================================================================

func newServeCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, g)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
	cmd.Flags().IntP("port", "p", 8080, "HTTP server port (overrides server.port)")
	return cmd
}

func serve(cfg *config.Config) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	if _, err := a.service.LoadTemplate(); err != nil {
		logger.Warn("template not usable, downloads will fail until it is fixed",
			zap.String("path", cfg.Template.Path), zap.Error(err))
	}

	handler := api.NewHandler(a.store, a.store, a.calendar, a.service, cfg.Session.CookieName, logger)
	router := api.NewRouter(handler, cfg.Server.CORS.AllowOrigins)

	reaper := api.NewSessionReaper(a.store, cfg.Session.IdleTimeout, logger)
	reaper.Start()
	defer reaper.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.String("db", cfg.Database.Path),
			zap.String("region", cfg.Holidays.Region))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
