package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/isaacmuchunu/poam-sub001/internal/config"
	"github.com/isaacmuchunu/poam-sub001/internal/logging"
	"github.com/isaacmuchunu/poam-sub001/internal/ratelimit"
	"github.com/isaacmuchunu/poam-sub001/internal/server"
	"github.com/isaacmuchunu/poam-sub001/internal/storage"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Load .env if it exists
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "poamd",
		Short:         "Multi-tenant POA&M API server",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "config.json", "path to the JSON config file")

	loadConfig := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logging.Init(logging.Config{
			Format:    cfg.Logging.Format,
			Level:     cfg.Logging.Level,
			Component: "poamd",
		})
		return cfg, nil
	}

	root.AddCommand(
		newServeCmd(loadConfig),
		newMigrateCmd(loadConfig),
		newProvisionCmd(loadConfig),
		newTokenCmd(loadConfig),
		newHashTokenCmd(),
		newVersionCmd(),
	)
	return root
}

type configLoader func() (*config.Config, error)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "poamd %s\n", Version)
			if BuildTime != "unknown" {
				fmt.Fprintf(out, "Built: %s\n", BuildTime)
			}
			if GitCommit != "unknown" {
				fmt.Fprintf(out, "Commit: %s\n", GitCommit)
			}
		},
	}
}

func newServeCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	postgres, err := storage.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return err
	}
	defer postgres.Close()
	log.Info().Msg("Connected to database")

	if cfg.Database.AutoMigrate {
		if err := postgres.AutoMigrate(); err != nil {
			return fmt.Errorf("migrate shared schema: %w", err)
		}
	}

	store, err := ratelimit.NewStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info().Str("backend", cfg.Store.Backend).Msg("Connected to quota store")

	server.Version = Version
	srv, err := server.New(cfg, postgres, store)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(":" + cfg.Server.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info().Msg("Server exited")
	return nil
}
