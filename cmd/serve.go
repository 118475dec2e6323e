package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nyxlab/nyx/api/schemas"
	"github.com/nyxlab/nyx/internal/config"
	"github.com/nyxlab/nyx/internal/history"
	"github.com/nyxlab/nyx/internal/observability"
	"github.com/nyxlab/nyx/internal/orchestrator"
	"github.com/nyxlab/nyx/internal/server"
)

func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the Nyx HTTP API",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if err := v.BindPFlag("server.addr", cmd.Flags().Lookup("addr")); err != nil {
				return err
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			defer observability.Sync()
			logger := observability.GetLogger()

			// Flag overrides landed after PersistentPreRunE; re-resolve.
			loaded, err := config.NewConfigFromViper(v)
			if err != nil {
				return err
			}
			cfg = loaded

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			store, err := newHistoryStore(ctx, cfg, logger)
			if err != nil {
				return err
			}

			nyx, err := orchestrator.New(cfg, logger, store)
			if err != nil {
				store.Close()
				return err
			}
			defer func() {
				if err := nyx.Shutdown(); err != nil {
					logger.Error("Shutdown error", zap.Error(err))
				}
			}()

			srv := server.New(cfg.Server, logger, nyx)

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				return srv.Run(ctx)
			})

			if err := g.Wait(); err != nil {
				return fmt.Errorf("server stopped with error: %w", err)
			}
			logger.Info("Nyx stopped.")
			return nil
		},
	}

	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	return serveCmd
}

// newHistoryStore builds the configured history backend.
func newHistoryStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (schemas.HistoryStore, error) {
	switch cfg.History.Backend {
	case config.HistoryBackendPostgres:
		pool, err := pgxpool.New(ctx, cfg.History.Postgres.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to create database connection pool: %w", err)
		}
		store, err := history.NewPostgresStore(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info("History store initialized (Postgres).")
		return store, nil
	default:
		logger.Info("History store initialized (in-memory).", zap.Int("limit", cfg.History.Limit))
		return history.NewMemoryStore(cfg.History.Limit), nil
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
}
