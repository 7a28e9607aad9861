package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/logging"
	"storefront/internal/migrate"
)

func main() {
	cfg := config.Load()
	logger, err := logging.New("migrate", cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	withPool := func(fn func(ctx context.Context, pool *pgxpool.Pool) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := db.Connect(ctx, cfg.DBConnString)
			if err != nil {
				return fmt.Errorf("connect db: %w", err)
			}
			defer pool.Close()
			return fn(ctx, pool)
		}
	}

	root := &cobra.Command{
		Use:           "migrate",
		Short:         "Manage the storefront database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
			return up(ctx, logger, pool)
		}),
	}

	root.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
			return up(ctx, logger, pool)
		}),
	})

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Revert applied migrations",
		RunE: withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
			if err := migrate.Rollback(ctx, pool, steps); err != nil {
				return err
			}
			logger.Info("migrations reverted", zap.Int("steps", steps))
			return nil
		}),
	}
	down.Flags().IntVar(&steps, "steps", 1, "number of migrations to revert")
	root.AddCommand(down)

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the applied schema version",
		RunE: withPool(func(ctx context.Context, pool *pgxpool.Pool) error {
			version, dirty, err := migrate.Version(ctx, pool)
			if err != nil {
				return err
			}
			fmt.Printf("version %d dirty=%t\n", version, dirty)
			return nil
		}),
	})

	if err := root.ExecuteContext(context.Background()); err != nil {
		logger.Fatal("migrate failed", zap.Error(err))
	}
}

func up(ctx context.Context, logger *zap.Logger, pool *pgxpool.Pool) error {
	if err := migrate.Apply(ctx, pool); err != nil {
		return err
	}
	logger.Info("migrations applied")
	return nil
}
