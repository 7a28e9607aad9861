package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/domain"
	"storefront/internal/importer"
	"storefront/internal/logging"
	"storefront/internal/repository/collection"
	"storefront/internal/repository/product"
	"storefront/internal/repository/shop"
)

func main() {
	cfg := config.Load()
	logger, err := logging.New("importer", cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	var (
		filePath string
		shopKey  string
		currency string
	)
	cmd := &cobra.Command{
		Use:          "importer",
		Short:        "Import a product or collection CSV export into a shop",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), cfg, logger, filePath, shopKey, currency)
		},
	}
	cmd.Flags().StringVar(&filePath, "file", "", "Path to the CSV export")
	cmd.Flags().StringVar(&shopKey, "shop", "", "Shop key to import into")
	cmd.Flags().StringVar(&currency, "currency", "USD", "Currency for a shop created by this import")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("shop")

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		logger.Fatal("import failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, filePath, shopKey, currency string) error {
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer pool.Close()

	s, err := ensureShop(ctx, shop.NewPostgres(pool, logger), shopKey, currency)
	if err != nil {
		return fmt.Errorf("ensure shop %q: %w", shopKey, err)
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	kind, err := importer.DetectKind(f)
	if err != nil {
		return err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("rewind file: %w", err)
	}
	logger.Info("import started", zap.String("file", filePath), zap.String("kind", string(kind)))

	imp := importer.NewCSVImporter(f, product.NewPostgres(pool, logger), collection.NewPostgres(pool, logger), s.ID, s.Currency, logger)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("import finished",
		zap.String("shop", shopKey),
		zap.Int("count", count),
		zap.Duration("took", time.Since(start).Truncate(time.Millisecond)))
	return nil
}

func ensureShop(ctx context.Context, repo shop.Repository, key, currency string) (*domain.Shop, error) {
	s, err := repo.GetByKey(ctx, key)
	if err == nil {
		return s, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return repo.Create(ctx, domain.Shop{Key: key, Name: key, Currency: currency})
}
