package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"storefront/internal/logging"
	"storefront/internal/storefrontapi"
	"storefront/internal/tui"
)

func main() {
	var (
		apiURL   string
		shopKey  string
		debounce time.Duration
		limit    int
		logFile  string
		logLevel string
		timeout  time.Duration
	)
	cmd := &cobra.Command{
		Use:          "shop",
		Short:        "Browse a storefront and manage a cart from the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger, err := logging.NewFile("shop", logLevel, logFile)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx := cmd.Context()
			client := storefrontapi.New(apiURL, shopKey,
				storefrontapi.WithTimeout(timeout),
				storefrontapi.WithLogger(logger))
			if _, err := client.IssueAnonymousToken(ctx); err != nil {
				return fmt.Errorf("connect to %s: %w", apiURL, err)
			}
			logger.Info("session started", zap.String("api", apiURL), zap.String("shop", shopKey))

			model := tui.New(ctx, client, tui.Config{Debounce: debounce, SearchLimit: limit, Logger: logger})
			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			return err
		},
	}
	cmd.Flags().StringVar(&apiURL, "api", "http://localhost:8080", "Storefront API base URL")
	cmd.Flags().StringVar(&shopKey, "shop", "demo", "Shop key")
	cmd.Flags().DurationVar(&debounce, "debounce", tui.DefaultDebounce, "Delay before a search is sent")
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum results per search bucket")
	cmd.Flags().StringVar(&logFile, "log-file", "", "Write logs to this file")
	cmd.Flags().StringVar(&logLevel, "log-level", "info", "Log level")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "HTTP request timeout")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
