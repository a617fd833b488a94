package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/slotbook"
)

const shutdownTimeout = 10 * time.Second

var (
	serveAddr    string
	serveMetrics bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API over the store.
When SLOTBOOK_ADMIN_EMAIL and SLOTBOOK_ADMIN_PASSWORD are set, that
administrator is created on startup if missing.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		if cmd.Flags().Changed("addr") {
			cfg.Addr = serveAddr
		}
		if cmd.Flags().Changed("metrics") {
			cfg.Metrics = serveMetrics
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		app, err := slotbook.New(ctx, cfg, storeOptions()...)
		if err != nil {
			fatal("Failed to start", err)
		}
		if err := app.SeedAdmin(ctx); err != nil {
			fatal("Failed to seed administrator", err)
		}

		srv := app.Server(slotbook.Version)
		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil {
				fatal("Server failed", err)
			}
			return
		case <-ctx.Done():
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			fatal("Shutdown failed", err)
		}
		slog.Info("server stopped")
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().BoolVar(&serveMetrics, "metrics", true, "Expose /metrics (overrides config)")
}
