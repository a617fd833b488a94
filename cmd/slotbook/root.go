package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/slotbook"
	"github.com/aretw0/slotbook/pkg/adapters/fs"
)

var (
	verbose    bool
	configFile string
	dataPath   string
	lockMode   string
	devSafety  bool
)

var rootCmd = &cobra.Command{
	Use:   "slotbook",
	Short: "A booking platform on an embedded single-file record store",
	Long: `slotbook books time slots of rooms and equipment.
Its data lives in one JSON (or YAML) file guarded by a lock file, so the
server and these commands can work on the same store at the same time.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	flags.StringVarP(&configFile, "config", "c", "", "Config file (default: slotbook.yaml found upwards)")
	flags.StringVarP(&dataPath, "data", "d", "", "Store file (overrides config)")
	flags.StringVar(&lockMode, "lock-mode", "", `Lock mode, "marker" or "native" (overrides config)`)
	flags.BoolVar(&devSafety, "dev-safety", true, "Sandbox the store under go run")
}

// loadConfig resolves config file and environment, then applies the
// persistent flags that were set explicitly.
func loadConfig(cmd *cobra.Command) slotbook.Config {
	cfg, err := slotbook.LoadConfig(configFile)
	if err != nil {
		fatal("Failed to load config", err)
	}
	if cmd.Flags().Changed("data") {
		cfg.DataPath = dataPath
	}
	if cmd.Flags().Changed("lock-mode") {
		cfg.LockMode = lockMode
	}
	if err := cfg.Validate(); err != nil {
		fatal("Invalid config", err)
	}
	return cfg
}

func storeOptions() []slotbook.Option {
	return []slotbook.Option{
		slotbook.WithLogger(slog.Default()),
		slotbook.WithDevSafety(devSafety),
	}
}

// openStore opens the store only, for the record-level commands.
func openStore(ctx context.Context, cmd *cobra.Command) *fs.Store {
	cfg := loadConfig(cmd)
	opts := append(storeOptions(),
		slotbook.WithLockMode(fs.LockMode(cfg.LockMode)),
		slotbook.WithPollInterval(cfg.LockPoll),
		slotbook.WithLockTimeout(cfg.LockTimeout),
	)
	store, err := slotbook.Open(ctx, cfg.DataPath, opts...)
	if err != nil {
		fatal("Failed to open store", err)
	}
	return store
}
