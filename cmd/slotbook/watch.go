package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/slotbook/pkg/adapters/lifecycle"
)

var watchJSON bool

var watchCmd = &cobra.Command{
	Use:   "watch [pattern]",
	Short: "Stream record changes as other processes write the store",
	Long: `Print one line per created, modified or deleted record.
The optional pattern is a glob over collection names, e.g. "bookings" or "{users,sessions}".`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		pattern := "*"
		if len(args) == 1 {
			pattern = args[0]
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		store := openStore(ctx, cmd)
		src := lifecycle.NewSource(store, pattern)
		if err := src.Start(ctx); err != nil {
			fatal("Failed to watch", err)
		}
		fmt.Fprintf(os.Stderr, "Watching %s (collections %q), Ctrl+C to stop\n", store.Path, pattern)

		enc := json.NewEncoder(os.Stdout)
		for evt := range src.Events() {
			if watchJSON {
				if err := enc.Encode(evt); err != nil {
					fatal("Failed to encode event", err)
				}
				continue
			}
			fmt.Println(evt.String())
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "Output events as JSON lines")
}
