package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show store location, lock settings and the collections it holds",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		store := openStore(ctx, cmd)

		names, err := store.Collections(ctx)
		if err != nil {
			fatal("Failed to read store", err)
		}
		report := struct {
			Store       any      `json:"store" yaml:"store"`
			Collections []string `json:"collections" yaml:"collections"`
		}{store.State(), names}

		if statusJSON {
			printJSON(report)
			return
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			fatal("Failed to encode status", err)
		}
		_ = enc.Close()
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output as JSON")
}
