package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the store file with empty services, users and bookings",
	Long: `Create the store file if it does not exist yet.
An existing store is left untouched, so running init twice is safe.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store := openStore(context.Background(), cmd)
		fmt.Printf("Store ready at %s\n", store.Path)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
