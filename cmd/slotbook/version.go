package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/slotbook"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of slotbook",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("slotbook version %s\n", slotbook.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
