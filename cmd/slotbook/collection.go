package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/slotbook/pkg/core"
)

var (
	recordData string
	whereExprs []string
)

var collectionCmd = &cobra.Command{
	Use:     "collection",
	Aliases: []string{"col"},
	Short:   "Read and write raw records of any collection",
}

var collectionListCmd = &cobra.Command{
	Use:   "list [name]",
	Short: "List collection names, or the records of one collection",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		store := openStore(ctx, cmd)

		if len(args) == 0 {
			names, err := store.Collections(ctx)
			if err != nil {
				fatal("Failed to list collections", err)
			}
			for _, name := range names {
				fmt.Println(name)
			}
			return
		}

		pred, err := parseWhere(whereExprs)
		if err != nil {
			fatal("Invalid --where", err)
		}
		items, err := store.FindMany(ctx, args[0], pred)
		if err != nil {
			fatal("Failed to read collection", err)
		}
		printJSON(items)
	},
}

var collectionGetCmd = &cobra.Command{
	Use:   "get <name> <id>",
	Short: "Print one record",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		store := openStore(ctx, cmd)
		id := mustID(args[1])

		rec, found, err := store.FindByID(ctx, args[0], id)
		if err != nil {
			fatal("Failed to read record", err)
		}
		if !found {
			fmt.Fprintf(os.Stderr, "%s/%d not found\n", args[0], id)
			os.Exit(1)
		}
		printJSON(rec)
	},
}

var collectionCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a record from a JSON object",
	Long: `Create a record from the JSON object given with --data (or "-" for stdin).
The store assigns id and createdAt; any id in the input is ignored.`,
	Example: `  slotbook collection create services --data '{"name":"Room A","type":"room","slots":[]}'`,
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		fields := mustRecord(recordData)
		store := openStore(ctx, cmd)

		rec, err := store.CreateRecord(ctx, args[0], fields)
		if err != nil {
			fatal("Failed to create record", err)
		}
		printJSON(rec)
	},
}

var collectionUpdateCmd = &cobra.Command{
	Use:   "update <name> <id>",
	Short: "Merge a JSON object into a record",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		id := mustID(args[1])
		patch := mustRecord(recordData)
		store := openStore(ctx, cmd)

		rec, found, err := store.UpdateRecord(ctx, args[0], id, patch)
		if err != nil {
			fatal("Failed to update record", err)
		}
		if !found {
			fmt.Fprintf(os.Stderr, "%s/%d not found\n", args[0], id)
			os.Exit(1)
		}
		printJSON(rec)
	},
}

var collectionDeleteCmd = &cobra.Command{
	Use:   "delete <name> <id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		id := mustID(args[1])
		store := openStore(ctx, cmd)

		found, err := store.DeleteRecord(ctx, args[0], id)
		if err != nil {
			fatal("Failed to delete record", err)
		}
		if !found {
			fmt.Fprintf(os.Stderr, "%s/%d not found\n", args[0], id)
			os.Exit(1)
		}
		fmt.Printf("Deleted %s/%d\n", args[0], id)
	},
}

func init() {
	rootCmd.AddCommand(collectionCmd)
	collectionCmd.AddCommand(collectionListCmd, collectionGetCmd, collectionCreateCmd, collectionUpdateCmd, collectionDeleteCmd)

	collectionListCmd.Flags().StringArrayVarP(&whereExprs, "where", "w", nil, "Filter by field=value (repeatable)")
	for _, c := range []*cobra.Command{collectionCreateCmd, collectionUpdateCmd} {
		c.Flags().StringVar(&recordData, "data", "", `JSON object, or "-" to read stdin`)
		_ = c.MarkFlagRequired("data")
	}
}

func mustID(s string) core.ID {
	id, err := core.ParseID(s)
	if err != nil {
		fatal("Invalid id", err)
	}
	return id
}

func mustRecord(data string) core.Record {
	raw := []byte(data)
	if data == "-" {
		var err error
		if raw, err = readAllStdin(); err != nil {
			fatal("Failed to read stdin", err)
		}
	}
	var rec core.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		fatal("Invalid --data", err)
	}
	if rec == nil {
		fatal("Invalid --data", fmt.Errorf("expected a JSON object"))
	}
	return rec
}

// parseWhere turns field=value pairs into a predicate. Values that parse
// as integers or booleans are compared as such.
func parseWhere(exprs []string) (core.Predicate, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	preds := make([]core.Predicate, 0, len(exprs))
	for _, expr := range exprs {
		field, raw, ok := strings.Cut(expr, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("%q is not field=value", expr)
		}
		var value any = raw
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			value = n
		} else if b, err := strconv.ParseBool(raw); err == nil {
			value = b
		}
		preds = append(preds, core.Where(field, value))
	}
	return core.And(preds...), nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fatal("Failed to encode output", err)
	}
}

func readAllStdin() ([]byte, error) {
	return io.ReadAll(os.Stdin)
}
