package main

import (
	"github.com/spf13/cobra"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list <category>",
	Short: "List a category's memories by importance",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.ListByCategory(ctx, args[0], listLimit)
		if err != nil {
			return err
		}
		for _, rec := range records {
			printRecord(rec)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "maximum records to list")
	rootCmd.AddCommand(listCmd)
}
