package main

import (
	"fmt"

	"github.com/sandevgo/recall/internal/service/ui"
	"github.com/spf13/cobra"
)

var searchLimit int

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Substring search over the hottest memories",
	Long:  `Scans the top memories by importance for a case-insensitive substring. Content matches rank above category-name matches.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		results, err := store.Search(ctx, args[0], searchLimit)
		if err != nil {
			return err
		}
		for _, res := range results {
			fmt.Println(ui.DescStyle.Render(fmt.Sprintf("relevance %.1f", res.Relevance)))
			rec := res.MemoryRecord
			printRecord(&rec)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 10, "maximum results")
	rootCmd.AddCommand(searchCmd)
}
