package main

import (
	"github.com/spf13/cobra"
)

var (
	addCategory   string
	addConfidence float64
	addPinned     bool
)

var addCmd = &cobra.Command{
	Use:   "add <content>",
	Short: "Store a new memory",
	Long:  `Stores a new memory. The category is matched loosely against the taxonomy; anything unmatched lands in "Notes & Miscellaneous".`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.Add(ctx, args[0], addCategory, addConfidence, addPinned)
		if err != nil {
			return err
		}
		printRecord(rec)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVarP(&addCategory, "category", "c", "", "target category (loose match)")
	addCmd.Flags().Float64Var(&addConfidence, "confidence", 80, "certainty of the fact (0-100)")
	addCmd.Flags().BoolVar(&addPinned, "pinned", false, "exempt from importance decay")
	rootCmd.AddCommand(addCmd)
}
