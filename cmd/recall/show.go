package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var showNoBoost bool

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a memory by id",
	Long:  `Shows a memory. Reading boosts its importance unless --no-boost is given.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		rec, err := store.Get(ctx, args[0], !showNoBoost)
		if err != nil {
			return err
		}
		if rec == nil {
			return fmt.Errorf("no memory with id %s", args[0])
		}
		printRecord(rec)
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showNoBoost, "no-boost", false, "read without boosting importance")
	rootCmd.AddCommand(showCmd)
}
