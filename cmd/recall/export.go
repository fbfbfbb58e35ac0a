package main

import (
	"fmt"
	"os"

	"github.com/sandevgo/recall/internal/service/export"
	"github.com/spf13/cobra"
)

var (
	exportHTML bool
	exportOut  string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Dump all memories as per-category tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		exporter := export.NewExporter(store)

		var out string
		if exportHTML {
			out, err = exporter.HTML(ctx)
		} else {
			out, err = exporter.Markdown(ctx)
		}
		if err != nil {
			return err
		}

		if exportOut == "" {
			fmt.Println(out)
			return nil
		}
		if err := os.WriteFile(exportOut, []byte(out), 0644); err != nil {
			return fmt.Errorf("failed to write export: %w", err)
		}
		fmt.Printf("exported to %s\n", exportOut)
		return nil
	},
}

func init() {
	exportCmd.Flags().BoolVar(&exportHTML, "html", false, "render sanitized HTML instead of markdown")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "write to file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}
