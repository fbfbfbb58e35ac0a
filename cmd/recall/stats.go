package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/sandevgo/recall/internal/service/ui"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show aggregate store statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, flushLog := setupLogger(cmd.Context())
		defer flushLog()

		store, _, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.Stats(ctx)
		if err != nil {
			return err
		}

		fmt.Println(ui.TitleStyle.Render("STORE"))
		fmt.Printf("  memories   %s\n", ui.ValueStyle.Render(fmt.Sprintf("%d", stats.TotalMemories)))
		fmt.Printf("  hot set    %d\n", stats.HotMemories)
		if stats.LastDecay > 0 {
			fmt.Printf("  last decay %s\n", time.UnixMilli(stats.LastDecay).Format(time.DateTime))
		} else {
			fmt.Println("  last decay never")
		}

		if len(stats.Counters) > 0 {
			fmt.Println(ui.TitleStyle.Render("COUNTERS"))
			names := make([]string, 0, len(stats.Counters))
			for name := range stats.Counters {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %-24s %d\n", name, stats.Counters[name])
			}
		}

		fmt.Println(ui.TitleStyle.Render("CATEGORIES"))
		cats := make([]string, 0, len(stats.Categories))
		for cat := range stats.Categories {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			fmt.Printf("  %-28s %d\n", cat, stats.Categories[cat])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
