package main

import (
	"fmt"
	"time"

	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/internal/service/ui"
)

func printRecord(rec *core.MemoryRecord) {
	pin := ""
	if rec.Pinned {
		pin = "  " + ui.FlagStyle.Render("[pinned]")
	}
	fmt.Printf("%s  %s%s\n", ui.ValueStyle.Render(rec.ID), ui.UsageStyle.Render(rec.Category), pin)
	fmt.Printf("  %s\n", rec.Content)
	fmt.Printf("  %s\n", ui.DescStyle.Render(fmt.Sprintf(
		"importance %.1f · confidence %.0f · accessed %d× · last %s",
		rec.Importance,
		rec.Confidence,
		rec.AccessCount,
		time.UnixMilli(rec.LastAccessedAt).Format(time.DateTime),
	)))
}
