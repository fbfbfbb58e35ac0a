package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/internal/memory"
)

// recordsPerCategory bounds how many records a dump includes per category.
const recordsPerCategory = 50

// Exporter renders the store as human-readable memory tables, one section
// per non-empty category, ordered by importance. Reads never boost.
type Exporter struct {
	store *memory.Store
}

func NewExporter(store *memory.Store) *Exporter {
	return &Exporter{store: store}
}

// Markdown dumps every non-empty category as a markdown table.
func (e *Exporter) Markdown(ctx context.Context) (string, error) {
	var sb strings.Builder
	sb.WriteString("# Memory Tables\n")

	for _, category := range memory.Categories() {
		records, err := e.store.ListByCategory(ctx, category, recordsPerCategory)
		if err != nil {
			return "", fmt.Errorf("failed to export category %q: %w", category, err)
		}
		if len(records) == 0 {
			continue
		}

		sb.WriteString("\n## " + category + "\n")
		sb.WriteString("| Content | Importance | Confidence | Last Accessed |\n")
		sb.WriteString("|---------|------------|------------|---------------|\n")
		for _, rec := range records {
			sb.WriteString(formatRow(rec))
		}
	}

	return sb.String(), nil
}

// HTML renders the markdown dump to sanitized HTML.
func (e *Exporter) HTML(ctx context.Context) (string, error) {
	md, err := e.Markdown(ctx)
	if err != nil {
		return "", err
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	doc := p.Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	raw := markdown.Render(doc, renderer)

	// Memory content is author-supplied free text; scrub it before anything
	// renders the export in a browser.
	return string(bluemonday.UGCPolicy().SanitizeBytes(raw)), nil
}

func formatRow(rec *core.MemoryRecord) string {
	lastAccessed := time.UnixMilli(rec.LastAccessedAt).Format("2006-01-02")
	content := strings.ReplaceAll(rec.Content, "|", "\\|")
	return fmt.Sprintf("| %s | %.0f | %.0f | %s |\n",
		content, rec.Importance, rec.Confidence, lastAccessed)
}
