package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sandevgo/recall/internal/config"
	"github.com/sandevgo/recall/internal/core"
	"github.com/sandevgo/recall/internal/memory"
	"github.com/sandevgo/recall/internal/service/ui"
	redisstore "github.com/sandevgo/recall/internal/storage/redis"
	sqlitestore "github.com/sandevgo/recall/internal/storage/sqlite"
	"github.com/sandevgo/recall/pkg/log"
	"github.com/spf13/cobra"
)

var (
	debug bool
)

var rootCmd = &cobra.Command{
	Use:   "recall",
	Short: "Recall, a self-organizing fact store",
	Long: `Recall keeps short text memories in a fixed category taxonomy, ranks them
by an importance score that rises on access and decays over time, and evicts
what falls below the floor.`,
}

func Execute() {
	// Local overrides live next to the runtime dir; missing file is fine
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	CustomizeHelp(rootCmd)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	// Global flags available to all subcommands
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", config.IsDebug(), "enable debug logging")
}

func setupLogger(ctx context.Context) (context.Context, func()) {
	isDebug := debug || config.IsDebug()
	return log.NewContextWithLogger(ctx, isDebug)
}

// openStore wires the configured backend into a store. The returned cleanup
// closes the backend connection.
func openStore(ctx context.Context) (*memory.Store, *config.AppConfig, error) {
	cfg := config.NewAppConfig(ctx)

	var backend core.Backend
	switch cfg.Backend {
	case "redis":
		b, err := redisstore.New(ctx, cfg.RedisURL, cfg.CommandTimeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect redis backend: %w", err)
		}
		backend = b
	case "sqlite":
		db, err := sqlitestore.NewDB(ctx, cfg.GetDatabasePath())
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open sqlite backend: %w", err)
		}
		backend = sqlitestore.NewBackend(db)
	default:
		return nil, nil, fmt.Errorf("unknown backend %q (want sqlite or redis)", cfg.Backend)
	}

	store := memory.NewStore(backend, memory.Options{
		BoostAmount:  cfg.BoostAmount,
		HotSetSize:   cfg.HotSetSize,
		SearchWindow: cfg.SearchWindow,
	})
	return store, cfg, nil
}

func CustomizeHelp(rootCmd *cobra.Command) {
	cobra.AddTemplateFunc("StyleTitle", func(s string) string { return ui.TitleStyle.Render(s) })
	cobra.AddTemplateFunc("StyleUsage", func(s string) string { return ui.UsageStyle.Render(s) })
	cobra.AddTemplateFunc("StyleFlag", func(s string) string { return ui.FlagStyle.Render(s) })
	cobra.AddTemplateFunc("StyleDesc", func(s string) string { return ui.DescStyle.Render(s) })

	template := `
{{StyleTitle "USAGE"}}
  {{.UseLine}}
{{if gt (len .Commands) 0}}{{StyleTitle "AVAILABLE COMMANDS"}}
{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding}} {{StyleDesc .Short}}{{end}}
{{end}}{{end}}
{{if .HasAvailableLocalFlags}}{{StyleTitle "FLAGS"}}
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}
{{end}}
`
	rootCmd.SetHelpTemplate(template)
}
