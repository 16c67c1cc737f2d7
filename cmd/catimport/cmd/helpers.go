package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/badno/catimport/internal/catalog"
	"github.com/badno/catimport/internal/config"
	"github.com/badno/catimport/internal/database"
	"github.com/badno/catimport/internal/database/clickhouse"
	"github.com/badno/catimport/internal/database/postgres"
	"github.com/badno/catimport/internal/state"
	"github.com/badno/catimport/pkg/models"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
)

func printHeader(title string) {
	color.New(color.FgCyan, color.Bold).Println("\n  " + title)
	fmt.Println("  " + strings.Repeat("─", 40))
	fmt.Println()
}

func newTable(headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(headers)
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	colors := make([]tablewriter.Colors, len(headers))
	for i := range colors {
		colors[i] = tablewriter.Colors{tablewriter.Bold, tablewriter.FgCyanColor}
	}
	table.SetHeaderColor(colors...)
	return table
}

// catalogClient builds the API client from configuration
func catalogClient(cfg *config.Config) (*catalog.Client, error) {
	token := os.Getenv(cfg.Catalog.TokenEnv)
	if token == "" {
		return nil, fmt.Errorf("catalog API token not set. Set the %s environment variable", cfg.Catalog.TokenEnv)
	}

	return catalog.NewClient(catalog.Config{
		BaseURL:           cfg.Catalog.BaseURL,
		Token:             token,
		Timeout:           cfg.Catalog.Timeout(),
		MaxRetries:        cfg.Catalog.MaxRetries,
		RetryWait:         cfg.Catalog.RetryWait(),
		RequestsPerSecond: cfg.Catalog.RequestsPerSecond,
	}), nil
}

// platformOption resolves the --platform flag, falling back to the
// configured default. An empty result means detect from headers.
func platformOption(flag string, cfg *config.Config) (models.Platform, error) {
	name := flag
	if name == "" {
		name = cfg.Import.DefaultPlatform
	}
	if name == "" || name == "auto" {
		return "", nil
	}
	return models.ParsePlatform(strings.ToLower(name))
}

// getDBClient creates a PostgreSQL client from configuration
func getDBClient(cfg *config.Config) (*postgres.Client, error) {
	pgConfig := postgres.ConfigFromSettings(cfg.Database.Postgres)
	if pgConfig.Username == "" {
		return nil, fmt.Errorf("PostgreSQL username not set. Set the %s environment variable", cfg.Database.Postgres.UsernameEnv)
	}
	return postgres.NewClient(pgConfig), nil
}

// getClickHouseClient creates a ClickHouse client from configuration
func getClickHouseClient(cfg *config.Config) *clickhouse.Client {
	return clickhouse.NewClient(clickhouse.ConfigFromSettings(cfg.Analytics.ClickHouse))
}

// openHistory returns the run repository: Postgres when database.use_db is
// set, the JSON state file otherwise
func openHistory(ctx context.Context, cfg *config.Config) (database.RunRepository, func(), error) {
	if !cfg.Database.UseDB {
		store, err := state.Open(cfg.State.File)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open state file: %w", err)
		}
		return store, func() {}, nil
	}

	client, err := getDBClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}
	return postgres.NewRunRepo(client), client.Close, nil
}

func formatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}

// formatBytes renders a size with a binary unit, e.g. 1.5 MiB
func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
