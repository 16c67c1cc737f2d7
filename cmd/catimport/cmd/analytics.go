package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Import analytics commands",
	Long:  "Commands for analyzing per-record import outcomes stored in ClickHouse",
}

var analyticsInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize analytics database",
	Long:  "Creates ClickHouse tables and materialized views for import analytics",
	RunE:  runAnalyticsInit,
}

var analyticsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show outcomes per platform",
	Long:  "Summarizes imported and failed products per export platform",
	RunE:  runAnalyticsSummary,
}

var analyticsFailuresCmd = &cobra.Command{
	Use:   "failures",
	Short: "Show recent failures",
	Long:  "Lists the most recent product, category and variant failures",
	RunE:  runAnalyticsFailures,
}

var (
	analyticsPeriod string
	analyticsLimit  int
)

func init() {
	analyticsCmd.AddCommand(analyticsInitCmd)
	analyticsCmd.AddCommand(analyticsSummaryCmd)
	analyticsCmd.AddCommand(analyticsFailuresCmd)

	analyticsSummaryCmd.Flags().StringVar(&analyticsPeriod, "period", "30d", "Time period (e.g., 7d, 30d, 90d)")
	analyticsFailuresCmd.Flags().IntVar(&analyticsLimit, "limit", 20, "Number of failures to show")
}

func parsePeriod(period string) int {
	// Parse period like "7d", "30d", "90d"
	var days int
	fmt.Sscanf(period, "%dd", &days)
	if days <= 0 {
		days = 30
	}
	return days
}

func runAnalyticsInit(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client := getClickHouseClient(appConfig)

	fmt.Println("Connecting to ClickHouse...")
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer client.Close()

	color.Green("✓ Connected")

	fmt.Println("Creating schema...")
	if err := client.InitSchema(ctx); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	color.Green("✓ Schema created")

	tables, err := client.GetTableInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to get table info: %w", err)
	}

	fmt.Println("\nCreated tables:")
	for _, t := range tables {
		fmt.Printf("  • %s (%s)\n", t.Name, t.Engine)
	}

	color.Green("\n✓ Analytics database initialized")
	fmt.Println("\nTo stream import events, run:")
	fmt.Println("  catimport config set analytics.enabled true")

	return nil
}

func runAnalyticsSummary(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	days := parsePeriod(analyticsPeriod)

	client := getClickHouseClient(appConfig)
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	defer client.Close()

	color.Green("✓ Connected to ClickHouse")

	since := time.Now().AddDate(0, 0, -days)
	summaries, err := client.GetPlatformSummary(ctx, since)
	if err != nil {
		return fmt.Errorf("failed to get summary: %w", err)
	}

	fmt.Printf("\nImport outcomes (last %d days):\n\n", days)

	if len(summaries) == 0 {
		color.Yellow("No import events recorded in this period")
		return nil
	}

	table := newTable("Platform", "Runs", "Imported", "Failed", "Category Issues", "Variant Failures", "Success", "Last Import")
	for _, s := range summaries {
		attempts := s.Imported + s.ProductFailures
		rate := "-"
		if attempts > 0 {
			pct := float64(s.Imported) / float64(attempts) * 100
			rate = fmt.Sprintf("%.1f%%", pct)
			switch {
			case pct < 90:
				rate = color.RedString(rate)
			case pct < 100:
				rate = color.YellowString(rate)
			default:
				rate = color.GreenString(rate)
			}
		}

		table.Append([]string{
			s.Platform,
			fmt.Sprintf("%d", s.Runs),
			fmt.Sprintf("%d", s.Imported),
			fmt.Sprintf("%d", s.ProductFailures),
			fmt.Sprintf("%d", s.CategoryFailures),
			fmt.Sprintf("%d", s.VariantFailures),
			rate,
			s.LastEventAt.Format("2006-01-02 15:04"),
		})
	}
	table.Render()

	if total, err := client.GetEventCount(ctx); err == nil {
		fmt.Printf("\nTotal events stored: %d\n", total)
	}
	if size, err := client.GetDatabaseSize(ctx); err == nil {
		fmt.Printf("Database size:       %s\n", formatBytes(size))
	}

	return nil
}

func runAnalyticsFailures(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := getClickHouseClient(appConfig)
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}
	defer client.Close()

	events, err := client.GetRecentFailures(ctx, analyticsLimit)
	if err != nil {
		return fmt.Errorf("failed to get failures: %w", err)
	}

	if len(events) == 0 {
		color.Green("✓ No failures recorded")
		return nil
	}

	table := newTable("When", "Run", "Kind", "Product", "Detail")
	for _, e := range events {
		detail := e.Error
		if e.Variant != "" {
			detail = e.Variant + ": " + detail
		}
		table.Append([]string{
			e.OccurredAt.Format("2006-01-02 15:04"),
			e.RunID.String()[:8],
			e.Kind,
			truncate(e.ProductName, 30),
			truncate(detail, 50),
		})
	}
	table.Render()

	return nil
}
