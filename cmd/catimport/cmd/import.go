package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/badno/catimport/internal/catalog"
	"github.com/badno/catimport/internal/orchestrator"
	"github.com/badno/catimport/internal/output"
	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	importPlatform    string
	importLimit       int
	importConcurrency int
	importDryRun      bool
	importFormat      string
	importOutput      string
)

var importCmd = &cobra.Command{
	Use:   "import [file|s3://bucket/key|https://url]",
	Short: "Import a catalog export into the catalog API",
	Long: `Load a Shopify, WooCommerce or generic CSV (or XLSX) export, map it to
products, variants and categories, and create them through the catalog API.

Failed products are counted and reported; the rest of the file is still imported.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().StringVar(&importPlatform, "platform", "", "Force the export format (shopify, woocommerce, generic)")
	importCmd.Flags().IntVar(&importLimit, "limit", 0, "Maximum products to import (0 = all)")
	importCmd.Flags().IntVar(&importConcurrency, "concurrency", 0, "Parallel product creates (0 = config value)")
	importCmd.Flags().BoolVar(&importDryRun, "dry-run", false, "Write the mapped records to a file instead of calling the API")
	importCmd.Flags().StringVar(&importFormat, "format", "json", "Dry-run output format (json, jsonl, csv, xlsx)")
	importCmd.Flags().StringVarP(&importOutput, "output", "o", "", "Dry-run output file (default: timestamped file in the output dir)")
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	success := color.New(color.FgGreen)
	info := color.New(color.FgYellow)

	printHeader("IMPORTING CATALOG")

	platform, err := platformOption(importPlatform, appConfig)
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	format, ok := output.ParseFormat(importFormat)
	if !ok {
		err := fmt.Errorf("unknown format: %s", importFormat)
		color.Red("  Error: %v", err)
		return err
	}

	var api catalog.API
	if !importDryRun {
		client, err := catalogClient(appConfig)
		if err != nil {
			color.Red("  Error: %v", err)
			return err
		}
		defer client.Close()
		api = client
	}

	orch := orchestrator.New(appConfig, api)
	defer orch.Close()

	info.Printf("  Source: %s\n\n", args[0])

	batch, err := orch.Load(ctx, args[0], platform)
	if err != nil {
		color.Red("  Import failed: %v", err)
		return err
	}

	records := batch.Take(importLimit)
	fmt.Printf("  Platform:  %s\n", color.CyanString(string(batch.Platform)))
	fmt.Printf("  Products:  %d\n", len(records))
	if batch.Skipped > 0 {
		fmt.Printf("  Skipped:   %s\n", color.YellowString("%d", batch.Skipped))
	}
	fmt.Println()

	opts := orchestrator.ImportOptions{
		Limit:       importLimit,
		Concurrency: importConcurrency,
		DryRun:      importDryRun,
		Format:      format,
		OutputPath:  importOutput,
	}

	if importDryRun {
		report, err := orch.Run(ctx, batch, opts, nil)
		if err != nil {
			color.Red("  Export failed: %v", err)
			return err
		}
		success.Printf("  ✓ Dry run: wrote %d products (%d variants) to %s\n\n",
			report.Export.RecordsExported, report.Export.VariantsExported, report.Export.Destination)
		return nil
	}

	if history, closeHistory, err := openHistory(ctx, appConfig); err != nil {
		color.Yellow("  Warning: run history disabled: %v", err)
	} else {
		defer closeHistory()
		orch.SetHistory(history)
	}

	if appConfig.Analytics.Enabled {
		ch := getClickHouseClient(appConfig)
		if err := ch.Connect(ctx); err != nil {
			color.Yellow("  Warning: analytics disabled: %v", err)
		} else {
			defer ch.Close()
			orch.SetEventWriter(ch)
		}
	}

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetDescription("  Importing products"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        color.GreenString("█"),
			SaucerHead:    color.GreenString("█"),
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionShowCount(),
	)

	report, err := orch.Run(ctx, batch, opts, func(done, failed int) {
		bar.Set(done)
	})
	bar.Finish()
	fmt.Println()
	fmt.Println()

	if report == nil || report.Result == nil {
		color.Red("  Import failed: %v", err)
		return err
	}

	printImportReport(report)

	result := report.Result
	switch {
	case result.Cancelled:
		color.Yellow("  ⚠ Import cancelled after %d of %d products", result.Processed(), result.Total)
		fmt.Println()
		return err
	case err != nil:
		color.Red("  Import failed: %v", err)
		fmt.Println()
		return err
	case result.Failed > 0:
		color.Yellow("  ⚠ Imported %d of %d products, %d failed", result.Imported, result.Total, result.Failed)
	default:
		success.Printf("  ✓ Imported %d products\n", result.Imported)
	}
	fmt.Println()

	return nil
}

func printImportReport(report *orchestrator.RunReport) {
	result := report.Result

	table := newTable("Metric", "Value")
	table.Append([]string{"Run ID", result.RunID.String()})
	table.Append([]string{"Platform", string(report.Platform)})
	table.Append([]string{"Total", fmt.Sprintf("%d", result.Total)})
	table.Append([]string{"Imported", color.GreenString("%d", result.Imported)})
	failed := fmt.Sprintf("%d", result.Failed)
	if result.Failed > 0 {
		failed = color.YellowString("%d", result.Failed)
	}
	table.Append([]string{"Failed", failed})
	table.Append([]string{"Skipped rows", fmt.Sprintf("%d", report.Skipped)})
	table.Append([]string{"Duration", formatDuration(result.Duration())})
	table.Render()
	fmt.Println()

	if len(result.Failures) == 0 {
		return
	}

	color.New(color.FgYellow, color.Bold).Println("  FAILED PRODUCTS")
	fmt.Println()
	failures := newTable("#", "Product", "Error")
	for _, f := range result.Failures {
		failures.Append([]string{
			fmt.Sprintf("%d", f.Index+1),
			truncate(f.Name, 40),
			truncate(f.Error, 60),
		})
	}
	failures.Render()
	fmt.Println()
}
