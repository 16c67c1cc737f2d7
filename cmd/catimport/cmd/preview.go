package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/badno/catimport/internal/orchestrator"
	"github.com/badno/catimport/internal/output"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	previewFormat   string
	previewOutput   string
	previewPlatform string
	previewShow     int
)

var previewCmd = &cobra.Command{
	Use:   "preview [file|s3://bucket/key|https://url]",
	Short: "Write the normalized records without importing",
	Long: `Map an export and write the normalized records to a file for review.
The first records are printed as a table.`,
	Args: cobra.ExactArgs(1),
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().StringVar(&previewFormat, "format", "json", "Output format (json, jsonl, csv, xlsx)")
	previewCmd.Flags().StringVarP(&previewOutput, "output", "o", "", "Output file (default: timestamped file in the output dir)")
	previewCmd.Flags().StringVar(&previewPlatform, "platform", "", "Force the export format (shopify, woocommerce, generic)")
	previewCmd.Flags().IntVar(&previewShow, "show", 10, "Number of records to print")
}

func runPreview(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	printHeader("PREVIEWING IMPORT")

	format, ok := output.ParseFormat(previewFormat)
	if !ok {
		err := fmt.Errorf("unknown format: %s (supported: %s)", previewFormat, formatList())
		color.Red("  Error: %v", err)
		return err
	}

	platform, err := platformOption(previewPlatform, appConfig)
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	orch := orchestrator.New(appConfig, nil)
	defer orch.Close()

	batch, err := orch.Load(ctx, args[0], platform)
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	result, err := orch.Export(ctx, batch.Records, output.ExportOptions{
		Format:     format,
		OutputPath: previewOutput,
	})
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	shown := batch.Take(previewShow)
	if len(shown) > 0 {
		table := newTable("Name", "Price", "Compare", "Stock", "Category", "Variants", "Status")
		for i := range shown {
			rec := &shown[i]
			compare := "-"
			if rec.ComparePrice != nil {
				compare = output.FormatPrice(*rec.ComparePrice)
			}
			variants := "-"
			if rec.HasVariants() {
				variants = fmt.Sprintf("%d", len(rec.Variants))
			}
			table.Append([]string{
				truncate(rec.Name, 40),
				output.FormatPrice(rec.Price),
				compare,
				fmt.Sprintf("%d", rec.StockCount),
				truncate(strings.Join(rec.CategoryPath, " > "), 30),
				variants,
				string(rec.Status),
			})
		}
		table.Render()
		fmt.Println()
	}

	if more := len(batch.Records) - len(shown); more > 0 {
		fmt.Printf("  ... and %d more\n\n", more)
	}

	fmt.Printf("  Platform: %s, %d products, %d skipped\n", color.CyanString(string(batch.Platform)), len(batch.Records), batch.Skipped)
	color.Green("  ✓ Wrote %s", result.Destination)
	fmt.Println()

	return nil
}

func formatList() string {
	names := make([]string, len(output.Formats))
	for i, f := range output.Formats {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}
