package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/badno/catimport/internal/orchestrator"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect [file|s3://bucket/key|https://url]",
	Short: "Detect the export format of a file",
	Long:  `Show which platform an export was recognized as, with header and row counts.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDetect,
}

func runDetect(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	printHeader("DETECTING EXPORT FORMAT")

	orch := orchestrator.New(appConfig, nil)
	defer orch.Close()

	batch, err := orch.Load(ctx, args[0], "")
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	doc := batch.Document
	table := newTable("Property", "Value")
	table.Append([]string{"Platform", color.CyanString(string(batch.Platform))})
	table.Append([]string{"Headers", fmt.Sprintf("%d", len(doc.Headers))})
	table.Append([]string{"Data rows", fmt.Sprintf("%d", len(doc.Rows))})
	table.Append([]string{"Products", fmt.Sprintf("%d", len(batch.Records))})
	table.Append([]string{"Skipped", fmt.Sprintf("%d", batch.Skipped)})
	table.Render()
	fmt.Println()

	fmt.Println("  Columns:")
	fmt.Println("    " + truncate(strings.Join(doc.Headers, ", "), 200))
	fmt.Println()

	return nil
}
