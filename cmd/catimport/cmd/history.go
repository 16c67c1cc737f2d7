package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/badno/catimport/internal/database"
	"github.com/badno/catimport/internal/state"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent import runs",
	Long: `List recent import runs. Runs are read from PostgreSQL when
database.use_db is set, otherwise from the local state file.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show one run with its failed products",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all runs from the local state file",
	Long: `Empties the run history kept in the local state file. Runs stored in
PostgreSQL are not touched; use this after "db migrate".`,
	RunE: runHistoryClear,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Number of runs to show")
	historyCmd.AddCommand(historyShowCmd)
	historyCmd.AddCommand(historyClearCmd)
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	store, err := state.Open(appConfig.State.File)
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	n := store.Count()
	store.Clear()
	if err := store.Save(); err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	color.Green("  ✓ Removed %d runs from %s", n, store.Path())
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	printHeader("IMPORT HISTORY")

	repo, closeRepo, err := openHistory(ctx, appConfig)
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}
	defer closeRepo()

	runs, err := repo.GetRecent(ctx, historyLimit)
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	if len(runs) == 0 {
		color.Yellow("  No import runs recorded yet")
		fmt.Println()
		return nil
	}

	table := newTable("Run", "Started", "Source", "Platform", "Imported", "Failed", "Skipped", "Status", "Duration")
	for _, run := range runs {
		table.Append([]string{
			run.ID.String()[:8],
			run.StartedAt.Format("2006-01-02 15:04"),
			truncate(run.Source, 40),
			run.Platform,
			fmt.Sprintf("%d", run.Imported),
			fmt.Sprintf("%d", run.Failed),
			fmt.Sprintf("%d", run.Skipped),
			colorStatus(run.Status()),
			formatDuration(run.Duration()),
		})
	}
	table.Render()
	fmt.Println()

	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	id, err := uuid.Parse(args[0])
	if err != nil {
		color.Red("  Error: invalid run id: %v", err)
		return err
	}

	repo, closeRepo, err := openHistory(ctx, appConfig)
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}
	defer closeRepo()

	run, err := repo.GetByID(ctx, id)
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	printHeader("IMPORT RUN " + run.ID.String())

	fmt.Printf("  Source:    %s\n", run.Source)
	fmt.Printf("  Platform:  %s\n", run.Platform)
	fmt.Printf("  Started:   %s\n", run.StartedAt.Format(time.RFC3339))
	fmt.Printf("  Duration:  %s\n", formatDuration(run.Duration()))
	fmt.Printf("  Status:    %s\n", colorStatus(run.Status()))
	fmt.Printf("  Products:  %d imported, %d failed of %d (%d rows skipped)\n", run.Imported, run.Failed, run.Total, run.Skipped)
	if run.Error != "" {
		fmt.Printf("  Error:     %s\n", color.RedString(run.Error))
	}
	fmt.Println()

	if len(run.Failures) > 0 {
		table := newTable("#", "Product", "Error")
		for _, f := range run.Failures {
			table.Append([]string{fmt.Sprintf("%d", f.Index+1), truncate(f.Name, 40), truncate(f.Error, 60)})
		}
		table.Render()
		fmt.Println()
	}

	return nil
}

func colorStatus(status string) string {
	switch status {
	case database.RunCompleted:
		return color.GreenString(status)
	case database.RunPartial, database.RunCancelled:
		return color.YellowString(status)
	default:
		return color.RedString(status)
	}
}
