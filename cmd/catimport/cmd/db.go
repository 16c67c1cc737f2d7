package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/badno/catimport/internal/database"
	"github.com/badno/catimport/internal/database/postgres"
	"github.com/badno/catimport/internal/state"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database management commands",
	Long:  "Commands for managing the PostgreSQL run history backend",
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the database schema",
	Long:  "Creates the import run tables in the PostgreSQL database",
	RunE:  runDBInit,
}

var dbStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show database status",
	Long:  "Shows connection status, table counts, and database health information",
	RunE:  runDBStatus,
}

var dbMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy run history from the JSON state file to the database",
	Long:  "Imports runs recorded in the local state file into PostgreSQL, skipping runs already present",
	RunE:  runDBMigrate,
}

var dbRollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Roll back the last schema migration",
	Long:  "Reverts the most recently applied migration of the run history schema",
	RunE:  runDBRollback,
}

var migrateFromState string

func init() {
	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbStatusCmd)
	dbCmd.AddCommand(dbMigrateCmd)
	dbCmd.AddCommand(dbRollbackCmd)

	dbMigrateCmd.Flags().StringVar(&migrateFromState, "from-state", "", "Path to JSON state file (default: state.file or ~/.catimport/state.json)")
}

func runDBInit(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := getDBClient(appConfig)
	if err != nil {
		return err
	}

	fmt.Println("Connecting to PostgreSQL...")
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer client.Close()

	color.Green("✓ Connected to database")

	fmt.Println("Running migrations...")
	if err := client.RunMigrations(); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	color.Green("✓ Database schema initialized")

	version, dirty, err := client.MigrationVersion()
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}

	fmt.Printf("\nMigration version: %d", version)
	if dirty {
		color.Yellow(" (dirty)")
	}
	fmt.Println()

	stats, err := client.GetTableStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get table stats: %w", err)
	}

	fmt.Println("\nCreated tables:")
	for _, s := range stats {
		fmt.Printf("  • %s\n", s.TableName)
	}

	color.Green("\n✓ Database initialization complete")
	fmt.Println("\nTo record import history in the database, run:")
	fmt.Println("  catimport config set database.use_db true")
	return nil
}

func runDBStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := getDBClient(appConfig)
	if err != nil {
		return err
	}

	fmt.Println("Checking database connection...")
	if err := client.Connect(ctx); err != nil {
		color.Red("✗ Connection failed: %v", err)
		return nil
	}
	defer client.Close()

	color.Green("✓ Connected")

	info, err := client.GetDatabaseInfo(ctx)
	if err != nil {
		return fmt.Errorf("failed to get database info: %w", err)
	}

	fmt.Println("\n" + color.CyanString("Database Information"))
	fmt.Printf("  Database:    %s\n", info.DatabaseName)
	fmt.Printf("  Size:        %s\n", info.DatabaseSize)
	fmt.Printf("  Connections: %d/%d\n", info.ConnectionsNow, info.ConnectionsMax)

	version, dirty, err := client.MigrationVersion()
	if err != nil || version == 0 {
		fmt.Printf("  Migration:   %s\n", color.YellowString("not initialized"))
	} else {
		status := fmt.Sprintf("v%d", version)
		if dirty {
			status += color.YellowString(" (dirty)")
		}
		fmt.Printf("  Migration:   %s\n", status)
	}

	stats, err := client.GetTableStats(ctx)
	if err != nil {
		return fmt.Errorf("failed to get table stats: %w", err)
	}

	if len(stats) > 0 {
		fmt.Println("\n" + color.CyanString("Table Statistics"))

		table := newTable("Table", "Rows", "Size")
		for _, s := range stats {
			table.Append([]string{s.TableName, fmt.Sprintf("%d", s.RowCount), s.Size})
		}
		table.Render()
	}

	if version > 0 {
		counts, err := postgres.NewRunRepo(client).CountByPlatform(ctx)
		if err != nil {
			return err
		}
		if len(counts) > 0 {
			fmt.Println("\n" + color.CyanString("Runs by Platform"))

			platforms := make([]string, 0, len(counts))
			for p := range counts {
				platforms = append(platforms, p)
			}
			sort.Strings(platforms)

			table := newTable("Platform", "Runs")
			for _, p := range platforms {
				table.Append([]string{p, fmt.Sprintf("%d", counts[p])})
			}
			table.Render()
		}
	}

	if poolStats := client.Stats(); poolStats != nil {
		fmt.Println("\n" + color.CyanString("Connection Pool"))
		fmt.Printf("  Total conns:      %d\n", poolStats.TotalConns())
		fmt.Printf("  Idle conns:       %d\n", poolStats.IdleConns())
		fmt.Printf("  Acquired conns:   %d\n", poolStats.AcquiredConns())
	}

	return nil
}

func runDBMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	statePath := migrateFromState
	if statePath == "" {
		statePath = appConfig.State.File
	}

	store, err := state.Open(statePath)
	if err != nil {
		return fmt.Errorf("failed to load state file: %w", err)
	}
	fmt.Printf("Loading state from: %s\n", store.Path())

	runs, err := store.GetRecent(ctx, 0)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		color.Yellow("No runs found in state file")
		return nil
	}

	fmt.Printf("Found %d runs to migrate\n", len(runs))

	client, err := getDBClient(appConfig)
	if err != nil {
		return err
	}

	fmt.Println("Connecting to PostgreSQL...")
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer client.Close()

	color.Green("✓ Connected")

	repo := postgres.NewRunRepo(client)
	var migrated, existing int
	// Oldest first so database ordering matches the state file
	for i := len(runs) - 1; i >= 0; i-- {
		run := runs[i]
		_, err := repo.GetByID(ctx, run.ID)
		switch {
		case err == nil:
			existing++
			continue
		case !errors.Is(err, database.ErrNotFound):
			return fmt.Errorf("failed to check run %s: %w", run.ID, err)
		}

		if err := repo.Add(ctx, run); err != nil {
			color.Yellow("Warning: failed to migrate run %s: %v", run.ID, err)
			continue
		}
		migrated++
	}

	fmt.Println("\n" + color.CyanString("Migration Summary"))
	fmt.Printf("  Migrated:         %d\n", migrated)
	fmt.Printf("  Already present:  %d\n", existing)

	color.Green("\n✓ Migration complete")
	fmt.Println("\nTo enable database backend, run:")
	fmt.Println("  catimport config set database.use_db true")

	return nil
}

func runDBRollback(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := getDBClient(appConfig)
	if err != nil {
		return err
	}

	fmt.Println("Connecting to PostgreSQL...")
	if err := client.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer client.Close()

	if err := client.RollbackMigration(); err != nil {
		return err
	}

	version, dirty, err := client.MigrationVersion()
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}
	if version == 0 {
		color.Green("✓ Rolled back, no migrations applied")
		return nil
	}
	color.Green("✓ Rolled back to version %d (dirty: %v)", version, dirty)
	return nil
}
