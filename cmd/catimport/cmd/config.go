package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/badno/catimport/internal/config"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Initialize, view, and modify configuration settings.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long:  `Create a new configuration file with default settings.`,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display all configuration settings, including environment overrides.`,
	RunE:  runConfigShow,
}

var configSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set a configuration value",
	Long:  `Set a specific configuration value, e.g. catalog.base_url.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

var configGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Get a configuration value",
	Long:  `Get a specific configuration value.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
}

// configPath returns the --config file or the default location
func configPath() (string, error) {
	if configFile != "" {
		return configFile, nil
	}
	return config.GetConfigPath()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	success := color.New(color.FgGreen)

	printHeader("INITIALIZING CONFIGURATION")

	path, err := configPath()
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	if fileExists(path) {
		color.Yellow("  Configuration file already exists: %s", path)
		fmt.Println()
		return nil
	}

	if err := config.SaveTo(config.DefaultConfig(), path); err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	success.Printf("  ✓ Created configuration file: %s\n", path)
	fmt.Println()

	color.Yellow("  Next steps:")
	fmt.Println("    1. Set your catalog API token:")
	fmt.Println("       export CATALOG_API_TOKEN=your_token_here")
	fmt.Println()
	fmt.Println("    2. Point the tool at your catalog API:")
	fmt.Println("       catimport config set catalog.base_url https://shop.example.com/api/v1")
	fmt.Println()
	fmt.Println("    3. Check an export before importing it:")
	fmt.Println("       catimport detect products.csv")
	fmt.Println()

	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	header := color.New(color.FgCyan, color.Bold)

	printHeader("CURRENT CONFIGURATION")

	path, err := configPath()
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}
	if fileExists(path) {
		color.Yellow("  Config file: %s\n\n", path)
	} else {
		color.Yellow("  Using default configuration (no config file)\n\n")
	}

	data, err := yaml.Marshal(appConfig)
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}
	fmt.Println("  " + strings.ReplaceAll(string(data), "\n", "\n  "))
	fmt.Println()

	header.Println("  ENVIRONMENT VARIABLES")
	fmt.Println("  " + strings.Repeat("─", 40))
	fmt.Println()

	table := newTable("Variable", "Status")

	envVars := []struct {
		name    string
		envName string
	}{
		{"Catalog API token", appConfig.Catalog.TokenEnv},
		{"PostgreSQL username", appConfig.Database.Postgres.UsernameEnv},
		{"PostgreSQL password", appConfig.Database.Postgres.PasswordEnv},
		{"ClickHouse username", appConfig.Analytics.ClickHouse.UsernameEnv},
		{"ClickHouse password", appConfig.Analytics.ClickHouse.PasswordEnv},
	}

	for _, ev := range envVars {
		status := color.RedString("not set")
		if os.Getenv(ev.envName) != "" {
			status = color.GreenString("set")
		}
		table.Append([]string{ev.name + " (" + ev.envName + ")", status})
	}

	table.Render()
	fmt.Println()

	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key := args[0]
	value := args[1]

	path, err := configPath()
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	if err := config.SetIn(path, key, value); err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	color.Green("  ✓ Set %s = %s", key, value)
	fmt.Println()
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]

	value, err := appConfig.Get(key)
	if err != nil {
		color.Red("  Error: %v", err)
		return err
	}

	fmt.Printf("  %s = %s\n", key, value)
	fmt.Println()
	return nil
}
