package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigDir  = ".catimport"
	DefaultConfigFile = "config.yaml"

	// EnvPrefix prefixes environment overrides, e.g. CATIMPORT_CATALOG_BASE_URL
	EnvPrefix = "CATIMPORT"
)

// Config represents the application configuration
type Config struct {
	Catalog   CatalogConfig   `yaml:"catalog" mapstructure:"catalog"`
	Import    ImportConfig    `yaml:"import" mapstructure:"import"`
	Sources   SourcesConfig   `yaml:"sources" mapstructure:"sources"`
	Outputs   OutputsConfig   `yaml:"outputs" mapstructure:"outputs"`
	Database  DatabaseConfig  `yaml:"database" mapstructure:"database"`
	Analytics AnalyticsConfig `yaml:"analytics" mapstructure:"analytics"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
	State     StateConfig     `yaml:"state" mapstructure:"state"`
}

// CatalogConfig holds catalog API settings
type CatalogConfig struct {
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	TokenEnv          string `yaml:"token_env" mapstructure:"token_env"` // Environment variable for the API token
	TimeoutSeconds    int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxRetries        int    `yaml:"max_retries" mapstructure:"max_retries"`
	RetryWaitMs       int    `yaml:"retry_wait_ms" mapstructure:"retry_wait_ms"`
	RequestsPerSecond int    `yaml:"requests_per_second" mapstructure:"requests_per_second"` // 0 disables pacing
	ProductType       string `yaml:"product_type" mapstructure:"product_type"`
}

// Timeout returns the request timeout as a duration
func (c CatalogConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryWait returns the wait between retries as a duration
func (c CatalogConfig) RetryWait() time.Duration {
	return time.Duration(c.RetryWaitMs) * time.Millisecond
}

// ImportConfig holds import run settings
type ImportConfig struct {
	Concurrency     int    `yaml:"concurrency" mapstructure:"concurrency"`
	DefaultPlatform string `yaml:"default_platform,omitempty" mapstructure:"default_platform"` // Empty means detect
}

// SourcesConfig contains configuration for input loaders
type SourcesConfig struct {
	S3 S3SourceConfig `yaml:"s3" mapstructure:"s3"`
}

// S3SourceConfig holds S3 input settings
type S3SourceConfig struct {
	Region   string `yaml:"region" mapstructure:"region"`
	Endpoint string `yaml:"endpoint,omitempty" mapstructure:"endpoint"` // Custom endpoint, e.g. LocalStack
}

// OutputsConfig contains configuration for preview writers
type OutputsConfig struct {
	File FileOutputConfig `yaml:"file" mapstructure:"file"`
}

// FileOutputConfig holds file output settings
type FileOutputConfig struct {
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"`
	Pretty    bool   `yaml:"pretty" mapstructure:"pretty"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	UseDB    bool           `yaml:"use_db" mapstructure:"use_db"` // Record history in Postgres instead of the state file
	Postgres PostgresConfig `yaml:"postgres" mapstructure:"postgres"`
}

// PostgresConfig holds PostgreSQL settings
type PostgresConfig struct {
	Host        string `yaml:"host" mapstructure:"host"`
	Port        int    `yaml:"port" mapstructure:"port"`
	Database    string `yaml:"database" mapstructure:"database"`
	UsernameEnv string `yaml:"username_env" mapstructure:"username_env"`
	PasswordEnv string `yaml:"password_env" mapstructure:"password_env"`
	SSLMode     string `yaml:"ssl_mode" mapstructure:"ssl_mode"`
}

// AnalyticsConfig holds import event analytics settings
type AnalyticsConfig struct {
	Enabled    bool             `yaml:"enabled" mapstructure:"enabled"`
	ClickHouse ClickHouseConfig `yaml:"clickhouse" mapstructure:"clickhouse"`
}

// ClickHouseConfig holds ClickHouse settings
type ClickHouseConfig struct {
	Host        string `yaml:"host" mapstructure:"host"`
	Port        int    `yaml:"port" mapstructure:"port"`
	Database    string `yaml:"database" mapstructure:"database"`
	UsernameEnv string `yaml:"username_env" mapstructure:"username_env"`
	PasswordEnv string `yaml:"password_env" mapstructure:"password_env"`
	Secure      bool   `yaml:"secure" mapstructure:"secure"`
}

// LoggingConfig holds log output settings
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text or json
}

// StateConfig holds the local state file location
type StateConfig struct {
	File string `yaml:"file,omitempty" mapstructure:"file"` // Empty means ~/.catimport/state.json
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			BaseURL:           "http://localhost:8080/api/v1",
			TokenEnv:          "CATALOG_API_TOKEN",
			TimeoutSeconds:    30,
			MaxRetries:        2,
			RetryWaitMs:       500,
			RequestsPerSecond: 10,
			ProductType:       "physical",
		},
		Import: ImportConfig{
			Concurrency: 1,
		},
		Sources: SourcesConfig{
			S3: S3SourceConfig{
				Region: "eu-north-1",
			},
		},
		Outputs: OutputsConfig{
			File: FileOutputConfig{
				OutputDir: "./output",
				Pretty:    true,
			},
		},
		Database: DatabaseConfig{
			UseDB: false, // Disabled by default, use JSON state
			Postgres: PostgresConfig{
				Host:        "localhost",
				Port:        5432,
				Database:    "catimport",
				UsernameEnv: "POSTGRES_USER",
				PasswordEnv: "POSTGRES_PASSWORD",
				SSLMode:     "prefer",
			},
		},
		Analytics: AnalyticsConfig{
			Enabled: false,
			ClickHouse: ClickHouseConfig{
				Host:        "localhost",
				Port:        9000,
				Database:    "catimport",
				UsernameEnv: "CLICKHOUSE_USERNAME",
				PasswordEnv: "CLICKHOUSE_PASSWORD",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// setDefaults registers every default with viper so env overrides apply to
// keys missing from the file
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("catalog.base_url", d.Catalog.BaseURL)
	v.SetDefault("catalog.token_env", d.Catalog.TokenEnv)
	v.SetDefault("catalog.timeout_seconds", d.Catalog.TimeoutSeconds)
	v.SetDefault("catalog.max_retries", d.Catalog.MaxRetries)
	v.SetDefault("catalog.retry_wait_ms", d.Catalog.RetryWaitMs)
	v.SetDefault("catalog.requests_per_second", d.Catalog.RequestsPerSecond)
	v.SetDefault("catalog.product_type", d.Catalog.ProductType)

	v.SetDefault("import.concurrency", d.Import.Concurrency)
	v.SetDefault("import.default_platform", d.Import.DefaultPlatform)

	v.SetDefault("sources.s3.region", d.Sources.S3.Region)
	v.SetDefault("sources.s3.endpoint", d.Sources.S3.Endpoint)

	v.SetDefault("outputs.file.output_dir", d.Outputs.File.OutputDir)
	v.SetDefault("outputs.file.pretty", d.Outputs.File.Pretty)

	v.SetDefault("database.use_db", d.Database.UseDB)
	v.SetDefault("database.postgres.host", d.Database.Postgres.Host)
	v.SetDefault("database.postgres.port", d.Database.Postgres.Port)
	v.SetDefault("database.postgres.database", d.Database.Postgres.Database)
	v.SetDefault("database.postgres.username_env", d.Database.Postgres.UsernameEnv)
	v.SetDefault("database.postgres.password_env", d.Database.Postgres.PasswordEnv)
	v.SetDefault("database.postgres.ssl_mode", d.Database.Postgres.SSLMode)

	v.SetDefault("analytics.enabled", d.Analytics.Enabled)
	v.SetDefault("analytics.clickhouse.host", d.Analytics.ClickHouse.Host)
	v.SetDefault("analytics.clickhouse.port", d.Analytics.ClickHouse.Port)
	v.SetDefault("analytics.clickhouse.database", d.Analytics.ClickHouse.Database)
	v.SetDefault("analytics.clickhouse.username_env", d.Analytics.ClickHouse.UsernameEnv)
	v.SetDefault("analytics.clickhouse.password_env", d.Analytics.ClickHouse.PasswordEnv)
	v.SetDefault("analytics.clickhouse.secure", d.Analytics.ClickHouse.Secure)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)

	v.SetDefault("state.file", d.State.File)
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir, DefaultConfigFile), nil
}

// Load reads the configuration from the config file
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	return LoadFrom(configPath)
}

// LoadFrom reads the configuration from a specific path with environment
// variable overrides. A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply defaults for missing values
	applyDefaults(&config)

	return &config, nil
}

// Save writes the configuration to the config file
func Save(config *Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	return SaveTo(config, configPath)
}

// SaveTo writes the configuration to a specific path
func SaveTo(config *Config, path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Init creates a new config file with defaults
func Init() error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}

	// Check if file already exists
	if _, err := os.Stat(configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", configPath)
	}

	return Save(DefaultConfig())
}

// Exists checks if the config file exists
func Exists() bool {
	configPath, err := GetConfigPath()
	if err != nil {
		return false
	}

	_, err = os.Stat(configPath)
	return err == nil
}

// applyDefaults fills in values that are present but unusable
func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	if config.Catalog.BaseURL == "" {
		config.Catalog.BaseURL = defaults.Catalog.BaseURL
	}
	if config.Catalog.TimeoutSeconds <= 0 {
		config.Catalog.TimeoutSeconds = defaults.Catalog.TimeoutSeconds
	}
	if config.Catalog.MaxRetries < 0 {
		config.Catalog.MaxRetries = 0
	}
	if config.Catalog.ProductType == "" {
		config.Catalog.ProductType = defaults.Catalog.ProductType
	}
	if config.Import.Concurrency < 1 {
		config.Import.Concurrency = 1
	}
	if config.Outputs.File.OutputDir == "" {
		config.Outputs.File.OutputDir = defaults.Outputs.File.OutputDir
	}
	if config.Database.Postgres.Port == 0 {
		config.Database.Postgres.Port = defaults.Database.Postgres.Port
	}
	if config.Analytics.ClickHouse.Port == 0 {
		config.Analytics.ClickHouse.Port = defaults.Analytics.ClickHouse.Port
	}
}

// Set updates a specific config value in the config file
func Set(key, value string) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return err
	}
	return SetIn(configPath, key, value)
}

// SetIn updates a specific config value in the file at path
func SetIn(path, key, value string) error {
	config, err := LoadFrom(path)
	if err != nil {
		return err
	}
	if err := config.Set(key, value); err != nil {
		return err
	}
	return SaveTo(config, path)
}

// Get retrieves a specific config value
func Get(key string) (string, error) {
	config, err := Load()
	if err != nil {
		return "", err
	}
	return config.Get(key)
}

// Set updates one value addressed by its dotted key
func (c *Config) Set(key, value string) error {
	switch key {
	case "catalog.base_url":
		c.Catalog.BaseURL = value
	case "catalog.token_env":
		c.Catalog.TokenEnv = value
	case "catalog.timeout_seconds":
		return setInt(&c.Catalog.TimeoutSeconds, key, value)
	case "catalog.max_retries":
		return setInt(&c.Catalog.MaxRetries, key, value)
	case "catalog.retry_wait_ms":
		return setInt(&c.Catalog.RetryWaitMs, key, value)
	case "catalog.requests_per_second":
		return setInt(&c.Catalog.RequestsPerSecond, key, value)
	case "catalog.product_type":
		c.Catalog.ProductType = value
	case "import.concurrency":
		return setInt(&c.Import.Concurrency, key, value)
	case "import.default_platform":
		c.Import.DefaultPlatform = value
	case "sources.s3.region":
		c.Sources.S3.Region = value
	case "sources.s3.endpoint":
		c.Sources.S3.Endpoint = value
	case "outputs.file.output_dir":
		c.Outputs.File.OutputDir = value
	case "outputs.file.pretty":
		c.Outputs.File.Pretty = value == "true"
	case "database.use_db":
		c.Database.UseDB = value == "true"
	case "database.postgres.host":
		c.Database.Postgres.Host = value
	case "database.postgres.port":
		return setInt(&c.Database.Postgres.Port, key, value)
	case "database.postgres.database":
		c.Database.Postgres.Database = value
	case "database.postgres.username_env":
		c.Database.Postgres.UsernameEnv = value
	case "database.postgres.password_env":
		c.Database.Postgres.PasswordEnv = value
	case "database.postgres.ssl_mode":
		c.Database.Postgres.SSLMode = value
	case "analytics.enabled":
		c.Analytics.Enabled = value == "true"
	case "analytics.clickhouse.host":
		c.Analytics.ClickHouse.Host = value
	case "analytics.clickhouse.port":
		return setInt(&c.Analytics.ClickHouse.Port, key, value)
	case "analytics.clickhouse.database":
		c.Analytics.ClickHouse.Database = value
	case "logging.level":
		c.Logging.Level = value
	case "logging.format":
		c.Logging.Format = value
	case "state.file":
		c.State.File = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// Get returns one value addressed by its dotted key
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "catalog.base_url":
		return c.Catalog.BaseURL, nil
	case "catalog.token_env":
		return c.Catalog.TokenEnv, nil
	case "catalog.timeout_seconds":
		return strconv.Itoa(c.Catalog.TimeoutSeconds), nil
	case "catalog.max_retries":
		return strconv.Itoa(c.Catalog.MaxRetries), nil
	case "catalog.retry_wait_ms":
		return strconv.Itoa(c.Catalog.RetryWaitMs), nil
	case "catalog.requests_per_second":
		return strconv.Itoa(c.Catalog.RequestsPerSecond), nil
	case "catalog.product_type":
		return c.Catalog.ProductType, nil
	case "import.concurrency":
		return strconv.Itoa(c.Import.Concurrency), nil
	case "import.default_platform":
		return c.Import.DefaultPlatform, nil
	case "sources.s3.region":
		return c.Sources.S3.Region, nil
	case "sources.s3.endpoint":
		return c.Sources.S3.Endpoint, nil
	case "outputs.file.output_dir":
		return c.Outputs.File.OutputDir, nil
	case "outputs.file.pretty":
		return strconv.FormatBool(c.Outputs.File.Pretty), nil
	case "database.use_db":
		return strconv.FormatBool(c.Database.UseDB), nil
	case "database.postgres.host":
		return c.Database.Postgres.Host, nil
	case "database.postgres.port":
		return strconv.Itoa(c.Database.Postgres.Port), nil
	case "database.postgres.database":
		return c.Database.Postgres.Database, nil
	case "database.postgres.username_env":
		return c.Database.Postgres.UsernameEnv, nil
	case "database.postgres.password_env":
		return c.Database.Postgres.PasswordEnv, nil
	case "database.postgres.ssl_mode":
		return c.Database.Postgres.SSLMode, nil
	case "analytics.enabled":
		return strconv.FormatBool(c.Analytics.Enabled), nil
	case "analytics.clickhouse.host":
		return c.Analytics.ClickHouse.Host, nil
	case "analytics.clickhouse.port":
		return strconv.Itoa(c.Analytics.ClickHouse.Port), nil
	case "analytics.clickhouse.database":
		return c.Analytics.ClickHouse.Database, nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	case "state.file":
		return c.State.File, nil
	default:
		return "", fmt.Errorf("unknown config key: %s", key)
	}
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dst = n
	return nil
}
