package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// WorkerConfig holds record-level worker pool configuration
type WorkerConfig struct {
	PoolSize  int `mapstructure:"pool_size"`
	QueueSize int `mapstructure:"queue_size"`
}

// SheetsConfig holds spreadsheet feed configuration
type SheetsConfig struct {
	APIURL string `mapstructure:"api_url"`
	// ServiceAccountJSON is the raw service-account credential blob.
	// Resolved from EF_AGGREGATOR_SHEETS_SERVICE_ACCOUNT_JSON or the secrets file.
	ServiceAccountJSON string `mapstructure:"service_account_json"`
	SpreadsheetID      string `mapstructure:"spreadsheet_id"`
	Range              string `mapstructure:"range"`
}

// TMDBConfig holds movie feed configuration
type TMDBConfig struct {
	APIURL   string `mapstructure:"api_url"`
	APIKey   string `mapstructure:"api_key"`
	ImageURL string `mapstructure:"image_url"`
}

// YelpConfig holds business-review feed configuration
type YelpConfig struct {
	APIURL string `mapstructure:"api_url"`
	APIKey string `mapstructure:"api_key"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	// JWTSecret verifies tokens minted by the external identity provider
	JWTSecret string `mapstructure:"jwt_secret"`
}

// SheetsConnectorConfig holds configuration for the sheets-connector binary
type SheetsConnectorConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Sheets     SheetsConfig   `mapstructure:"sheets"`
}

// TMDBConnectorConfig holds configuration for the tmdb-connector binary
type TMDBConnectorConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	TMDB       TMDBConfig     `mapstructure:"tmdb"`
	Worker     WorkerConfig   `mapstructure:"worker"`
}

// YelpConnectorConfig holds configuration for the yelp-connector binary
type YelpConnectorConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig `mapstructure:"database"`
	Yelp       YelpConfig     `mapstructure:"yelp"`
}

// APIConfig holds configuration for the API server binary
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	Auth       AuthConfig     `mapstructure:"auth"`
}

// LoadSheetsConnectorConfig loads configuration for sheets-connector
func LoadSheetsConnectorConfig(configFile string, envPath string) (*SheetsConnectorConfig, error) {
	v := configureViper("sheets-connector", configFile, envPath)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("sheets.api_url", "https://sheets.googleapis.com/v4")
	v.SetDefault("sheets.range", "Locations!$A$1:$L")

	if err := readInConfig(v); err != nil {
		return nil, err
	}

	var cfg SheetsConnectorConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Sheets.ServiceAccountJSON == "" {
		blob, err := secretFromFile("sheets", "service_account_json")
		if err != nil {
			return nil, fmt.Errorf("sheets.service_account_json is required: %w", err)
		}
		cfg.Sheets.ServiceAccountJSON = blob
	}
	if cfg.Sheets.SpreadsheetID == "" {
		return nil, errors.New("sheets.spreadsheet_id is required")
	}
	if err := validateDatabase(&cfg.Database); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadTMDBConnectorConfig loads configuration for tmdb-connector
func LoadTMDBConnectorConfig(configFile string, envPath string) (*TMDBConnectorConfig, error) {
	v := configureViper("tmdb-connector", configFile, envPath)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("tmdb.api_url", "https://api.themoviedb.org/3")
	v.SetDefault("tmdb.image_url", "https://image.tmdb.org/t/p")
	v.SetDefault("worker.pool_size", 4)
	v.SetDefault("worker.queue_size", 64)

	if err := readInConfig(v); err != nil {
		return nil, err
	}

	var cfg TMDBConnectorConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.TMDB.APIKey == "" {
		key, err := secretFromFile("tmdb", "api_key")
		if err != nil {
			return nil, fmt.Errorf("tmdb.api_key is required: %w", err)
		}
		cfg.TMDB.APIKey = key
	}
	if err := validateDatabase(&cfg.Database); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadYelpConnectorConfig loads configuration for yelp-connector
func LoadYelpConnectorConfig(configFile string, envPath string) (*YelpConnectorConfig, error) {
	v := configureViper("yelp-connector", configFile, envPath)

	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("yelp.api_url", "https://api.yelp.com/v3")

	if err := readInConfig(v); err != nil {
		return nil, err
	}

	var cfg YelpConnectorConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Yelp.APIKey == "" {
		key, err := secretFromFile("yelp", "api_key")
		if err != nil {
			return nil, fmt.Errorf("yelp.api_key is required: %w", err)
		}
		cfg.Yelp.APIKey = key
	}
	if err := validateDatabase(&cfg.Database); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadAPIConfig loads configuration for the API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 10)
	v.SetDefault("server.idle_timeout", 120)
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")

	if err := readInConfig(v); err != nil {
		return nil, err
	}

	var cfg APIConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateDatabase(&cfg.Database); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// readInConfig reads the config file, tolerating a missing file (env-only runs)
func readInConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			// Config file not found, use environment variables
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func validateDatabase(db *DatabaseConfig) error {
	if db.Host == "" {
		return errors.New("database.host is required")
	}
	if db.DBName == "" {
		return errors.New("database.dbname is required")
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath, service)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("EF_AGGREGATOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables.
// This is required for viper to map env vars to config struct fields when no config file exists.
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// Sheets
		"sheets.api_url",
		"sheets.service_account_json",
		"sheets.spreadsheet_id",
		"sheets.range",
		// TMDB
		"tmdb.api_url",
		"tmdb.api_key",
		"tmdb.image_url",
		// Yelp
		"yelp.api_url",
		"yelp.api_key",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Auth
		"auth.jwt_secret",
		// Worker
		"worker.pool_size",
		"worker.queue_size",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// secretsFilePath is the fallback store for provider credentials, keyed by
// provider name. Environment variables always win over this file.
const secretsFilePath = "config/secrets/api_keys.json"

// secretFromFile resolves one provider credential from the secrets file
func secretFromFile(provider, key string) (string, error) {
	data, err := os.ReadFile(secretsFilePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secrets file %s: %w", secretsFilePath, err)
	}

	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(strings.NewReader(string(data))); err != nil {
		return "", fmt.Errorf("failed to parse secrets file: %w", err)
	}

	secret := v.GetString(provider + "." + key)
	if secret == "" {
		return "", fmt.Errorf("secret %s.%s not found in %s", provider, key, secretsFilePath)
	}
	return secret, nil
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
