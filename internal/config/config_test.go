package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdirEmpty moves the test into an empty directory so no config file or
// secrets file from the repo leaks into the run
func chdirEmpty(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	return dir
}

func setDatabaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("EF_AGGREGATOR_DATABASE_HOST", "localhost")
	t.Setenv("EF_AGGREGATOR_DATABASE_USER", "postgres")
	t.Setenv("EF_AGGREGATOR_DATABASE_PASSWORD", "postgres")
	t.Setenv("EF_AGGREGATOR_DATABASE_DBNAME", "events")
}

func TestLoadAPIConfigDefaults(t *testing.T) {
	chdirEmpty(t)
	setDatabaseEnv(t)
	t.Setenv("EF_AGGREGATOR_AUTH_JWT_SECRET", "sekrit")

	cfg, err := LoadAPIConfig("", "")
	require.NoError(t, err)

	assert.False(t, cfg.Debug)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Server.ReadTimeout)
	assert.Equal(t, 120, cfg.Server.IdleTimeout)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "disable", cfg.Database.SSLMode)
	assert.Equal(t, "sekrit", cfg.Auth.JWTSecret)
}

func TestLoadAPIConfigRequiresDatabase(t *testing.T) {
	chdirEmpty(t)

	_, err := LoadAPIConfig("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.host")
}

func TestLoadTMDBConnectorConfigFromEnv(t *testing.T) {
	chdirEmpty(t)
	setDatabaseEnv(t)
	t.Setenv("EF_AGGREGATOR_TMDB_API_KEY", "env-key")

	cfg, err := LoadTMDBConnectorConfig("", "")
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.TMDB.APIKey)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.APIURL)
	assert.Equal(t, "https://image.tmdb.org/t/p", cfg.TMDB.ImageURL)
	assert.Equal(t, 4, cfg.Worker.PoolSize)
	assert.Equal(t, 64, cfg.Worker.QueueSize)
}

func TestLoadTMDBConnectorConfigSecretsFileFallback(t *testing.T) {
	dir := chdirEmpty(t)
	setDatabaseEnv(t)

	secretsDir := filepath.Join(dir, "config", "secrets")
	require.NoError(t, os.MkdirAll(secretsDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(secretsDir, "api_keys.json"),
		[]byte(`{"tmdb": {"api_key": "file-key"}, "yelp": {"api_key": "yelp-file-key"}}`),
		0o600,
	))

	cfg, err := LoadTMDBConnectorConfig("", "")
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.TMDB.APIKey)

	yelpCfg, err := LoadYelpConnectorConfig("", "")
	require.NoError(t, err)
	assert.Equal(t, "yelp-file-key", yelpCfg.Yelp.APIKey)
}

func TestLoadTMDBConnectorConfigMissingKey(t *testing.T) {
	chdirEmpty(t)
	setDatabaseEnv(t)

	_, err := LoadTMDBConnectorConfig("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tmdb.api_key")
}

func TestLoadSheetsConnectorConfig(t *testing.T) {
	chdirEmpty(t)
	setDatabaseEnv(t)
	t.Setenv("EF_AGGREGATOR_SHEETS_SERVICE_ACCOUNT_JSON", `{"type":"service_account"}`)
	t.Setenv("EF_AGGREGATOR_SHEETS_SPREADSHEET_ID", "sheet-123")

	cfg, err := LoadSheetsConnectorConfig("", "")
	require.NoError(t, err)

	assert.Equal(t, "sheet-123", cfg.Sheets.SpreadsheetID)
	assert.Equal(t, "https://sheets.googleapis.com/v4", cfg.Sheets.APIURL)
	assert.Equal(t, "Locations!$A$1:$L", cfg.Sheets.Range)
}

func TestLoadSheetsConnectorConfigRequiresSpreadsheetID(t *testing.T) {
	chdirEmpty(t)
	setDatabaseEnv(t)
	t.Setenv("EF_AGGREGATOR_SHEETS_SERVICE_ACCOUNT_JSON", `{"type":"service_account"}`)

	_, err := LoadSheetsConnectorConfig("", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sheets.spreadsheet_id")
}

func TestLoadConfigFromFile(t *testing.T) {
	dir := chdirEmpty(t)
	setDatabaseEnv(t)

	configPath := filepath.Join(dir, "api.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(`
debug: true
server:
  port: 9090
auth:
  jwt_secret: from-file
`), 0o644))

	cfg, err := LoadAPIConfig(configPath, "")
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
}

func TestDatabaseDSN(t *testing.T) {
	db := DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "postgres",
		Password: "postgres",
		DBName:   "events",
		SSLMode:  "disable",
	}

	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=postgres dbname=events sslmode=disable",
		db.DSN())
}
