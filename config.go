package receptradar

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/hyperengineering/receptradar/internal/store"
)

// Config configures the receptradar client.
type Config struct {
	// DataDir holds the database, backups and generated images.
	// Defaults to ~/.receptradar.
	DataDir string `mapstructure:"data_dir"`

	// DBPath is the path to the local SQLite database.
	// Defaults to DataDir/receptradar.db.
	DBPath string `mapstructure:"db_path"`

	// Debug lowers the console log level to debug.
	Debug bool `mapstructure:"-"`

	// LogPath adds a JSON log file when set.
	LogPath string `mapstructure:"log"`

	// Azure configures the recipe generation provider. Generation is
	// unavailable unless endpoint, key and chat deployment are all set.
	Azure AzureConfig `mapstructure:"azure"`
}

// AzureConfig configures the Azure OpenAI recipe generator.
type AzureConfig struct {
	Endpoint        string        `mapstructure:"endpoint"`
	APIKey          string        `mapstructure:"api_key"`
	ChatDeployment  string        `mapstructure:"chat_deployment"`
	ImageDeployment string        `mapstructure:"image_deployment"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// DefaultProviderTimeout bounds a single provider call.
const DefaultProviderTimeout = 120 * time.Second

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	dataDir := store.DefaultDataDir()
	return Config{
		DataDir: dataDir,
		DBPath:  store.DBPath(dataDir),
		Azure:   AzureConfig{Timeout: DefaultProviderTimeout},
	}
}

// LoadDotEnv loads environment files into the process environment without
// overriding variables that are already set. Missing files are skipped.
// With no paths, ".env" in the working directory is tried.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// ConfigFromEnv reads configuration from environment variables.
//
//	RECEPTRADAR_DATA_DIR            → DataDir
//	RECEPTRADAR_DB_PATH             → DBPath
//	RECEPTRADAR_DEBUG               → Debug (any non-empty value except "0"/"false" enables)
//	RECEPTRADAR_LOG                 → LogPath
//	AZURE_OPENAI_ENDPOINT           → Azure.Endpoint
//	AZURE_OPENAI_API_KEY            → Azure.APIKey
//	AZURE_OPENAI_CHAT_DEPLOYMENT    → Azure.ChatDeployment
//	AZURE_OPENAI_IMAGE_DEPLOYMENT   → Azure.ImageDeployment
//	AZURE_OPENAI_TIMEOUT            → Azure.Timeout (Go duration)
func ConfigFromEnv() (Config, error) {
	v := viper.New()
	bindings := map[string]string{
		"data_dir":               "RECEPTRADAR_DATA_DIR",
		"db_path":                "RECEPTRADAR_DB_PATH",
		"debug":                  "RECEPTRADAR_DEBUG",
		"log":                    "RECEPTRADAR_LOG",
		"azure.endpoint":         "AZURE_OPENAI_ENDPOINT",
		"azure.api_key":          "AZURE_OPENAI_API_KEY",
		"azure.chat_deployment":  "AZURE_OPENAI_CHAT_DEPLOYMENT",
		"azure.image_deployment": "AZURE_OPENAI_IMAGE_DEPLOYMENT",
		"azure.timeout":          "AZURE_OPENAI_TIMEOUT",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("config: bind %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(v.GetString("debug"))) {
	case "", "0", "false":
	default:
		cfg.Debug = true
	}
	return cfg, nil
}

// Validate checks the configuration for errors.
// Returns *ValidationError for invalid fields.
func (c *Config) Validate() error {
	if c.DBPath == "" {
		return &ValidationError{Field: "DBPath", Message: "required: path to SQLite database"}
	}

	if c.Azure.Endpoint != "" {
		u, err := url.Parse(c.Azure.Endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return &ValidationError{Field: "Azure.Endpoint", Message: "must be an http(s) URL"}
		}
		if c.Azure.APIKey == "" {
			return &ValidationError{Field: "Azure.APIKey", Message: "required when Azure.Endpoint is set"}
		}
	}

	if c.Azure.Timeout < 0 {
		return &ValidationError{Field: "Azure.Timeout", Message: "must be non-negative"}
	}

	return nil
}

// ProviderConfigured reports whether recipe generation can be enabled.
func (c *Config) ProviderConfigured() bool {
	return c.Azure.Endpoint != "" && c.Azure.APIKey != "" && c.Azure.ChatDeployment != ""
}

// ImageDir returns the directory for generated recipe images.
func (c *Config) ImageDir() string {
	return store.ImageDir(c.DataDir)
}

// BackupDir returns the directory for database backups.
func (c *Config) BackupDir() string {
	return store.BackupDir(c.DataDir)
}

// WithDefaults fills in default values for unset fields.
// DataDir defaults to ~/.receptradar; DBPath is derived from DataDir.
func (c Config) WithDefaults() Config {
	if c.DataDir == "" {
		if c.DBPath != "" {
			c.DataDir = filepath.Dir(c.DBPath)
		} else {
			c.DataDir = store.DefaultDataDir()
		}
	}
	if c.DBPath == "" {
		c.DBPath = store.DBPath(c.DataDir)
	}
	if c.Azure.Timeout == 0 {
		c.Azure.Timeout = DefaultProviderTimeout
	}
	c.Azure.Endpoint = strings.TrimRight(strings.TrimSpace(c.Azure.Endpoint), "/")
	return c
}
