package app

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/t569/scanapi/internal/registry"
	"github.com/t569/scanapi/internal/store"
	"github.com/t569/scanapi/pkg/artifact"
	"github.com/t569/scanapi/pkg/credential"
	"github.com/t569/scanapi/pkg/errors"
)

// Config holds the application configuration loaded from various sources
// including config files, environment variables, and .env files.
type Config struct {
	// Global flags
	Verbose bool
	Quiet   bool
	NoColor bool
	Format  string

	// Config file
	ConfigFile string

	// Store configuration
	StoreDriver  string
	DatabasePath string
	MaxOpenConns int

	// Credential and artifact configuration
	BcryptCost      int
	QRModuleSize    int
	QRMargin        int
	QRRecoveryLevel string
	QRMaxVersion    int

	// Registry policies
	DuplicatePolicy string
	UpdatePolicy    string

	// Logging configuration
	LogLevel  string
	LogFormat string
	LogOutput string
}

// Default values for keys that are not set anywhere.
const (
	DefaultDatabasePath = "scanapi.db"
	DefaultMaxOpenConns = 4
)

// LoadConfig loads configuration from all sources in order of precedence:
// 1. Command-line flags (handled by cobra)
// 2. Environment variables
// 3. .env files
// 4. Config file (~/.scanapi.yaml or ./.scanapi.yaml)
// 5. Defaults
func LoadConfig() (*Config, error) {
	return LoadConfigFile("")
}

// LoadConfigFile is LoadConfig with an explicit config file, as given by
// --config. An empty path falls back to CONFIG and the search paths.
func LoadConfigFile(path string) (*Config, error) {
	// .env files must be loaded before viper binds the environment
	loadEnvFiles()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	setDefaults(v)

	configFile := path
	if configFile == "" {
		configFile = v.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(".scanapi")
	}

	if err := v.ReadInConfig(); err != nil {
		// the search paths are optional, an explicit file is not
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.NewConfigError("config", "reading "+configFile, err)
		}
	}

	return &Config{
		Verbose: v.GetBool("verbose"),
		Quiet:   v.GetBool("quiet"),
		NoColor: v.GetBool("no-color"),
		Format:  v.GetString("format"),

		ConfigFile: v.ConfigFileUsed(),

		StoreDriver:  v.GetString("store_driver"),
		DatabasePath: v.GetString("database_path"),
		MaxOpenConns: v.GetInt("max_open_conns"),

		BcryptCost:      v.GetInt("bcrypt_cost"),
		QRModuleSize:    v.GetInt("qr_module_size"),
		QRMargin:        v.GetInt("qr_margin"),
		QRRecoveryLevel: v.GetString("qr_recovery_level"),
		QRMaxVersion:    v.GetInt("qr_max_version"),

		DuplicatePolicy: v.GetString("duplicate_policy"),
		UpdatePolicy:    v.GetString("update_policy"),

		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
		LogOutput: v.GetString("log_output"),
	}, nil
}

func setDefaults(v *viper.Viper) {
	qr := artifact.DefaultOptions()

	v.SetDefault("store_driver", store.DriverSQLite)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("max_open_conns", DefaultMaxOpenConns)
	v.SetDefault("bcrypt_cost", credential.DefaultCost)
	v.SetDefault("qr_module_size", qr.ModuleSize)
	v.SetDefault("qr_margin", qr.Margin)
	v.SetDefault("qr_recovery_level", qr.RecoveryLevel)
	v.SetDefault("qr_max_version", qr.MaxVersion)
	v.SetDefault("duplicate_policy", string(registry.DuplicateIgnore))
	v.SetDefault("update_policy", string(registry.UpdateDiscard))
	v.SetDefault("log_format", "auto")
	v.SetDefault("log_output", "stderr")
}

// UpdateFromFlags updates config values from parsed command flags.
// This should be called after cobra parses flags to ensure flag
// values take precedence over config file and env vars.
func (c *Config) UpdateFromFlags(verbose, quiet, noColor bool, format, logLevel string) {
	c.Verbose = c.Verbose || verbose
	c.Quiet = c.Quiet || quiet
	c.NoColor = c.NoColor || noColor
	if format != "" {
		c.Format = format
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
}

// StoreOptions returns the store options selected by the configuration.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Driver:       c.StoreDriver,
		Path:         c.DatabasePath,
		MaxOpenConns: c.MaxOpenConns,
	}
}

// ArtifactOptions returns the QR encoder options selected by the configuration.
func (c *Config) ArtifactOptions() artifact.Options {
	return artifact.Options{
		ModuleSize:    c.QRModuleSize,
		Margin:        c.QRMargin,
		RecoveryLevel: c.QRRecoveryLevel,
		MaxVersion:    c.QRMaxVersion,
	}
}

// loadEnvFiles loads environment variables from .env files.
// Variables already set in the environment win over both files.
func loadEnvFiles() {
	for _, envFile := range []string{".env.local", ".env"} {
		_ = godotenv.Load(envFile)
	}
}
