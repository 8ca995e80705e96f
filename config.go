package sqlspec

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// ErrConfigValidation is returned when configuration validation fails.
var ErrConfigValidation = errors.New("configuration validation failed")

// Config is the top-level SQLSpec configuration: one or more named database
// connections plus the cache and loader settings read from the same file.
type Config struct {
	Databases map[string]Database `yaml:"databases"`
	Cache     CacheConfig         `yaml:"cache"`
	Loader    LoaderConfig        `yaml:"loader"`
}

// Database describes one named connection target and its pool shape.
type Database struct {
	Driver     string        `yaml:"driver"` // e.g. postgres, mysql, sqlite, duckdb, clickhouse
	DSN        string        `yaml:"dsn"`
	Dialect    string        `yaml:"dialect"`
	MinSize    int           `yaml:"min_size"`
	MaxSize    int           `yaml:"max_size"`
	IdleTTL    time.Duration `yaml:"idle_ttl"`
	AcquireTTL time.Duration `yaml:"acquire_timeout"`
	HealthTTL  time.Duration `yaml:"health_check_interval"`
}

// CacheConfig holds the compiled-statement cache settings read from the
// config file. LoadConfig validates it and fills its defaults, but
// driver.NewPool does not read it: every Pool builds a 512-entry cache.
type CacheConfig struct {
	MaxEntries int  `yaml:"max_entries"`
	Disabled   bool `yaml:"disabled"`
}

// LoaderConfig holds the SQL file loader's directory and extension
// settings read from the config file. sqlfile.Loader does not read it; a
// Loader takes its extensions from sqlfile.Options and each path from Load.
type LoaderConfig struct {
	Directories []string `yaml:"directories"`
	Extensions  []string `yaml:"extensions"`
}

// LoadConfig reads configuration from configPath, loading a .env file from
// the current working directory first, if one exists. A missing configPath yields DefaultConfig rather than
// an error, matching the zero-config-to-start experience of the rest of
// the pipeline.
func LoadConfig(configPath string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := DefaultConfig()
		expandConfigEnvVars(config)

		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config

	if err := yaml.UnmarshalWithOptions(data, &config, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)

	return &config, nil
}

func validateConfig(config *Config) error {
	for name, db := range config.Databases {
		if db.Driver == "" {
			return fmt.Errorf("%w: database '%s': driver is required", ErrConfigValidation, name)
		}

		if db.MinSize < 0 {
			return fmt.Errorf("%w: database '%s': min_size must be non-negative", ErrConfigValidation, name)
		}

		if db.MaxSize < 0 {
			return fmt.Errorf("%w: database '%s': max_size must be non-negative", ErrConfigValidation, name)
		}

		if db.MaxSize > 0 && db.MinSize > db.MaxSize {
			return fmt.Errorf("%w: database '%s': min_size must not exceed max_size", ErrConfigValidation, name)
		}
	}

	if config.Cache.MaxEntries < 0 {
		return fmt.Errorf("%w: cache.max_entries must be non-negative", ErrConfigValidation)
	}

	return nil
}

// DefaultConfig returns the configuration used when no file is present: an
// empty database set, a 512-entry statement cache, and a single "./queries"
// loader directory.
func DefaultConfig() *Config {
	return &Config{
		Databases: make(map[string]Database),
		Cache: CacheConfig{
			MaxEntries: 512,
		},
		Loader: LoaderConfig{
			Directories: []string{"./queries"},
			Extensions:  []string{".sql"},
		},
	}
}

func applyDefaults(config *Config) {
	if config.Databases == nil {
		config.Databases = make(map[string]Database)
	}

	for name, db := range config.Databases {
		if db.MinSize == 0 {
			db.MinSize = 1
		}

		if db.MaxSize == 0 {
			db.MaxSize = 10
		}

		if db.IdleTTL == 0 {
			db.IdleTTL = 5 * time.Minute
		}

		if db.AcquireTTL == 0 {
			db.AcquireTTL = 30 * time.Second
		}

		config.Databases[name] = db
	}

	if config.Cache.MaxEntries == 0 {
		config.Cache.MaxEntries = 512
	}

	if len(config.Loader.Directories) == 0 {
		config.Loader.Directories = []string{"./queries"}
	}

	if len(config.Loader.Extensions) == 0 {
		config.Loader.Extensions = []string{".sql"}
	}
}

func loadEnvFiles() error {
	if fileExists(".env") {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}

	return nil
}

var (
	envBraceRe = regexp.MustCompile(`\$\{([^}]+)\}`)
	envWordRe  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands ${VAR} and $VAR references in s against the
// process environment.
func expandEnvVars(s string) string {
	s = envBraceRe.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})

	s = envWordRe.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})

	return s
}

func expandConfigEnvVars(config *Config) {
	for name, db := range config.Databases {
		db.DSN = expandEnvVars(db.DSN)
		db.Driver = expandEnvVars(db.Driver)
		config.Databases[name] = db
	}

	for i, dir := range config.Loader.Directories {
		config.Loader.Directories[i] = expandEnvVars(dir)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
