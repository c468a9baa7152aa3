// Package config provides functionality for managing configuration options
// for the application using command-line flags, an optional JSON config
// file and environment variables.
package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Options holds the configuration values for the application.
type Options struct {
	// Addr defines the server's listening address (ip:port).
	Addr string `json:"address"`

	// DatabaseDriver selects the storage backend: "postgres" or "sqlite".
	DatabaseDriver string `json:"database_driver"`

	// DatabaseDSN holds the database connection string, or the file path
	// of the SQLite database.
	DatabaseDSN string `json:"database_dsn"`

	// FlushInterval is how often the SQLite WAL is checkpointed.
	FlushInterval time.Duration `json:"-"`

	// RedisAddress enables the snapshot cache when set.
	RedisAddress string `json:"redis_address"`

	// SnapshotCacheTTL bounds how long archived snapshots stay cached.
	SnapshotCacheTTL time.Duration `json:"-"`

	// OwnerSecret signs designer bearer tokens.
	OwnerSecret string `json:"owner_secret"`

	// LogLevel is the zap level name.
	LogLevel string `json:"log_level"`

	// TLSCert and TLSKey switch the server to HTTPS when both are set.
	TLSCert string `json:"tls_cert"`
	TLSKey  string `json:"tls_key"`

	// CORSOrigins lists the browser origins allowed to call the API.
	CORSOrigins []string `json:"cors_origins"`

	// Config is the path to the config file.
	Config string `json:"-"`
}

// fileDurations carries the duration settings of the config file, which
// are written as Go duration strings ("30s", "24h").
type fileDurations struct {
	FlushInterval    string `json:"flush_interval"`
	SnapshotCacheTTL string `json:"snapshot_cache_ttl"`
}

// Parse loads .env if present, then parses the command-line flags, the
// config file and environment variables, in that order of precedence from
// lowest to highest.
func Parse() (*Options, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return parse(flag.CommandLine, os.Args[1:], os.LookupEnv)
}

func parse(fs *flag.FlagSet, args []string, lookup func(string) (string, bool)) (*Options, error) {
	options := &Options{}
	var origins string

	fs.StringVar(&options.Addr, "a", "localhost:8080", "run on ip:port server")
	fs.StringVar(&options.DatabaseDriver, "driver", "sqlite", "database driver: postgres or sqlite")
	fs.StringVar(&options.DatabaseDSN, "d", "mockshare.db", "db address or sqlite file")
	fs.DurationVar(&options.FlushInterval, "flush", 30*time.Second, "sqlite wal checkpoint interval")
	fs.StringVar(&options.RedisAddress, "redis", "", "redis address for the snapshot cache")
	fs.DurationVar(&options.SnapshotCacheTTL, "cache-ttl", 24*time.Hour, "snapshot cache ttl")
	fs.StringVar(&options.OwnerSecret, "owner-secret", "", "secret signing designer tokens")
	fs.StringVar(&options.LogLevel, "l", "info", "log level")
	fs.StringVar(&options.TLSCert, "cert", "", "tls certificate file")
	fs.StringVar(&options.TLSKey, "key", "", "tls key file")
	fs.StringVar(&origins, "cors", "", "comma separated allowed origins")
	fs.StringVar(&options.Config, "config", "config.json", "path to config file")
	fs.StringVar(&options.Config, "c", "config.json", "path to config file (shorthand)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	options.CORSOrigins = splitList(origins)

	// Override flags with environment variables if set
	if configPath, ok := lookup("CONFIG"); ok && configPath != "" {
		options.Config = configPath
	}

	if options.Config != "" {
		if err := loadFile(options.Config, options); err != nil {
			return nil, err
		}
	}

	if v, ok := lookup("SERVER_ADDRESS"); ok && v != "" {
		options.Addr = v
	}
	if v, ok := lookup("DATABASE_DRIVER"); ok && v != "" {
		options.DatabaseDriver = v
	}
	if v, ok := lookup("DATABASE_DSN"); ok && v != "" {
		options.DatabaseDSN = v
	}
	if v, ok := lookup("FLUSH_INTERVAL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("FLUSH_INTERVAL: %w", err)
		}
		options.FlushInterval = d
	}
	if v, ok := lookup("REDIS_ADDRESS"); ok && v != "" {
		options.RedisAddress = v
	}
	if v, ok := lookup("SNAPSHOT_CACHE_TTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("SNAPSHOT_CACHE_TTL: %w", err)
		}
		options.SnapshotCacheTTL = d
	}
	if v, ok := lookup("OWNER_SECRET"); ok && v != "" {
		options.OwnerSecret = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		options.LogLevel = v
	}
	if v, ok := lookup("TLS_CERT"); ok && v != "" {
		options.TLSCert = v
	}
	if v, ok := lookup("TLS_KEY"); ok && v != "" {
		options.TLSKey = v
	}
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		options.CORSOrigins = splitList(v)
	}

	return options, nil
}

// loadFile applies the JSON config file at path. A missing file is ignored.
func loadFile(path string, options *Options) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error while reading config file: %w", err)
	}
	if err := json.Unmarshal(data, options); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}

	var durations fileDurations
	if err := json.Unmarshal(data, &durations); err != nil {
		return fmt.Errorf("error while parsing config file: %w", err)
	}
	if durations.FlushInterval != "" {
		if options.FlushInterval, err = time.ParseDuration(durations.FlushInterval); err != nil {
			return fmt.Errorf("flush_interval: %w", err)
		}
	}
	if durations.SnapshotCacheTTL != "" {
		if options.SnapshotCacheTTL, err = time.ParseDuration(durations.SnapshotCacheTTL); err != nil {
			return fmt.Errorf("snapshot_cache_ttl: %w", err)
		}
	}
	return nil
}

// UseTLS reports whether both halves of the server key pair are configured.
func (o *Options) UseTLS() bool {
	return o.TLSCert != "" && o.TLSKey != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
