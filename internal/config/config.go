// Package config reads fishlog settings from FISHLOG_* environment variables
// and an optional config file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. FISHLOG_STORAGE_DRIVER.
const EnvPrefix = "FISHLOG"

type (
	// Config is the complete application configuration.
	Config struct {
		Storage
		S3
		Remote
		Log
		Metrics
	}

	// Storage selects the document backend and its location.
	Storage struct {
		Driver      string // local|remote|sqlite|postgres|memory
		DataDir     string
		SQLitePath  string
		PostgresDSN string
	}
	// S3 configures the object store behind the remote backend.
	S3 struct {
		BlobDriver string // s3|memory
		Bucket     string
		Region     string
		Endpoint   string
		PathStyle  bool
		Prefix     string // application container
		AccessKey  string
		SecretKey  string
	}
	// Remote tunes the asynchronous backend: pipe size in chunks and the
	// per-worker wait at shutdown.
	Remote struct {
		PipeCapacity int
		DrainTimeout time.Duration
	}
	// Log sets the minimum log level.
	Log struct {
		Level string
	}
	// Metrics holds the listen address of the /metrics endpoint; empty disables it.
	Metrics struct {
		Addr string
	}
)

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	v.SetDefault("storage_driver", "local")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("sqlite_path", "./data/fishlog.db")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("blob_driver", "s3")
	v.SetDefault("s3_bucket", "")
	v.SetDefault("s3_region", "us-east-1")
	v.SetDefault("s3_endpoint", "")
	v.SetDefault("s3_path_style", false)
	v.SetDefault("s3_prefix", "fishlog")
	v.SetDefault("s3_access_key", "")
	v.SetDefault("s3_secret_key", "")
	v.SetDefault("remote_pipe_capacity", 16)
	v.SetDefault("remote_drain_timeout", "30s")
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_addr", "")
	return v
}

// Load resolves the configuration. When FISHLOG_CONFIG names a file it is read
// first; environment variables override file values.
func Load() (*Config, error) {
	v := newViper()
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Storage: Storage{
			Driver:      strings.ToLower(v.GetString("storage_driver")),
			DataDir:     v.GetString("data_dir"),
			SQLitePath:  v.GetString("sqlite_path"),
			PostgresDSN: v.GetString("postgres_dsn"),
		},
		S3: S3{
			BlobDriver: strings.ToLower(v.GetString("blob_driver")),
			Bucket:     v.GetString("s3_bucket"),
			Region:     v.GetString("s3_region"),
			Endpoint:   v.GetString("s3_endpoint"),
			PathStyle:  v.GetBool("s3_path_style"),
			Prefix:     v.GetString("s3_prefix"),
			AccessKey:  v.GetString("s3_access_key"),
			SecretKey:  v.GetString("s3_secret_key"),
		},
		Remote: Remote{
			PipeCapacity: v.GetInt("remote_pipe_capacity"),
			DrainTimeout: v.GetDuration("remote_drain_timeout"),
		},
		Log:     Log{Level: v.GetString("log_level")},
		Metrics: Metrics{Addr: v.GetString("metrics_addr")},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values no backend can work with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "local", "remote", "sqlite", "postgres", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if c.Storage.Driver == "remote" {
		switch c.S3.BlobDriver {
		case "s3":
			if c.S3.Bucket == "" {
				return fmt.Errorf("s3_bucket required for remote storage")
			}
		case "memory":
		default:
			return fmt.Errorf("unknown blob driver %q", c.S3.BlobDriver)
		}
	}
	if c.Remote.PipeCapacity < 1 {
		return fmt.Errorf("remote_pipe_capacity must be positive, got %d", c.Remote.PipeCapacity)
	}
	if c.Remote.DrainTimeout <= 0 {
		return fmt.Errorf("remote_drain_timeout must be positive, got %s", c.Remote.DrainTimeout)
	}
	return nil
}
