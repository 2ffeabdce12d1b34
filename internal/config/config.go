// Package config wires the application's configuration through Viper so the
// archiver can be configured via files, env vars, or CLI flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// InitDefaults registers search paths, defaults, and env binding. Call once
// at startup before Load.
func InitDefaults(v *viper.Viper) {
	v.SetConfigName("webvault")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/webvault/")
	v.AddConfigPath("$HOME/.webvault")

	// Quotas consumed by the governor and walker.
	v.SetDefault("quota.memory_ceiling", int64(8)<<30)
	v.SetDefault("quota.file_size_cap", int64(10)<<20)
	v.SetDefault("quota.file_count_limit", 1_000_000)
	v.SetDefault("quota.disk_floor", int64(0))

	v.SetDefault("paths.restricted", defaultRestrictedPaths())
	v.SetDefault("paths.excluded_dirs", []string{
		".git", "__pycache__", "venv", "node_modules", "dist", "build",
	})
	v.SetDefault("paths.excluded_files", []string{
		".DS_Store", "Thumbs.db", "*.pyc", "*.pyo", "*.pyd", ".env",
	})

	v.SetDefault("fetch.concurrency", 5)
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.retry_attempts", 3)
	v.SetDefault("fetch.user_agent",
		"Mozilla/5.0 (compatible; webvault/1.0; +https://github.com/webvault/webvault)")
	v.SetDefault("fetch.allowed_domains", []string{})

	v.SetDefault("save.dir", "saved_content")
	v.SetDefault("ops.listen", "")
	v.SetDefault("log.development", true)
	v.SetDefault("log.level", "info")

	v.SetEnvPrefix("WEBVAULT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Quota bounds resource consumption; consumed by the governor and walker.
type Quota struct {
	MemoryCeiling  uint64
	FileSizeCap    int64
	FileCountLimit int
	DiskFloor      uint64
}

// Config captures every knob that influences a capture run.
type Config struct {
	Quota          Quota
	RestrictedPath []string
	ExcludedDirs   []string
	ExcludedFiles  []string

	FetchConcurrency int
	FetchTimeout     time.Duration
	RetryAttempts    int
	UserAgent        string
	AllowedDomains   []string

	SaveDir        string
	OpsListen      string
	LogDevelopment bool
	LogLevel       string
}

// Load constructs a Config from Viper and validates it.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Quota: Quota{
			MemoryCeiling:  v.GetUint64("quota.memory_ceiling"),
			FileSizeCap:    v.GetInt64("quota.file_size_cap"),
			FileCountLimit: v.GetInt("quota.file_count_limit"),
			DiskFloor:      v.GetUint64("quota.disk_floor"),
		},
		RestrictedPath:   v.GetStringSlice("paths.restricted"),
		ExcludedDirs:     v.GetStringSlice("paths.excluded_dirs"),
		ExcludedFiles:    v.GetStringSlice("paths.excluded_files"),
		FetchConcurrency: v.GetInt("fetch.concurrency"),
		FetchTimeout:     v.GetDuration("fetch.timeout"),
		RetryAttempts:    v.GetInt("fetch.retry_attempts"),
		UserAgent:        v.GetString("fetch.user_agent"),
		AllowedDomains:   v.GetStringSlice("fetch.allowed_domains"),
		SaveDir:          v.GetString("save.dir"),
		OpsListen:        v.GetString("ops.listen"),
		LogDevelopment:   v.GetBool("log.development"),
		LogLevel:         v.GetString("log.level"),
	}
	return cfg, cfg.Validate()
}

// Validate checks for obviously bad configuration combinations.
func (c Config) Validate() error {
	if c.Quota.MemoryCeiling == 0 {
		return fmt.Errorf("quota.memory_ceiling must be > 0")
	}
	if c.Quota.FileSizeCap <= 0 {
		return fmt.Errorf("quota.file_size_cap must be > 0")
	}
	if c.Quota.FileCountLimit <= 0 {
		return fmt.Errorf("quota.file_count_limit must be > 0")
	}
	if c.FetchConcurrency <= 0 {
		return fmt.Errorf("fetch.concurrency must be > 0")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch.timeout must be > 0")
	}
	if c.RetryAttempts <= 0 {
		return fmt.Errorf("fetch.retry_attempts must be > 0")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("fetch.user_agent must be set")
	}
	if c.SaveDir == "" {
		return fmt.Errorf("save.dir must be set")
	}
	return nil
}

// ReadFile attempts to read an optional config file. A missing file is not
// an error; anything else is.
func ReadFile(v *viper.Viper) (string, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("read config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}
