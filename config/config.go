package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type ACLConfig struct {
	// Cron expression used by the schedule command, e.g. "@hourly" or "*/15 * * * *".
	SyncSchedule string `mapstructure:"sync_schedule"`
	// Scheduled runs overwrite persisted permissions instead of only granting missing ones.
	ScheduledFullSync bool `mapstructure:"scheduled_full_sync"`
}

type SeedConfig struct {
	AdminUsername string `mapstructure:"admin_username"`
	AdminPassword string `mapstructure:"admin_password"`
	AdminEmail    string `mapstructure:"admin_email"`
	SkipAdmin     bool   `mapstructure:"skip_admin"`
}

type Config struct {
	HTTPPort    int    `mapstructure:"http_port"`
	LogLevel    string `mapstructure:"log_level"`
	LogFile     string `mapstructure:"log_file"`
	ServiceName string `mapstructure:"service_name"`

	DatabaseDriver string `mapstructure:"database_driver"` // mysql, postgres or sqlite
	DatabaseURL    string `mapstructure:"database_url"`

	JwtSecret           string        `mapstructure:"jwt_secret"`
	PermissionCacheSize int           `mapstructure:"permission_cache_size"`
	PermissionCacheTTL  time.Duration `mapstructure:"permission_cache_ttl"` // bounds staleness after syncs run in other processes

	ACL  ACLConfig  `mapstructure:"acl"`
	Seed SeedConfig `mapstructure:"seed"`
}

// SetDefaults registers the default value of every known key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("http_port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("service_name", "acl-center")
	v.SetDefault("database_driver", "mysql")
	v.SetDefault("database_url", "root:root@tcp(127.0.0.1:3306)/acl_center?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("jwt_secret", "default-very-insecure-secret-key") // CHANGE THIS IN PRODUCTION
	v.SetDefault("permission_cache_size", 1024)
	v.SetDefault("permission_cache_ttl", time.Minute)
	v.SetDefault("acl.sync_schedule", "@hourly")
	v.SetDefault("acl.scheduled_full_sync", false)
	v.SetDefault("seed.admin_username", "admin")
	v.SetDefault("seed.admin_password", "adminpassword")
	v.SetDefault("seed.admin_email", "admin@example.com")
	v.SetDefault("seed.skip_admin", false)
}

// Load reads configuration into a Config. cfgFile overrides the default
// lookup of config.yaml in "." and "./config".
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variable overrides, e.g. ACLCENTER_ACL_SYNC_SCHEDULE
	v.SetEnvPrefix("ACLCENTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.DatabaseDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported database_driver %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return errors.New("database_url is required")
	}
	if c.PermissionCacheSize <= 0 {
		return fmt.Errorf("permission_cache_size must be positive, got %d", c.PermissionCacheSize)
	}
	if c.PermissionCacheTTL <= 0 {
		return fmt.Errorf("permission_cache_ttl must be positive, got %s", c.PermissionCacheTTL)
	}
	return nil
}
