package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Catalog   DatabaseConfig
	TenantDB  TenantDBConfig
	Redis     RedisConfig
	Log       LogConfig
	HTTP      HTTPConfig
	Sync      SyncConfig
	Scheduler SchedulerConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// DatabaseConfig holds connection settings for one named database
// (the catalog, the primary, or the satellite)
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// TenantDBConfig holds the pool bounds applied to every lazily created
// per-tenant connection pool, plus the tenant-config cache TTL
type TenantDBConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
	AcquireTimeout  time.Duration
	ConfigCacheTTL  time.Duration
}

// RedisConfig holds Redis connection settings for the L2 config cache
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// SyncConfig holds the satellite sync pipeline configuration
type SyncConfig struct {
	Satellite DatabaseConfig
	// DestinationDocType is the document type pending sales are
	// re-created under in the primary database
	DestinationDocType string
}

// SchedulerConfig holds the periodic sync trigger configuration
type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
}

// Load reads configuration from file and environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("VENDRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Catalog:  databaseSection(v, "catalog"),
		TenantDB: tenantDBSection(v),
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:  v.GetDuration("http.read_timeout"),
			WriteTimeout: v.GetDuration("http.write_timeout"),
			IdleTimeout:  v.GetDuration("http.idle_timeout"),
		},
		Sync: SyncConfig{
			Satellite:          databaseSection(v, "sync.satellite"),
			DestinationDocType: v.GetString("sync.destination_doc_type"),
		},
		Scheduler: SchedulerConfig{
			Enabled:  v.GetBool("scheduler.enabled"),
			Interval: v.GetDuration("scheduler.interval"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// databaseSection reads one database block under the given key prefix
func databaseSection(v *viper.Viper, prefix string) DatabaseConfig {
	return DatabaseConfig{
		Host:            v.GetString(prefix + ".host"),
		Port:            v.GetInt(prefix + ".port"),
		User:            v.GetString(prefix + ".user"),
		Password:        v.GetString(prefix + ".password"),
		DBName:          v.GetString(prefix + ".dbname"),
		SSLMode:         v.GetString(prefix + ".sslmode"),
		MaxOpenConns:    v.GetInt(prefix + ".max_open_conns"),
		MaxIdleConns:    v.GetInt(prefix + ".max_idle_conns"),
		ConnMaxLifetime: v.GetInt(prefix + ".conn_max_lifetime"),
		ConnMaxIdleTime: v.GetInt(prefix + ".conn_max_idle_time"),
	}
}

func tenantDBSection(v *viper.Viper) TenantDBConfig {
	return TenantDBConfig{
		MaxOpenConns:    v.GetInt("tenant_db.max_open_conns"),
		MaxIdleConns:    v.GetInt("tenant_db.max_idle_conns"),
		ConnMaxLifetime: v.GetInt("tenant_db.conn_max_lifetime"),
		ConnMaxIdleTime: v.GetInt("tenant_db.conn_max_idle_time"),
		AcquireTimeout:  v.GetDuration("tenant_db.acquire_timeout"),
		ConfigCacheTTL:  v.GetDuration("tenant_db.config_cache_ttl"),
	}
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "vendra-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}

	applyDatabaseDefaults(&cfg.Catalog)
	applyDatabaseDefaults(&cfg.Sync.Satellite)

	if cfg.TenantDB.MaxOpenConns == 0 {
		cfg.TenantDB.MaxOpenConns = 10
	}
	if cfg.TenantDB.MaxIdleConns == 0 {
		cfg.TenantDB.MaxIdleConns = 2
	}
	if cfg.TenantDB.ConnMaxLifetime == 0 {
		cfg.TenantDB.ConnMaxLifetime = 30
	}
	if cfg.TenantDB.ConnMaxIdleTime == 0 {
		cfg.TenantDB.ConnMaxIdleTime = 10
	}
	if cfg.TenantDB.AcquireTimeout == 0 {
		cfg.TenantDB.AcquireTimeout = 10 * time.Second
	}
	if cfg.TenantDB.ConfigCacheTTL == 0 {
		cfg.TenantDB.ConfigCacheTTL = 5 * time.Minute
	}

	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}

	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 15 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}

	if cfg.Sync.DestinationDocType == "" {
		cfg.Sync.DestinationDocType = "FCB"
	}

	if cfg.Scheduler.Interval == 0 {
		cfg.Scheduler.Interval = 15 * time.Minute
	}
}

// applyDatabaseDefaults fills one database block with defaults
func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Host == "" {
		d.Host = "localhost"
	}
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.User == "" {
		d.User = "postgres"
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
	if d.MaxOpenConns == 0 {
		d.MaxOpenConns = 10
	}
	if d.MaxIdleConns == 0 {
		d.MaxIdleConns = 2
	}
	if d.ConnMaxLifetime == 0 {
		d.ConnMaxLifetime = 30
	}
	if d.ConnMaxIdleTime == 0 {
		d.ConnMaxIdleTime = 10
	}
}

func (c *Config) validate() error {
	if c.Catalog.MaxOpenConns <= 0 {
		return fmt.Errorf("catalog.max_open_conns must be positive")
	}
	if c.Catalog.MaxIdleConns < 0 {
		return fmt.Errorf("catalog.max_idle_conns cannot be negative")
	}
	if c.Catalog.MaxIdleConns > c.Catalog.MaxOpenConns {
		return fmt.Errorf("catalog.max_idle_conns (%d) cannot exceed catalog.max_open_conns (%d)",
			c.Catalog.MaxIdleConns, c.Catalog.MaxOpenConns)
	}
	if c.TenantDB.MaxIdleConns > c.TenantDB.MaxOpenConns {
		return fmt.Errorf("tenant_db.max_idle_conns (%d) cannot exceed tenant_db.max_open_conns (%d)",
			c.TenantDB.MaxIdleConns, c.TenantDB.MaxOpenConns)
	}
	if len(c.Sync.DestinationDocType) > 10 {
		return fmt.Errorf("sync.destination_doc_type must be at most 10 characters")
	}

	if c.App.Env == "production" {
		if c.Catalog.Password == "" {
			return fmt.Errorf("catalog.password is required in production")
		}
		if c.Catalog.SSLMode == "disable" {
			return fmt.Errorf("catalog.sslmode cannot be 'disable' in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}
