package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Log        LogConfig
	Event      EventConfig
	Resolution ResolutionConfig
	Platform   PlatformConfig
	HTTP       HTTPConfig
	Telemetry  TelemetryConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
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

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// EventConfig holds outbox worker configuration
type EventConfig struct {
	WorkerEnabled    bool
	BatchSize        int
	PollInterval     time.Duration
	CleanupEnabled   bool
	CleanupRetention time.Duration
	IdempotencyTTL   time.Duration
}

// ResolutionConfig holds identity resolution retry settings
type ResolutionConfig struct {
	MaxAttempts int
	BaseBackoff time.Duration
}

// PlatformConfig holds storefront admin API settings
type PlatformConfig struct {
	APIBaseURL     string
	AccessToken    string
	TimeoutSeconds int
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout      time.Duration
	WriteTimeout     time.Duration
	IdleTimeout      time.Duration
	MaxHeaderBytes   int
	MaxBodySize      int64
	CORSAllowOrigins []string
	CORSAllowMethods []string
	CORSAllowHeaders []string
	TrustedProxies   []string
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool
	CollectorEndpoint string // OTLP collector, host:port
	ServiceName       string
	Insecure          bool // non-TLS collector connection, development only
	ExportInterval    time.Duration
}

// Load reads configuration in priority order: SUPPORTDESK_-prefixed
// environment variables override config.toml, which overrides built-in
// defaults. A missing config file is not an error.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix("SUPPORTDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App:        readApp(v),
		Database:   readDatabase(v),
		Redis:      readRedis(v),
		Log:        readLog(v),
		Event:      readEvent(v),
		Resolution: readResolution(v),
		Platform:   readPlatform(v),
		HTTP:       readHTTP(v),
		Telemetry:  readTelemetry(v),
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readApp(v *viper.Viper) AppConfig {
	return AppConfig{
		Name: v.GetString("app.name"),
		Env:  v.GetString("app.env"),
		Port: v.GetString("app.port"),
	}
}

func readDatabase(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{
		Host:            v.GetString("database.host"),
		Port:            v.GetInt("database.port"),
		User:            v.GetString("database.user"),
		Password:        v.GetString("database.password"),
		DBName:          v.GetString("database.dbname"),
		SSLMode:         v.GetString("database.sslmode"),
		MaxOpenConns:    v.GetInt("database.max_open_conns"),
		MaxIdleConns:    v.GetInt("database.max_idle_conns"),
		ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
		ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
	}
}

func readRedis(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Host:     v.GetString("redis.host"),
		Port:     v.GetInt("redis.port"),
		Password: v.GetString("redis.password"),
		DB:       v.GetInt("redis.db"),
	}
}

func readLog(v *viper.Viper) LogConfig {
	return LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
		Output: v.GetString("log.output"),
	}
}

func readEvent(v *viper.Viper) EventConfig {
	return EventConfig{
		WorkerEnabled:    v.GetBool("event.worker_enabled"),
		BatchSize:        v.GetInt("event.batch_size"),
		PollInterval:     v.GetDuration("event.poll_interval"),
		CleanupEnabled:   v.GetBool("event.cleanup_enabled"),
		CleanupRetention: v.GetDuration("event.cleanup_retention"),
		IdempotencyTTL:   v.GetDuration("event.idempotency_ttl"),
	}
}

func readResolution(v *viper.Viper) ResolutionConfig {
	return ResolutionConfig{
		MaxAttempts: v.GetInt("resolution.max_attempts"),
		BaseBackoff: v.GetDuration("resolution.base_backoff"),
	}
}

func readPlatform(v *viper.Viper) PlatformConfig {
	return PlatformConfig{
		APIBaseURL:     v.GetString("platform.api_base_url"),
		AccessToken:    v.GetString("platform.access_token"),
		TimeoutSeconds: v.GetInt("platform.timeout_seconds"),
	}
}

func readHTTP(v *viper.Viper) HTTPConfig {
	return HTTPConfig{
		ReadTimeout:      v.GetDuration("http.read_timeout"),
		WriteTimeout:     v.GetDuration("http.write_timeout"),
		IdleTimeout:      v.GetDuration("http.idle_timeout"),
		MaxHeaderBytes:   v.GetInt("http.max_header_bytes"),
		MaxBodySize:      v.GetInt64("http.max_body_size"),
		CORSAllowOrigins: v.GetStringSlice("http.cors_allow_origins"),
		CORSAllowMethods: v.GetStringSlice("http.cors_allow_methods"),
		CORSAllowHeaders: v.GetStringSlice("http.cors_allow_headers"),
		TrustedProxies:   v.GetStringSlice("http.trusted_proxies"),
	}
}

func readTelemetry(v *viper.Viper) TelemetryConfig {
	return TelemetryConfig{
		Enabled:           v.GetBool("telemetry.enabled"),
		CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
		ServiceName:       v.GetString("telemetry.service_name"),
		Insecure:          v.GetBool("telemetry.insecure"),
		ExportInterval:    v.GetDuration("telemetry.export_interval"),
	}
}

func fallbackStr(target *string, def string) {
	if *target == "" {
		*target = def
	}
}

func fallbackInt(target *int, def int) {
	if *target == 0 {
		*target = def
	}
}

func fallbackInt64(target *int64, def int64) {
	if *target == 0 {
		*target = def
	}
}

func fallbackDur(target *time.Duration, def time.Duration) {
	if *target == 0 {
		*target = def
	}
}

// applyDefaults fills every unset field. Zero counts as unset for
// numeric fields, so an explicit zero gets the default too.
func (c *Config) applyDefaults() {
	fallbackStr(&c.App.Name, "supportdesk-backend")
	fallbackStr(&c.App.Env, "development")
	fallbackStr(&c.App.Port, "8080")

	fallbackStr(&c.Database.Host, "localhost")
	fallbackInt(&c.Database.Port, 5432)
	fallbackStr(&c.Database.User, "postgres")
	fallbackStr(&c.Database.DBName, "supportdesk")
	fallbackStr(&c.Database.SSLMode, "disable")
	fallbackInt(&c.Database.MaxOpenConns, 25)
	fallbackInt(&c.Database.MaxIdleConns, 5)
	fallbackInt(&c.Database.ConnMaxLifetime, 60)
	fallbackInt(&c.Database.ConnMaxIdleTime, 30)

	fallbackStr(&c.Redis.Host, "localhost")
	fallbackInt(&c.Redis.Port, 6379)

	fallbackStr(&c.Log.Level, "info")
	fallbackStr(&c.Log.Format, "console")
	fallbackStr(&c.Log.Output, "stdout")

	fallbackInt(&c.Event.BatchSize, 100)
	fallbackDur(&c.Event.PollInterval, 5*time.Second)
	fallbackDur(&c.Event.CleanupRetention, 168*time.Hour)
	fallbackDur(&c.Event.IdempotencyTTL, 24*time.Hour)

	fallbackInt(&c.Resolution.MaxAttempts, 3)
	fallbackDur(&c.Resolution.BaseBackoff, 100*time.Millisecond)

	fallbackInt(&c.Platform.TimeoutSeconds, 10)

	fallbackDur(&c.HTTP.ReadTimeout, 15*time.Second)
	fallbackDur(&c.HTTP.WriteTimeout, 15*time.Second)
	fallbackDur(&c.HTTP.IdleTimeout, 60*time.Second)
	fallbackInt(&c.HTTP.MaxHeaderBytes, 1<<20)
	fallbackInt64(&c.HTTP.MaxBodySize, 10<<20)
	// CORS origins deliberately have no fallback: an empty list rejects
	// cross-origin requests until origins are configured.
	if len(c.HTTP.CORSAllowMethods) == 0 {
		c.HTTP.CORSAllowMethods = []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"}
	}
	if len(c.HTTP.CORSAllowHeaders) == 0 {
		c.HTTP.CORSAllowHeaders = []string{"Content-Type", "Authorization", "X-Request-ID"}
	}

	fallbackStr(&c.Telemetry.CollectorEndpoint, "localhost:4317")
	fallbackStr(&c.Telemetry.ServiceName, "supportdesk-backend")
	fallbackDur(&c.Telemetry.ExportInterval, 30*time.Second)
}

func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Resolution.MaxAttempts <= 0 {
		return fmt.Errorf("resolution.max_attempts must be positive")
	}

	if c.App.Env == "production" {
		return c.validateProduction()
	}
	return nil
}

// validateProduction rejects settings that are acceptable in
// development but unsafe with real traffic.
func (c *Config) validateProduction() error {
	if c.Database.Password == "" {
		return fmt.Errorf("database.password is required in production")
	}
	if c.Database.SSLMode == "disable" {
		return fmt.Errorf("database.sslmode cannot be 'disable' in production")
	}
	if c.Platform.APIBaseURL == "" {
		return fmt.Errorf("platform.api_base_url is required in production")
	}
	if c.Platform.AccessToken == "" {
		return fmt.Errorf("platform.access_token is required in production")
	}
	for _, origin := range c.HTTP.CORSAllowOrigins {
		if origin == "*" {
			return fmt.Errorf("cors_allow_origins cannot be '*' in production (use specific origins)")
		}
	}
	return nil
}

// DSN returns the postgres connection URL with escaped credentials.
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
