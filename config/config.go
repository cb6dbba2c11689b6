// =============================================================================
// ⚙️ Memoria Configuration Model
// =============================================================================
// Typed configuration tree with defaults and validation
// =============================================================================
package config

import (
	"fmt"
	"strings"
	"time"
)

// ===== 🌳 Configuration tree =====

// Config is the full daemon configuration.
type Config struct {
	// Server configures the HTTP API surface.
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Database configures the relational index.
	Database DatabaseConfig `yaml:"database" env:"DATABASE"`

	// Documents configures the JSON document store.
	Documents DocumentsConfig `yaml:"documents" env:"DOCUMENTS"`

	// Cache configures the optional Redis read-through layer.
	Cache CacheConfig `yaml:"cache" env:"CACHE"`

	// Session configures conversation history handling.
	Session SessionConfig `yaml:"session" env:"SESSION"`

	// Auth configures JWT verification on the API.
	Auth AuthConfig `yaml:"auth" env:"AUTH"`

	// Log configures the zap logger.
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry configures OpenTelemetry export.
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host" env:"HOST"`

	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`

	// MetricsPort serves /metrics separately from the API. Zero disables it.
	MetricsPort int `yaml:"metrics_port" env:"METRICS_PORT"`

	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`

	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`

	// RateLimitRPS caps requests per second per client. Zero disables limiting.
	RateLimitRPS   float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	RateLimitBurst int     `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`

	// CORSOrigins lists allowed origins. Empty means same-origin only.
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS"`

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string `yaml:"tls_cert_file" env:"TLS_CERT_FILE"`
	TLSKeyFile  string `yaml:"tls_key_file" env:"TLS_KEY_FILE"`
}

// DatabaseConfig holds relational database settings. For sqlite the Name
// field carries the database file path.
type DatabaseConfig struct {
	// Driver is sqlite, postgres or mysql.
	Driver string `yaml:"driver" env:"DRIVER"`

	Host     string `yaml:"host" env:"HOST"`
	Port     int    `yaml:"port" env:"PORT"`
	User     string `yaml:"user" env:"USER"`
	Password string `yaml:"password" env:"PASSWORD"`
	Name     string `yaml:"name" env:"NAME"`
	SSLMode  string `yaml:"ssl_mode" env:"SSL_MODE"`

	MaxOpenConns    int           `yaml:"max_open_conns" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env:"MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env:"CONN_MAX_LIFETIME"`

	// SkipAutoMigrate leaves schema management to `memoriad migrate`.
	SkipAutoMigrate bool `yaml:"skip_auto_migrate" env:"SKIP_AUTO_MIGRATE"`
}

// DocumentsConfig holds document store settings.
type DocumentsConfig struct {
	// Dir is the root directory for JSON profile documents.
	Dir string `yaml:"dir" env:"DIR"`

	// BackupDir is the default target for backup snapshots.
	BackupDir string `yaml:"backup_dir" env:"BACKUP_DIR"`
}

// CacheConfig holds Redis settings for the cached document store.
type CacheConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	Addr     string `yaml:"addr" env:"ADDR"`
	Password string `yaml:"password" env:"PASSWORD"`
	DB       int    `yaml:"db" env:"DB"`

	// Prefix namespaces keys on shared Redis deployments.
	Prefix string `yaml:"prefix" env:"PREFIX"`

	TTL time.Duration `yaml:"ttl" env:"TTL"`
}

// SessionConfig holds conversation history settings.
type SessionConfig struct {
	// TokenModel selects the tiktoken encoding used for token-bounded
	// history windows. Empty selects the rune heuristic counter.
	TokenModel string `yaml:"token_model" env:"TOKEN_MODEL"`

	// MaxContextTokens bounds GetMessagesForLLM when the request does
	// not pass its own budget.
	MaxContextTokens int `yaml:"max_context_tokens" env:"MAX_CONTEXT_TOKENS"`
}

// AuthConfig holds JWT settings for the API.
type AuthConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Secret signs and verifies HS256 tokens.
	Secret string `yaml:"secret" env:"SECRET"`

	TokenTTL time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
}

// LogConfig holds zap logger settings.
type LogConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level" env:"LEVEL"`

	// Format is json or console.
	Format string `yaml:"format" env:"FORMAT"`

	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`

	EnableCaller     bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
	EnableStacktrace bool `yaml:"enable_stacktrace" env:"ENABLE_STACKTRACE"`
}

// TelemetryConfig holds OpenTelemetry settings.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	ServiceName  string  `yaml:"service_name" env:"SERVICE_NAME"`
	OTLPEndpoint string  `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	SampleRate   float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// ===== 📦 Defaults =====

// DefaultConfig returns the local single-node setup: sqlite on disk, file
// documents, no cache, no auth, telemetry off.
func DefaultConfig() *Config {
	return &Config{
		Server:    DefaultServerConfig(),
		Database:  DefaultDatabaseConfig(),
		Documents: DefaultDocumentsConfig(),
		Cache:     DefaultCacheConfig(),
		Session:   DefaultSessionConfig(),
		Auth:      DefaultAuthConfig(),
		Log:       DefaultLogConfig(),
		Telemetry: DefaultTelemetryConfig(),
	}
}

// DefaultServerConfig returns default HTTP settings.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Host:            "0.0.0.0",
		HTTPPort:        8080,
		MetricsPort:     9091,
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		RateLimitRPS:    100,
		RateLimitBurst:  200,
	}
}

// DefaultDatabaseConfig returns the sqlite development setup.
func DefaultDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Driver:          "sqlite",
		Name:            "data/memoria.db",
		SSLMode:         "disable",
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// DefaultDocumentsConfig returns default document store paths.
func DefaultDocumentsConfig() DocumentsConfig {
	return DocumentsConfig{
		Dir:       "data/documents",
		BackupDir: "data/backups",
	}
}

// DefaultCacheConfig returns local Redis settings, disabled.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled: false,
		Addr:    "localhost:6379",
		Prefix:  "memoria",
		TTL:     10 * time.Minute,
	}
}

// DefaultSessionConfig returns default session settings.
func DefaultSessionConfig() SessionConfig {
	return SessionConfig{
		MaxContextTokens: 4096,
	}
}

// DefaultAuthConfig returns auth disabled.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		TokenTTL: 24 * time.Hour,
	}
}

// DefaultLogConfig returns json logging at info level.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{"stdout"},
	}
}

// DefaultTelemetryConfig returns telemetry disabled.
func DefaultTelemetryConfig() TelemetryConfig {
	return TelemetryConfig{
		ServiceName:  "memoria",
		OTLPEndpoint: "localhost:4317",
		SampleRate:   1.0,
	}
}

// ===== ✅ Validation =====

// Validate checks the configuration for internal consistency. All problems
// are reported together.
func (c *Config) Validate() error {
	var errs []string

	if c.Server.HTTPPort <= 0 || c.Server.HTTPPort > 65535 {
		errs = append(errs, fmt.Sprintf("server.http_port must be in (0, 65535], got %d", c.Server.HTTPPort))
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		errs = append(errs, fmt.Sprintf("server.metrics_port must be in [0, 65535], got %d", c.Server.MetricsPort))
	}
	if c.Server.MetricsPort != 0 && c.Server.MetricsPort == c.Server.HTTPPort {
		errs = append(errs, "server.metrics_port must differ from server.http_port")
	}
	if c.Server.RateLimitRPS < 0 {
		errs = append(errs, "server.rate_limit_rps must not be negative")
	}
	if (c.Server.TLSCertFile == "") != (c.Server.TLSKeyFile == "") {
		errs = append(errs, "server.tls_cert_file and server.tls_key_file must be set together")
	}

	switch c.Database.Driver {
	case "sqlite", "sqlite3":
		if c.Database.Name == "" {
			errs = append(errs, "database.name (sqlite file path) is required")
		}
	case "postgres", "mysql":
		if c.Database.Host == "" {
			errs = append(errs, "database.host is required for "+c.Database.Driver)
		}
		if c.Database.Name == "" {
			errs = append(errs, "database.name is required for "+c.Database.Driver)
		}
	default:
		errs = append(errs, fmt.Sprintf("database.driver must be sqlite, postgres or mysql, got %q", c.Database.Driver))
	}

	if c.Documents.Dir == "" {
		errs = append(errs, "documents.dir is required")
	}

	if c.Cache.Enabled && c.Cache.Addr == "" {
		errs = append(errs, "cache.addr is required when cache is enabled")
	}

	if c.Session.MaxContextTokens < 0 {
		errs = append(errs, "session.max_context_tokens must not be negative")
	}

	if c.Auth.Enabled && c.Auth.Secret == "" {
		errs = append(errs, "auth.secret is required when auth is enabled")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be json or console, got %q", c.Log.Format))
	}

	if c.Telemetry.Enabled {
		if c.Telemetry.OTLPEndpoint == "" {
			errs = append(errs, "telemetry.otlp_endpoint is required when telemetry is enabled")
		}
		if c.Telemetry.SampleRate < 0 || c.Telemetry.SampleRate > 1 {
			errs = append(errs, fmt.Sprintf("telemetry.sample_rate must be in [0, 1], got %v", c.Telemetry.SampleRate))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return nil
}

// DSN renders the connection string for the configured driver.
func (d *DatabaseConfig) DSN() string {
	switch d.Driver {
	case "postgres":
		sslMode := d.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			d.Host, d.Port, d.User, d.Password, d.Name, sslMode)
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			d.User, d.Password, d.Host, d.Port, d.Name)
	default:
		// sqlite: Name is the file path.
		return d.Name
	}
}
