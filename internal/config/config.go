// Package config loads the service configuration from environment variables.
// Defaults live in struct tags and every setting is validated on startup so a
// misconfigured process fails before it touches the store.
package config

import (
	"strconv"
	"time"
)

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Sync     SyncConfig
	Drive    DriveConfig
	Events   EventsConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8000, the port the sync script posted to)
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8000"`

	ReadTimeout     time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`
	IdleTimeout     time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout bounds single-record requests. Import requests run a whole
	// batch and use Sync.Timeout instead.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// StoreConfig selects and configures the product store.
type StoreConfig struct {
	// Driver is "postgres" or "memory" (default: postgres)
	Driver string `env:"STORE_DRIVER" default:"postgres"`

	// URL is the PostgreSQL connection string, required for the postgres driver.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL"`

	MaxConns        int           `env:"DB_MAX_CONNS" default:"10"`
	MinConns        int           `env:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// ApplySchema creates the tables on startup when missing (default: true)
	ApplySchema bool `env:"DB_APPLY_SCHEMA" default:"true"`
}

// SyncConfig holds batch synchronization settings.
type SyncConfig struct {
	// PageSize caps GET /produtos (default: 5)
	PageSize int `env:"SYNC_PAGE_SIZE" default:"5"`

	// MaxConcurrent is the number of batch runs allowed at once (default: 1)
	MaxConcurrent int `env:"SYNC_MAX_CONCURRENT" default:"1"`

	// MaxWaitTime is how long a run waits for a free slot (default: 30s)
	MaxWaitTime time.Duration `env:"SYNC_MAX_WAIT_TIME" default:"30s"`

	// Timeout bounds a single batch run (default: 10m)
	Timeout time.Duration `env:"SYNC_TIMEOUT" default:"10m"`

	// MaxFileSize is the largest spreadsheet accepted, in bytes (default: 20MB)
	MaxFileSize int64 `env:"SYNC_MAX_FILE_SIZE" default:"20971520"`

	// PollInterval enables the Drive poller in the server when > 0 (default: off)
	PollInterval time.Duration `env:"SYNC_POLL_INTERVAL" default:"0s"`

	// HistorySize is how many runs GET /produtos/sincronizacoes returns (default: 20)
	HistorySize int `env:"SYNC_HISTORY_SIZE" default:"20"`
}

// DriveConfig holds the Google Drive folder the spreadsheets are exported to.
type DriveConfig struct {
	// CredentialsFile is a service account JSON key file.
	CredentialsFile string `env:"DRIVE_CREDENTIALS_FILE" envAlt:"GOOGLE_APPLICATION_CREDENTIALS"`

	// FolderID is the Drive folder holding the exports.
	FolderID string `env:"DRIVE_FOLDER_ID"`

	// MimeType filters the folder listing (default: xlsx)
	MimeType string `env:"DRIVE_MIME_TYPE" default:"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"`
}

// Enabled reports whether a Drive folder is configured.
func (d *DriveConfig) Enabled() bool {
	return d.CredentialsFile != "" && d.FolderID != ""
}

// EventsConfig holds RabbitMQ settings for run notifications.
type EventsConfig struct {
	// URL is the AMQP broker URL; events are disabled when empty.
	URL string `env:"AMQP_URL"`

	Exchange string `env:"AMQP_EXCHANGE" default:"estoque.sync"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool `env:"RATE_LIMIT_ENABLED" default:"true"`
	RequestsPerMinute int  `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"600"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// RequireAPIKey enforces X-API-Key on mutating routes (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted keys
	APIKeys []string `env:"API_KEYS"`

	// CORSOrigins is a comma-separated list of allowed origins (default: none)
	CORSOrigins []string `env:"CORS_ALLOWED_ORIGINS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text, json or tint (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`

	// FluentHost enables forwarding to Fluent Bit when set.
	FluentHost string `env:"FLUENT_HOST"`
	FluentPort int    `env:"FLUENT_PORT" default:"24224"`
	FluentTag  string `env:"FLUENT_TAG" default:"estoque-sync"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
