package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for hindsight.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	BaseURL  string `yaml:"base_url" env:"BASE_URL" env-default:""` // Auto-derived from Port if empty
	Version  string `yaml:"-"`                                      // Set at load time, not from config

	// CORSOrigin allows cross-origin requests from a separate SPA dev server
	// (e.g. http://localhost:5173). Empty disables CORS handling; the
	// embedded UI is same-origin and needs none.
	CORSOrigin string `yaml:"cors_origin" env:"CORS_ORIGIN" env-default:""`

	// TLS configuration (optional - if both provided, server uses HTTPS)
	TLSCertPath string `yaml:"tls_cert_path" env:"TLS_CERT_PATH" env-default:""`
	TLSKeyPath  string `yaml:"tls_key_path" env:"TLS_KEY_PATH" env-default:""`

	// Authentication configuration
	Auth AuthConfig `yaml:"auth"`

	// OAuth configuration
	OAuth OAuthConfig `yaml:"oauth"`

	// AuthServerURL is the OAuth authorization server base URL.
	// Used for constructing authorize/token URLs during login.
	AuthServerURL string `yaml:"auth_server_url" env:"AUTH_SERVER_URL" env-default:""`

	// CookieDomain is the domain for auth cookies (optional).
	// If empty, it will be auto-derived from BaseURL.
	CookieDomain string `yaml:"cookie_domain" env:"COOKIE_DOMAIN" env-default:""`

	// SessionSecret signs the short-lived OAuth state cookie.
	// Any passphrase works; it is hashed to derive the signing key. Must be
	// consistent across restarts for in-flight logins to survive a deploy.
	SessionSecret string `yaml:"-" env:"SESSION_SECRET"` // Secret - not in YAML

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// MigrationsPath is the directory holding golang-migrate SQL files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// Redis configuration (optional filter-metadata cache)
	Redis RedisConfig `yaml:"redis"`
}

// AuthConfig holds authentication-related configuration.
type AuthConfig struct {
	// Enabled controls whether the API requires authentication at all.
	// Set to false for single-user local deployments.
	Enabled bool `yaml:"enabled" env:"AUTH_ENABLED" env-default:"false"`

	// EnableVerification controls whether JWT signatures are validated.
	// Set to false for local development without an auth server.
	EnableVerification bool `yaml:"enable_verification" env:"AUTH_ENABLE_VERIFICATION" env-default:"true"`

	// JWKSEndpointsStr is a comma-separated list of issuer=jwks_url pairs.
	// Format: "issuer1=url1,issuer2=url2"
	JWKSEndpointsStr string `yaml:"jwks_endpoints" env:"JWKS_ENDPOINTS" env-default:""`

	// JWKSEndpoints is the parsed map from JWKSEndpointsStr (not from config file).
	JWKSEndpoints map[string]string `yaml:"-"`
}

// OAuthConfig holds OAuth client configuration for the login flow.
type OAuthConfig struct {
	// ClientID is the OAuth client ID registered with the auth server.
	ClientID string `yaml:"client_id" env:"OAUTH_CLIENT_ID" env-default:"hindsight"`

	// Scopes requested during login.
	Scopes string `yaml:"scopes" env:"OAUTH_SCOPES" env-default:"openid email"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"hindsight"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"hindsight"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
}

// RedisConfig holds Redis cache configuration. Redis is optional: an empty
// host disables the cache and the service reads metadata straight from
// PostgreSQL.
type RedisConfig struct {
	Host     string `yaml:"host" env:"REDIS_HOST" env-default:""`
	Port     int    `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
	Password string `yaml:"-" env:"REDIS_PASSWORD"` // Secret - not in YAML
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`

	// MetadataTTLSeconds bounds staleness of cached filter metadata.
	MetadataTTLSeconds int `yaml:"metadata_ttl_seconds" env:"REDIS_METADATA_TTL_SECONDS" env-default:"30"`
}

// Load reads configuration from config.yaml with environment variable
// overrides. When config.yaml does not exist, environment variables alone
// are used. The version parameter is injected at build time and set on the
// returned Config.
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	// Parse complex fields
	cfg.Auth.JWKSEndpoints = parseJWKSEndpoints(cfg.Auth.JWKSEndpointsStr)

	// Validate TLS configuration
	if err := cfg.validateTLS(); err != nil {
		return nil, fmt.Errorf("invalid TLS configuration: %w", err)
	}

	// Auto-derive BaseURL from Port if not explicitly set
	// Use HTTPS scheme if TLS is configured
	if cfg.BaseURL == "" {
		scheme := "http"
		if cfg.TLSCertPath != "" {
			scheme = "https"
		}
		cfg.BaseURL = (&url.URL{
			Scheme: scheme,
			Host:   "localhost:" + cfg.Port,
		}).String()
	}

	return cfg, nil
}

// validateTLS ensures TLS configuration is valid if provided.
// Both cert and key must be provided together, and files must exist and be readable.
func (c *Config) validateTLS() error {
	certSet := c.TLSCertPath != ""
	keySet := c.TLSKeyPath != ""

	// Both must be provided together or both empty
	if certSet != keySet {
		return fmt.Errorf("both tls_cert_path and tls_key_path must be provided together")
	}

	// If both provided, verify files exist (actual readability checked by tls.LoadX509KeyPair at startup)
	if certSet {
		if _, err := os.Stat(c.TLSCertPath); err != nil {
			return fmt.Errorf("TLS cert file does not exist: %w", err)
		}
		if _, err := os.Stat(c.TLSKeyPath); err != nil {
			return fmt.Errorf("TLS key file does not exist: %w", err)
		}
	}

	return nil
}

// parseJWKSEndpoints parses the JWKS endpoints string into a map.
// Format: "issuer1=url1,issuer2=url2"
func parseJWKSEndpoints(value string) map[string]string {
	endpoints := make(map[string]string)
	if value == "" {
		return endpoints
	}

	pairs := strings.Split(value, ",")
	for _, pair := range pairs {
		parts := strings.Split(pair, "=")
		if len(parts) == 2 {
			endpoints[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
		}
	}
	return endpoints
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// Addr returns the host:port address of the Redis server.
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Enabled reports whether a Redis cache is configured.
func (c *RedisConfig) Enabled() bool {
	return c.Host != ""
}
