package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	apperrors "github.com/mapleerp/employee-portal/pkg/errors"
)

// EnvPrefix is the prefix of every environment variable read by the portal
const EnvPrefix = "MAPLE"

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	API        APIConfig        `mapstructure:"api"`
	App        AppConfig        `mapstructure:"app"`
	Endpoints  EndpointsConfig  `mapstructure:"endpoints"`
	ViaCEP     ViaCEPConfig     `mapstructure:"viacep"`
	Features   FeaturesConfig   `mapstructure:"features"`
	Upload     UploadConfig     `mapstructure:"upload"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	UI         UIConfig         `mapstructure:"ui"`
	Timeouts   TimeoutsConfig   `mapstructure:"timeouts"`
	Messages   MessagesConfig   `mapstructure:"messages"`
	Session    SessionConfig    `mapstructure:"session"`
	Database   DatabaseConfig   `mapstructure:"database"`
	RabbitMQ   RabbitMQConfig   `mapstructure:"rabbitmq"`
	Debug      DebugConfig      `mapstructure:"debug"`

	// Sources records which provider supplied each key
	Sources map[string]string `mapstructure:"-"`
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           int           `mapstructure:"port"`
	Host           string        `mapstructure:"host"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	Environment    string        `mapstructure:"environment"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// APIConfig locates the Maple ERP backend
type APIConfig struct {
	// URL overrides the environment-specific URLs when set
	URL     string `mapstructure:"url"`
	DevURL  string `mapstructure:"dev_url"`
	ProdURL string `mapstructure:"prod_url"`
}

// BaseURL returns the backend URL for the given environment
func (c APIConfig) BaseURL(environment string) string {
	if c.URL != "" {
		return strings.TrimRight(c.URL, "/")
	}
	if environment == EnvProduction || environment == EnvStaging {
		return strings.TrimRight(c.ProdURL, "/")
	}
	return strings.TrimRight(c.DevURL, "/")
}

type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// EndpointsConfig holds backend paths relative to the API base URL
type EndpointsConfig struct {
	Employees     string `mapstructure:"employees"`
	HealthCheck   string `mapstructure:"health_check"`
	BadgeTemplate string `mapstructure:"badge_template"`
}

type ViaCEPConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// FeaturesConfig toggles optional portal features
type FeaturesConfig struct {
	HealthCheck     bool `mapstructure:"health_check"`
	Export          bool `mapstructure:"export"`
	BadgeGeneration bool `mapstructure:"badge_generation"`
	MultiBadge      bool `mapstructure:"multi_badge"`
}

type UploadConfig struct {
	MaxFileSize  int64    `mapstructure:"max_file_size"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

type PaginationConfig struct {
	DefaultPageSize int `mapstructure:"default_page_size"`
	MaxPageSize     int `mapstructure:"max_page_size"`
}

type UIConfig struct {
	Locale     string `mapstructure:"locale"`
	DateFormat string `mapstructure:"date_format"`
	Currency   string `mapstructure:"currency"`
}

type TimeoutsConfig struct {
	Loading time.Duration `mapstructure:"loading"`
	Request time.Duration `mapstructure:"request"`
}

// MessagesConfig holds the user-facing fallback error texts
type MessagesConfig struct {
	DefaultError string `mapstructure:"default_error"`
	NetworkError string `mapstructure:"network_error"`
	ServerError  string `mapstructure:"server_error"`
}

// ErrorMessages converts the configured texts for the error mapper
func (m MessagesConfig) ErrorMessages() apperrors.Messages {
	return apperrors.Messages{
		Default: m.DefaultError,
		Network: m.NetworkError,
		Server:  m.ServerError,
	}
}

// SessionConfig controls editor session lifetime
type SessionConfig struct {
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// DatabaseConfig holds the optional activity log database.
// An empty URL disables the activity log.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// Enabled reports whether a database is configured
func (c DatabaseConfig) Enabled() bool { return c.URL != "" }

// RabbitMQConfig holds RabbitMQ connection configuration.
// An empty URL disables event publishing.
type RabbitMQConfig struct {
	URL            string        `mapstructure:"url"`
	Exchange       string        `mapstructure:"exchange"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay"`
}

func (c RabbitMQConfig) Enabled() bool { return c.URL != "" }

type DebugConfig struct {
	EnableLogs bool `mapstructure:"enable_logs"`
}

// defaults is the last layer of the chain. Every key the portal reads is listed here.
var defaults = map[string]string{
	"server.port":            "8085",
	"server.host":            "0.0.0.0",
	"server.read_timeout":    "30s",
	"server.write_timeout":   "60s",
	"server.environment":     EnvDevelopment,
	"server.allowed_origins": "http://localhost:4200",

	"api.url":      "",
	"api.dev_url":  "http://localhost:4000",
	"api.prod_url": "https://maple-erp-backend.onrender.com",

	"app.name":    "Maple ERP Frontend",
	"app.version": "1.0.0",

	"endpoints.employees":      "/employees",
	"endpoints.health_check":   "/health-check",
	"endpoints.badge_template": "/template-cracha",

	"viacep.base_url": "https://viacep.com.br/ws",
	"viacep.timeout":  "5s",

	"features.health_check":     "true",
	"features.export":           "true",
	"features.badge_generation": "true",
	"features.multi_badge":      "true",

	"upload.max_file_size": "5242880",
	"upload.allowed_types": "image/jpeg,image/png,image/jpg",

	"pagination.default_page_size": "20",
	"pagination.max_page_size":     "100",

	"ui.locale":      "pt-BR",
	"ui.date_format": "DD/MM/YYYY",
	"ui.currency":    "BRL",

	"timeouts.loading": "30s",
	"timeouts.request": "10s",

	"messages.default_error": "Ocorreu um erro inesperado. Tente novamente.",
	"messages.network_error": "Erro de conexão. Verifique sua internet.",
	"messages.server_error":  "Erro interno do servidor. Tente novamente mais tarde.",

	"session.ttl":              "30m",
	"session.cleanup_interval": "5m",

	"database.url":               "",
	"database.max_open_conns":    "10",
	"database.max_idle_conns":    "2",
	"database.conn_max_lifetime": "5m",

	"rabbitmq.url":             "",
	"rabbitmq.exchange":        "maple.events",
	"rabbitmq.reconnect_delay": "5s",

	"debug.enable_logs": "false",
}

// Keys returns every configuration key, sorted
func Keys() []string {
	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultsProvider serves the hardcoded defaults
func DefaultsProvider() *StaticProvider {
	return NewStaticProvider("default", defaults)
}

// Options controls where Load looks for the file and .env layers
type Options struct {
	ConfigName  string
	ConfigPaths []string
	DotEnvFiles []string
	// Extra providers are consulted before everything else. Used by tests.
	Extra []Provider
}

// DefaultOptions returns the standard search locations for a service
func DefaultOptions(serviceName string) Options {
	return Options{
		ConfigName:  serviceName,
		ConfigPaths: []string{"./config", "/etc/maple"},
		DotEnvFiles: []string{".env"},
	}
}

// Load loads configuration from the provider chain:
// build-time values, config file, process environment, .env file, defaults.
func Load(serviceName string) (*Config, error) {
	return LoadWithOptions(DefaultOptions(serviceName))
}

// LoadWithValidation loads configuration and validates it for the current environment.
// Use this function in service main() for fail-fast behavior.
func LoadWithValidation(serviceName string) (*Config, error) {
	cfg, err := Load(serviceName)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithOptions builds the chain described by opts and decodes it into a Config
func LoadWithOptions(opts Options) (*Config, error) {
	file, err := NewFileProvider(opts.ConfigName, opts.ConfigPaths...)
	if err != nil {
		return nil, err
	}
	dotenv, err := NewDotEnvProvider(EnvPrefix, opts.DotEnvFiles...)
	if err != nil {
		return nil, err
	}

	providers := append([]Provider{}, opts.Extra...)
	providers = append(providers,
		BuildProvider(),
		file,
		NewEnvProvider(EnvPrefix),
		dotenv,
		DefaultsProvider(),
	)

	return Decode(NewResolver(providers...))
}

// Decode resolves every known key and unmarshals the result.
// viper's weak typing turns "true", "8085" and "30s" into their field types.
func Decode(r *Resolver) (*Config, error) {
	v := viper.New()
	sources := make(map[string]string, len(defaults))

	for _, key := range Keys() {
		val, source, ok := r.Resolve(key)
		if !ok {
			continue
		}
		v.Set(key, val)
		sources[key] = source
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Server.Environment = strings.ToLower(cfg.Server.Environment)
	cfg.Server.AllowedOrigins = trimAll(cfg.Server.AllowedOrigins)
	cfg.Upload.AllowedTypes = trimAll(cfg.Upload.AllowedTypes)
	cfg.Sources = sources

	return &cfg, nil
}

// Validate checks the configuration for the current environment
func (c *Config) Validate() error {
	if c.Server.Environment == EnvProduction || c.Server.Environment == EnvStaging {
		if c.API.URL == "" && c.Sources["api.prod_url"] == "default" {
			return errors.New("MAPLE_API_URL or MAPLE_API_PROD_URL required in " + c.Server.Environment)
		}
		if strings.Contains(c.API.BaseURL(c.Server.Environment), "localhost") {
			return errors.New("localhost API URL not allowed in " + c.Server.Environment)
		}
	}
	if c.Pagination.DefaultPageSize <= 0 || c.Pagination.DefaultPageSize > c.Pagination.MaxPageSize {
		return fmt.Errorf("pagination.default_page_size must be between 1 and %d", c.Pagination.MaxPageSize)
	}
	if c.Upload.MaxFileSize <= 0 {
		return errors.New("upload.max_file_size must be positive")
	}
	if len(c.Upload.AllowedTypes) == 0 {
		return errors.New("upload.allowed_types must not be empty")
	}
	return nil
}

// BackendURL returns the resolved backend base URL
func (c *Config) BackendURL() string {
	return c.API.BaseURL(c.Server.Environment)
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
