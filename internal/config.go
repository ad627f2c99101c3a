package internal

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"http_server"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Security      SecurityConfig      `mapstructure:"security"`
	QR            QRConfig            `mapstructure:"qr"`
	Assets        AssetsConfig        `mapstructure:"assets"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port"`
	BaseURL           string        `mapstructure:"base_url"`
	AllowedOrigins    string        `mapstructure:"allowed_origins"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	MaxPhotoBytes     int64         `mapstructure:"max_photo_bytes"`
	OpenAPIPath       string        `mapstructure:"openapi_path"`
}

type DatabaseConfig struct {
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Source          string        `mapstructure:"source"`
}

// StorageConfig points at the Supabase project holding the public bucket.
type StorageConfig struct {
	URL       string `mapstructure:"url"`
	Key       string `mapstructure:"key"`
	Bucket    string `mapstructure:"bucket"`
	PublicURL string `mapstructure:"public_url"`
}

type SecurityConfig struct {
	SessionSecret  string        `mapstructure:"session_secret"`
	SessionTTL     time.Duration `mapstructure:"session_ttl"`
	PasswordScheme string        `mapstructure:"password_scheme"`
	BCryptCost     int           `mapstructure:"bcrypt_cost"`
	AdminUsername  string        `mapstructure:"admin_username"`
	// AdminPasswordDigest is produced by the digest command for PasswordScheme.
	AdminPasswordDigest string `mapstructure:"admin_password_digest"`
}

type QRConfig struct {
	Size    int    `mapstructure:"size"`
	TempDir string `mapstructure:"temp_dir"`
}

type AssetsConfig struct {
	BackgroundPath string `mapstructure:"background_path"`
}

type ObservabilityConfig struct {
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfigFromEnv builds the configuration for container deployments where
// no config file is mounted.
func LoadConfigFromEnv() *Config {
	return &Config{
		Server: ServerConfig{
			Port:              getEnvAsInt("PORT", 8080),
			BaseURL:           getEnv("BASE_URL", ""),
			AllowedOrigins:    getEnv("ALLOWED_ORIGINS", "*"),
			ReadHeaderTimeout: getEnvAsDuration("READ_HEADER_TIMEOUT", 5*time.Second),
			ReadTimeout:       getEnvAsDuration("READ_TIMEOUT", 30*time.Second),
			IdleTimeout:       getEnvAsDuration("IDLE_TIMEOUT", 60*time.Second),
			WriteTimeout:      getEnvAsDuration("WRITE_TIMEOUT", 30*time.Second),
			MaxPhotoBytes:     int64(getEnvAsInt("MAX_PHOTO_BYTES", 5<<20)),
			OpenAPIPath:       getEnv("OPENAPI_PATH", "./api/openapi.yml"),
		},
		Database: DatabaseConfig{
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvAsDuration("DB_CONN_MAX_IDLE_TIME", 5*time.Minute),
			Source:          getEnv("DATABASE_URL", ""),
		},
		Storage: StorageConfig{
			URL:       getEnv("SUPABASE_URL", ""),
			Key:       getEnv("SUPABASE_KEY", ""),
			Bucket:    getEnv("SUPABASE_BUCKET", "parking"),
			PublicURL: getEnv("SUPABASE_PUBLIC_URL", ""),
		},
		Security: SecurityConfig{
			SessionSecret:       getEnv("SESSION_SECRET", ""),
			SessionTTL:          getEnvAsDuration("SESSION_TTL", 0),
			PasswordScheme:      getEnv("PASSWORD_SCHEME", "sha256"),
			BCryptCost:          getEnvAsInt("BCRYPT_COST", 10),
			AdminUsername:       getEnv("ADMIN_USERNAME", "admin"),
			AdminPasswordDigest: getEnv("ADMIN_PASSWORD_DIGEST", ""),
		},
		QR: QRConfig{
			Size:    getEnvAsInt("QR_SIZE", 256),
			TempDir: getEnv("QR_TEMP_DIR", ""),
		},
		Assets: AssetsConfig{
			BackgroundPath: getEnv("BACKGROUND_PATH", ""),
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: getEnv("METRICS_ENABLED", "true") == "true",
				Path:    getEnv("METRICS_PATH", "/metrics"),
			},
			Logging: LoggingConfig{
				Level:  getEnv("LOG_LEVEL", "info"),
				Format: getEnv("LOG_FORMAT", "json"),
			},
		},
	}
}

// ----------------- HELPERS -----------------

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultVal
}

// ----------------- VALIDATION -----------------

func (c *Config) Validate() error {
	var errs []string

	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server config: %v", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("database config: %v", err))
	}

	if err := c.Storage.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("storage config: %v", err))
	}

	if err := c.Security.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("security config: %v", err))
	}

	if err := c.QR.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("qr config: %v", err))
	}

	if err := c.Observability.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("logging config: %v", err))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}

	return nil
}

func (c *ServerConfig) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.AllowedOrigins != "" {
		origins := strings.Split(c.AllowedOrigins, ",")
		for _, origin := range origins {
			origin = strings.TrimSpace(origin)
			if origin == "*" {
				continue
			}
			if _, err := url.Parse(origin); err != nil {
				return fmt.Errorf("invalid allowed origin %s: %w", origin, err)
			}
		}
	}
	if c.ReadTimeout < c.ReadHeaderTimeout {
		return errors.New("read_timeout must be >= read_header_timeout")
	}
	if c.MaxPhotoBytes < 0 {
		return errors.New("max_photo_bytes cannot be negative")
	}
	return nil
}

// Validate does not require a source: without one the server starts with
// every store-backed feature reporting unavailable.
func (c *DatabaseConfig) Validate() error {
	if c.MaxIdleConns > c.MaxOpenConns {
		return errors.New("max_idle_conns cannot be greater than max_open_conns")
	}
	return nil
}

func (c *DatabaseConfig) GetDSN() string {
	return c.Source
}

func (c *StorageConfig) Validate() error {
	if c.URL == "" {
		return nil
	}
	if _, err := url.ParseRequestURI(c.URL); err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if c.Key == "" || c.Bucket == "" {
		return errors.New("key and bucket are required when url is set")
	}
	return nil
}

// Enabled reports whether a blob store should be constructed.
func (c *StorageConfig) Enabled() bool {
	return c.URL != ""
}

func (c *SecurityConfig) Validate() error {
	if len(c.SessionSecret) < 32 {
		return errors.New("session secret must be at least 32 characters")
	}
	if c.SessionTTL < 0 {
		return errors.New("session_ttl cannot be negative")
	}
	switch strings.ToLower(c.PasswordScheme) {
	case "", "sha256":
	case "bcrypt":
		if c.BCryptCost != 0 && (c.BCryptCost < 4 || c.BCryptCost > 31) {
			return errors.New("bcrypt_cost must be between 4 and 31")
		}
	default:
		return fmt.Errorf("unknown password_scheme %q", c.PasswordScheme)
	}
	if c.AdminPasswordDigest != "" && c.AdminUsername == "" {
		return errors.New("admin_username is required with admin_password_digest")
	}
	return nil
}

func (c *QRConfig) Validate() error {
	if c.Size < 0 {
		return errors.New("size cannot be negative")
	}
	if c.TempDir != "" {
		info, err := os.Stat(c.TempDir)
		if err != nil {
			return fmt.Errorf("temp_dir: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("temp_dir %s is not a directory", c.TempDir)
		}
	}
	return nil
}

func (c *LoggingConfig) Validate() error {
	switch strings.ToLower(c.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.Level)
	}
	switch strings.ToLower(c.Format) {
	case "", "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.Format)
	}
	return nil
}
