package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
)

const AppName = "zenith"

// Config holds all configuration for the application
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Timer    TimerConfig    `mapstructure:"timer"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	AI       AIConfig       `mapstructure:"ai"`
	Spotify  SpotifyConfig  `mapstructure:"spotify"`
	Media    MediaConfig    `mapstructure:"media"`
	Device   DeviceConfig   `mapstructure:"device"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Security SecurityConfig `mapstructure:"security"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	DataDir     string `mapstructure:"data_dir"`
	Theme       string `mapstructure:"theme"`
}

// TimerConfig holds the default interval lengths in minutes
type TimerConfig struct {
	Work         int           `mapstructure:"work"`
	ShortBreak   int           `mapstructure:"short_break"`
	LongBreak    int           `mapstructure:"long_break"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
}

// StorageConfig selects the snapshot backend
type StorageConfig struct {
	Backend     string `mapstructure:"backend"` // sqlite, file or redis
	DBPath      string `mapstructure:"db_path"`
	SnapshotDir string `mapstructure:"snapshot_dir"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Password  string `mapstructure:"password"`
	DB        int    `mapstructure:"db"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// LoggerConfig holds logging configuration
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// AIConfig holds the generative model endpoint settings
type AIConfig struct {
	APIKey        string        `mapstructure:"api_key"`
	Model         string        `mapstructure:"model"`
	Endpoint      string        `mapstructure:"endpoint"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RatePerMinute int           `mapstructure:"rate_per_minute"`
}

// SpotifyConfig holds the OAuth client and API endpoints
type SpotifyConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
	AuthURL      string `mapstructure:"auth_url"`
	TokenURL     string `mapstructure:"token_url"`
	APIURL       string `mapstructure:"api_url"`
}

// MediaConfig holds the classroom player defaults
type MediaConfig struct {
	DefaultEmbed string `mapstructure:"default_embed"`
	MaxFileBytes int64  `mapstructure:"max_file_bytes"`
}

// DeviceConfig holds the serial controller settings
type DeviceConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    string `mapstructure:"port"`
	Baud    int    `mapstructure:"baud"`
}

// NotifyConfig toggles desktop notifications
type NotifyConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SecurityConfig holds security-related configuration
type SecurityConfig struct {
	CORSAllowedOrigins string        `mapstructure:"cors_allowed_origins"`
	RateLimitRequests  int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow    time.Duration `mapstructure:"rate_limit_window"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DefaultDataDir returns the default data directory path
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, ".local", "share", AppName)
}

// Load loads configuration from defaults, an optional config file, .env and
// the environment. An empty path searches the data directory and the
// working directory for config.yaml.
func Load(path string) (*Config, error) {
	// Load .env file if it exists (ignore errors)
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("ZENITH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvVars(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(v.GetString("app.data_dir"))
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.fillPaths()

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	dataDir := DefaultDataDir()

	// App defaults
	v.SetDefault("app.name", AppName)
	v.SetDefault("app.version", "0.1.0")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.data_dir", dataDir)
	v.SetDefault("app.theme", "nord")

	// Timer defaults
	v.SetDefault("timer.work", 25)
	v.SetDefault("timer.short_break", 5)
	v.SetDefault("timer.long_break", 15)
	v.SetDefault("timer.tick_interval", "1s")

	// Storage defaults
	v.SetDefault("storage.backend", "sqlite")
	v.SetDefault("storage.db_path", "")
	v.SetDefault("storage.snapshot_dir", "")

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", AppName+":")

	// Server defaults
	v.SetDefault("server.port", 8888)
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.idle_timeout", "120s")

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output", "stdout")
	v.SetDefault("logger.filename", "")

	// AI defaults
	v.SetDefault("ai.api_key", "")
	v.SetDefault("ai.model", "gemini-2.5-flash")
	v.SetDefault("ai.endpoint", "https://generativelanguage.googleapis.com/")
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.rate_per_minute", 15)

	// Spotify defaults
	v.SetDefault("spotify.client_id", "")
	v.SetDefault("spotify.client_secret", "")
	v.SetDefault("spotify.redirect_url", "http://127.0.0.1:8888/callback")
	v.SetDefault("spotify.auth_url", "https://accounts.spotify.com/authorize")
	v.SetDefault("spotify.token_url", "https://accounts.spotify.com/api/token")
	v.SetDefault("spotify.api_url", "https://api.spotify.com/v1")

	// Media defaults
	v.SetDefault("media.default_embed", "https://www.youtube.com/embed/jfKfPfyJRdk")
	v.SetDefault("media.max_file_bytes", 10<<20)

	// Device defaults
	v.SetDefault("device.enabled", false)
	v.SetDefault("device.port", "/dev/ttyACM0")
	v.SetDefault("device.baud", 9600)

	v.SetDefault("notify.enabled", true)

	// Security defaults
	v.SetDefault("security.cors_allowed_origins", "http://127.0.0.1:8888,http://localhost:8888")
	v.SetDefault("security.rate_limit_requests", 20)
	v.SetDefault("security.rate_limit_window", "1m")

	v.SetDefault("metrics.enabled", true)
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("app.data_dir", "ZENITH_DATA_DIR")
	v.BindEnv("app.environment", "ZENITH_ENV")

	v.BindEnv("storage.backend", "ZENITH_STORAGE")

	// Redis
	v.BindEnv("redis.host", "REDIS_HOST")
	v.BindEnv("redis.port", "REDIS_PORT")
	v.BindEnv("redis.password", "REDIS_PASSWORD")
	v.BindEnv("redis.db", "REDIS_DB")

	// Server
	v.BindEnv("server.port", "ZENITH_PORT")
	v.BindEnv("server.host", "ZENITH_HOST")

	// Logger
	v.BindEnv("logger.level", "LOG_LEVEL")
	v.BindEnv("logger.format", "LOG_FORMAT")
	v.BindEnv("logger.output", "LOG_OUTPUT")

	// AI
	v.BindEnv("ai.api_key", "GEMINI_API_KEY", "GOOGLE_API_KEY")
	v.BindEnv("ai.model", "GEMINI_MODEL")

	// Spotify
	v.BindEnv("spotify.client_id", "SPOTIFY_CLIENT_ID")
	v.BindEnv("spotify.client_secret", "SPOTIFY_CLIENT_SECRET")
	v.BindEnv("spotify.redirect_url", "SPOTIFY_REDIRECT_URI")

	v.BindEnv("device.port", "ZENITH_DEVICE_PORT")
	v.BindEnv("device.baud", "ZENITH_DEVICE_BAUD")
}

func (cfg *Config) fillPaths() {
	if cfg.App.DataDir == "" {
		cfg.App.DataDir = DefaultDataDir()
	}
	if cfg.Storage.DBPath == "" {
		cfg.Storage.DBPath = filepath.Join(cfg.App.DataDir, AppName+".db")
	}
	if cfg.Storage.SnapshotDir == "" {
		cfg.Storage.SnapshotDir = filepath.Join(cfg.App.DataDir, "snapshots")
	}
	if cfg.Logger.Output == "file" && cfg.Logger.Filename == "" {
		cfg.Logger.Filename = filepath.Join(cfg.App.DataDir, AppName+".log")
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Storage.Backend {
	case "sqlite", "file", "redis":
	default:
		return fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535")
	}

	if _, err := zapcore.ParseLevel(cfg.Logger.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}

	if cfg.Device.Enabled && cfg.Device.Baud <= 0 {
		return fmt.Errorf("device baud rate must be positive")
	}

	if cfg.Security.RateLimitRequests < 0 {
		return fmt.Errorf("rate limit must not be negative")
	}

	return nil
}

// GetAddr returns the Redis address
func (cfg *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}

// GetAddr returns the HTTP listen address
func (cfg *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
}
