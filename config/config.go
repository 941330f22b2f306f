package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "DHARMA"

// DevJWTSecret is the signing secret used when none is configured.
const DevJWTSecret = "dharmaverse-dev-secret"

// Config is the root server configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Stream     StreamConfig     `mapstructure:"stream"`
	Auth       AuthConfig       `mapstructure:"auth"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Moderation ModerationConfig `mapstructure:"moderation"`
	Log        LogConfig        `mapstructure:"log"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
}

// ServerConfig HTTP listener settings. A zero timeout disables that limit.
type ServerConfig struct {
	Addr              string        `mapstructure:"addr"`
	PublicURL         string        `mapstructure:"public_url"`
	Timezone          string        `mapstructure:"timezone"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins    []string      `mapstructure:"allowed_origins"`
}

type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite | mysql
	DSN    string `mapstructure:"dsn"`
}

type StorageConfig struct {
	VideoDir         string `mapstructure:"video_dir"`
	ThumbnailDir     string `mapstructure:"thumbnail_dir"`
	MaxVideoSize     int64  `mapstructure:"max_video_size"`
	MaxThumbnailSize int64  `mapstructure:"max_thumbnail_size"`
}

type StreamConfig struct {
	ChunkSize         int           `mapstructure:"chunk_size"`
	MaxBytesPerSecond int           `mapstructure:"max_bytes_per_second"`
	SignedLinks       bool          `mapstructure:"signed_links"`
	LinkSecret        string        `mapstructure:"link_secret"`
	LinkTTL           time.Duration `mapstructure:"link_ttl"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
	IdleTTL  time.Duration `mapstructure:"idle_ttl"`
}

type ModerationConfig struct {
	Keywords   []string `mapstructure:"keywords"`
	Categories []string `mapstructure:"categories"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Dir        string `mapstructure:"dir"`
	MaxSize    int64  `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	Color      bool   `mapstructure:"color"`
	ShowCaller bool   `mapstructure:"show_caller"`
}

type SchedulerConfig struct {
	Interval         time.Duration `mapstructure:"interval"`
	LiveStreamMaxAge time.Duration `mapstructure:"live_stream_max_age"`
}

// Default returns the configuration used when no file or env overrides are present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:              ":8080",
			Timezone:          "UTC",
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       10 * time.Minute,
			IdleTimeout:       2 * time.Minute,
			ShutdownTimeout:   15 * time.Second,
			AllowedOrigins:    []string{"*"},
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			DSN:    "data/dharmaverse.db",
		},
		Storage: StorageConfig{
			VideoDir:         "data/videos",
			ThumbnailDir:     "data/thumbnails",
			MaxVideoSize:     500 << 20,
			MaxThumbnailSize: 10 << 20,
		},
		Stream: StreamConfig{
			ChunkSize: 64 << 10,
			LinkTTL:   2 * time.Hour,
		},
		Auth: AuthConfig{
			JWTSecret: DevJWTSecret,
			Issuer:    "dharmaverse",
			TokenTTL:  24 * time.Hour,
		},
		RateLimit: RateLimitConfig{
			Requests: 5,
			Window:   15 * time.Minute,
			IdleTTL:  30 * time.Minute,
		},
		Moderation: ModerationConfig{
			Keywords: []string{
				"spiritual", "meditation", "yoga", "dharma", "karma", "bhagavad",
				"gita", "buddha", "mantra", "prayer", "devotion", "enlightenment",
			},
			Categories: []string{
				"Bhagavad Gita", "Meditation", "Spirituality", "Philosophy",
				"Mantras", "Buddhism", "Yoga", "Devotional",
			},
		},
		Log: LogConfig{
			Level:   "info",
			Dir:     "logs",
			MaxSize: 100 << 20,
			MaxAge:  30,
			Color:   true,
		},
		Scheduler: SchedulerConfig{
			Interval:         time.Minute,
			LiveStreamMaxAge: 12 * time.Hour,
		},
	}
}

// Load reads defaults, then the YAML file at path (when it exists), then DHARMA_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	defaults := map[string]interface{}{
		"server.addr":                   d.Server.Addr,
		"server.public_url":             d.Server.PublicURL,
		"server.timezone":               d.Server.Timezone,
		"server.read_header_timeout":    d.Server.ReadHeaderTimeout,
		"server.read_timeout":           d.Server.ReadTimeout,
		"server.write_timeout":          d.Server.WriteTimeout,
		"server.idle_timeout":           d.Server.IdleTimeout,
		"server.shutdown_timeout":       d.Server.ShutdownTimeout,
		"server.allowed_origins":        d.Server.AllowedOrigins,
		"database.driver":               d.Database.Driver,
		"database.dsn":                  d.Database.DSN,
		"storage.video_dir":             d.Storage.VideoDir,
		"storage.thumbnail_dir":         d.Storage.ThumbnailDir,
		"storage.max_video_size":        d.Storage.MaxVideoSize,
		"storage.max_thumbnail_size":    d.Storage.MaxThumbnailSize,
		"stream.chunk_size":             d.Stream.ChunkSize,
		"stream.max_bytes_per_second":   d.Stream.MaxBytesPerSecond,
		"stream.signed_links":           d.Stream.SignedLinks,
		"stream.link_secret":            d.Stream.LinkSecret,
		"stream.link_ttl":               d.Stream.LinkTTL,
		"auth.jwt_secret":               d.Auth.JWTSecret,
		"auth.issuer":                   d.Auth.Issuer,
		"auth.token_ttl":                d.Auth.TokenTTL,
		"rate_limit.requests":           d.RateLimit.Requests,
		"rate_limit.window":             d.RateLimit.Window,
		"rate_limit.idle_ttl":           d.RateLimit.IdleTTL,
		"moderation.keywords":           d.Moderation.Keywords,
		"moderation.categories":         d.Moderation.Categories,
		"log.level":                     d.Log.Level,
		"log.dir":                       d.Log.Dir,
		"log.max_size":                  d.Log.MaxSize,
		"log.max_age":                   d.Log.MaxAge,
		"log.color":                     d.Log.Color,
		"log.show_caller":               d.Log.ShowCaller,
		"scheduler.interval":            d.Scheduler.Interval,
		"scheduler.live_stream_max_age": d.Scheduler.LiveStreamMaxAge,
	}

	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Validate checks values that would otherwise fail deep inside the server.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Errorf("database.driver must be sqlite or mysql, got %q", c.Database.Driver))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database.dsn is required"))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if c.Stream.ChunkSize <= 0 {
		errs = append(errs, errors.New("stream.chunk_size must be positive"))
	}
	if c.Stream.MaxBytesPerSecond < 0 {
		errs = append(errs, errors.New("stream.max_bytes_per_second must not be negative"))
	}
	if c.Storage.VideoDir == "" || c.Storage.ThumbnailDir == "" {
		errs = append(errs, errors.New("storage.video_dir and storage.thumbnail_dir are required"))
	}
	if c.Storage.MaxVideoSize <= 0 || c.Storage.MaxThumbnailSize <= 0 {
		errs = append(errs, errors.New("storage size limits must be positive"))
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit.requests and rate_limit.window must be positive"))
	}
	if c.Scheduler.Interval <= 0 {
		errs = append(errs, errors.New("scheduler.interval must be positive"))
	}
	if len(c.Moderation.Categories) == 0 {
		errs = append(errs, errors.New("moderation.categories must not be empty"))
	}

	return errors.Join(errs...)
}

// SigningSecret returns the secret used for signed stream links.
func (c *Config) SigningSecret() string {
	if c.Stream.LinkSecret != "" {
		return c.Stream.LinkSecret
	}
	return c.Auth.JWTSecret
}
