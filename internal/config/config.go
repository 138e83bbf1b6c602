package config

import (
	"log/slog"
	"strings"

	env "github.com/Netflix/go-env"
)

// Config holds application configuration
type Config struct {
	// サーバー設定
	ServerPort string `env:"PORT,default=5000"`

	// MongoDB接続設定
	MongoURI string `env:"MONGO_URI"`
	MongoDB  string `env:"MONGO_DB,default=chat"`

	// CORS設定
	AllowedOrigins string `env:"ALLOWED_ORIGINS,default=*"`

	// メッセージ入力ルール
	RequireUser   bool   `env:"REQUIRE_USER,default=true"`
	AnonymousUser string `env:"ANONYMOUS_USER,default=anonymous"`

	MetricsEnabled bool   `env:"METRICS_ENABLED,default=true"`
	LogLevel       string `env:"LOG_LEVEL,default=info"`
}

// Load loads configuration from environment variables
func Load() (Config, error) {
	var cfg Config
	if _, err := env.UnmarshalFromEnviron(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Origins returns the CORS origin list with whitespace trimmed.
func (c Config) Origins() []string {
	origins := strings.Split(c.AllowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	return origins
}

// SlogLevel maps LOG_LEVEL onto a slog level. Unknown values fall back to info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
