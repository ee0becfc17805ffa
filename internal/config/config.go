package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	StoreDriverMongo  = "mongo"
	StoreDriverMemory = "memory"
)

type Config struct {
	Port            string   `env:"PORT" envDefault:"5001"`
	Environment     string   `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel        string   `env:"LOG_LEVEL" envDefault:"info"`
	AllowedOrigins  []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:5173"`
	StoreDriver     string   `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoDBURI      string   `env:"MONGODB_URI"`
	MongoDBPassword string   `env:"MONGODB_PASSWORD"`
	MongoDBName     string   `env:"MONGODB_DATABASE" envDefault:"rsvpd"`

	SupabaseURL       string `env:"SUPABASE_URL"`
	SupabaseAnonKey   string `env:"SUPABASE_URL_ANON_KEY"`
	SupabaseJWTSecret string `env:"SUPABASE_JWT_SECRET"`

	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`

	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	GeminiModel      string `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
	EnhancePerMinute int    `env:"ENHANCE_PER_MINUTE" envDefault:"10"`
}

func LoadConfig() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the keys each store driver and the identity provider need.
func (c *Config) Validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseAnonKey == "" {
		return fmt.Errorf("SUPABASE_URL_ANON_KEY is required")
	}

	switch c.StoreDriver {
	case StoreDriverMongo:
		if c.MongoDBURI == "" {
			return fmt.Errorf("MONGODB_URI is required")
		}
		if strings.Contains(c.MongoDBURI, "<password>") && c.MongoDBPassword == "" {
			return fmt.Errorf("MONGODB_PASSWORD is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q (expected %s or %s)", c.StoreDriver, StoreDriverMongo, StoreDriverMemory)
	}

	if c.EnhancePerMinute <= 0 {
		return fmt.Errorf("ENHANCE_PER_MINUTE must be positive")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) HasCloudinary() bool {
	return c.CloudinaryCloudName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func (c *Config) SlogLevel() slog.Level {
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
