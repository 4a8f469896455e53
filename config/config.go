package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Port     string `env:"PORT" envDefault:"3000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL   string `env:"DATABASE_URL"`
	LegacyDBURL   string `env:"DBURL"`
	DBDriver      string `env:"DB_DRIVER" envDefault:"postgres"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"image_gallery"`

	JWTSecret      string        `env:"JWT_SECRET,required,notEmpty"`
	TokenDuration  time.Duration `env:"TOKEN_DURATION" envDefault:"24h"`
	CookieDuration time.Duration `env:"COOKIE_DURATION" envDefault:"168h"`
	SecureCookies  bool          `env:"SECURE_COOKIES" envDefault:"false"`
	AppURL         string        `env:"APP_URL" envDefault:"http://localhost:3000"`
	AvatarDir      string        `env:"AVATAR_DIR" envDefault:"/tmp/snap-gallery/avatars"`

	UploadBodyLimit int `env:"UPLOAD_BODY_LIMIT" envDefault:"16777216"`

	StrictOwnership bool `env:"STRICT_OWNERSHIP" envDefault:"true"`
	GateDirectReads bool `env:"GATE_DIRECT_READS" envDefault:"false"`
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debugf(".env not loaded, continuing with environment variables: %v", err)
	}
	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = cfg.LegacyDBURL
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("read config: DATABASE_URL not set")
	}

	cfg.DBDriver = strings.ToLower(cfg.DBDriver)
	if cfg.DBDriver != DriverPostgres && cfg.DBDriver != DriverMongo {
		return nil, fmt.Errorf("read config: unsupported DB_DRIVER %q", cfg.DBDriver)
	}
	if cfg.UploadBodyLimit <= 0 {
		return nil, fmt.Errorf("read config: UPLOAD_BODY_LIMIT must be positive, got %d", cfg.UploadBodyLimit)
	}
	return cfg, nil
}

func (c *Config) Level() log.Level {
	switch strings.ToLower(c.LogLevel) {
	case "trace":
		return log.LevelTrace
	case "debug":
		return log.LevelDebug
	case "warn", "warning":
		return log.LevelWarn
	case "error":
		return log.LevelError
	default:
		return log.LevelInfo
	}
}
