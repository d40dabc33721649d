package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port          string        `envconfig:"PORT" default:"8080"`
	DatabaseURL   string        `envconfig:"DATABASE_URL" required:"true"`
	RedisURL      string        `envconfig:"REDIS_URL" required:"true"`
	JWTSecret     string        `envconfig:"JWT_SECRET" required:"true"`
	AccessKeyHash string        `envconfig:"ACCESS_KEY_HASH" required:"true"`
	TokenTTL      time.Duration `envconfig:"TOKEN_TTL" default:"12h"`
	GateTimeout   time.Duration `envconfig:"GATE_TIMEOUT" default:"5s"`

	WindowSize       int           `envconfig:"WINDOW_SIZE" default:"50"`
	EditWindow       time.Duration `envconfig:"EDIT_WINDOW" default:"15m"`
	MaxContentLength int           `envconfig:"MAX_CONTENT_LENGTH" default:"4000"`
}

// Load reads .env.local/.env when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(".env.local"); err != nil {
		if err := godotenv.Load(); err != nil {
			log.Println(".env not found, using environment variables")
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
