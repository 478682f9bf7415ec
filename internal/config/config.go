package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Config holds all runtime configuration, populated from the environment.
type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	ServerAddr  string `env:"SERVER_ADDR" envDefault:":8080"`

	JWTSecret       string        `env:"JWT_SECRET,required"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"15m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"720h"`

	// MigrationsDir is the path passed to golang-migrate by the migrate command.
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`

	RabbitMQ struct {
		// URL is optional; when empty, confirmation codes are written to the
		// process log instead of a broker queue.
		URL       string `env:"RABBITMQ_URL"`
		QueueName string `env:"RABBITMQ_QUEUE_NAME" envDefault:"confirmation_codes"`
	}
}

// Load reads configuration from the environment, loading a .env file first when
// one exists in the working directory.
func Load() (*Config, error) {
	if _, err := os.Stat(".env"); !os.IsNotExist(err) {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("loading .env file: %w", err)
		}
	}

	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}
	return &cfg, nil
}
