// /internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// ErrMissingToken is returned when the Discord bot is started without a token.
var ErrMissingToken = errors.New("DISCORD_TOKEN is not set")

type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN"`
	DeveloperID  string `env:"DEVELOPER_ID"`
	Prefix       string `env:"COMMAND_PREFIX" envDefault:"!"`

	StoragePath  string `env:"STORAGE_PATH" envDefault:"datastore.json"`
	HistoryLimit int    `env:"HISTORY_LIMIT" envDefault:"20"`

	MaxConcurrency int     `env:"MAX_CONCURRENCY" envDefault:"0"`
	ReplyRate      float64 `env:"REPLY_RATE" envDefault:"5"`
	ReplyBurst     int     `env:"REPLY_BURST" envDefault:"5"`
	UserRate       float64 `env:"USER_RATE" envDefault:"1"`
	UserBurst      int     `env:"USER_BURST" envDefault:"3"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
}

// New loads dotenv files and parses the environment. Without arguments an
// optional .env in the working directory is loaded; files named explicitly
// must exist.
func New(dotenv ...string) (*Config, error) {
	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(dotenv...); err != nil {
		if len(dotenv) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load dotenv: %w", err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.HistoryLimit < 1 {
		errs = append(errs, fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.HistoryLimit))
	}
	if c.MaxConcurrency < 0 {
		errs = append(errs, fmt.Errorf("MAX_CONCURRENCY must not be negative, got %d", c.MaxConcurrency))
	}
	if c.ReplyRate <= 0 || c.ReplyBurst < 1 {
		errs = append(errs, fmt.Errorf("REPLY_RATE and REPLY_BURST must be positive"))
	}
	if c.UserRate <= 0 || c.UserBurst < 1 {
		errs = append(errs, fmt.Errorf("USER_RATE and USER_BURST must be positive"))
	}
	return errors.Join(errs...)
}

// RequireDiscord checks the settings only the Discord bot needs.
func (c *Config) RequireDiscord() error {
	if c.DiscordToken == "" {
		return ErrMissingToken
	}
	return nil
}
