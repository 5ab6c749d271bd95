package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/hubcli/internal/flagx"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "HUB_"

// Config holds runtime settings for the hub CLI.
type Config struct {
	APIBaseURL          string        `env:"API_URL"`
	DatabasePath        string        `env:"DB_PATH"`
	RequestTimeout      time.Duration `env:"REQUEST_TIMEOUT"`
	ResendCooldown      time.Duration `env:"RESEND_COOLDOWN"`
	OnlineCheckInterval time.Duration `env:"ONLINE_CHECK_INTERVAL"`
	LogLevel            string        `env:"LOG_LEVEL"`
	LogFormat           string        `env:"LOG_FORMAT"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "https://api.cpp-hub.com/api"
	c.DatabasePath = "hub.db"
	c.RequestTimeout = 10 * time.Second
	c.ResendCooldown = 60 * time.Second
	c.OnlineCheckInterval = 15 * time.Second
	c.LogLevel = "info"
	c.LogFormat = "text"
}

// LoadConfig builds the configuration from the process environment and
// os.Args. Invalid input panics: there is nothing sensible to run without a
// configuration.
func LoadConfig() *Config {
	cfg, err := Load(os.Args[1:], ".env", nil)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load applies every layer in order. dotenv names the optional .env file
// ("" skips it). environ replaces the process environment when non-nil.
func Load(args []string, dotenv string, environ map[string]string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if dotenv != "" && environ == nil {
		if err := godotenv.Load(dotenv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenv, err)
		}
	}

	if err := parseEnv(cfg, environ); err != nil {
		return nil, err
	}
	if err := parseFile(cfg, flagx.ConfigFileFlag(args)); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}
	return nil
}
