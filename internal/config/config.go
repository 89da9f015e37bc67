// Package config reads the process configuration from the environment.
package config

import (
	"log/slog"
	"time"

	"github.com/myrjola/interrogation/internal/envstruct"
	"github.com/myrjola/interrogation/internal/errors"
	"github.com/myrjola/interrogation/internal/logging"
	"github.com/myrjola/interrogation/internal/models"
)

type Config struct {
	// DatabasePath is the SQLite file holding People and GameLogs. ":memory:" keeps everything in memory.
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./interrogation.sqlite"`
	// Seed makes weakness patterns and rank draws reproducible. 0 picks a random seed.
	Seed     int64  `env:"INTERROGATION_SEED"      envDefault:"0"`
	LogLevel string `env:"INTERROGATION_LOG_LEVEL" envDefault:"warn"`
	// Rank, when set, is given to every suspect that has no stored rank yet.
	Rank         string `env:"INTERROGATION_RANK" envDefault:""`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"     envDefault:""`
	OpenAIModel  string `env:"OPENAI_MODEL"       envDefault:"gpt-3.5-turbo"`
	// OpenAITimeoutSeconds bounds each interrogate request so a stalled network call cannot freeze the game.
	OpenAITimeoutSeconds int `env:"OPENAI_TIMEOUT_SECONDS" envDefault:"20"`

	level slog.Level
	rank  models.Rank
}

var ErrInvalidTimeout = errors.NewSentinel("timeout must be a positive number of seconds")

// Load populates a Config with lookupEnv, which has the signature of [os.LookupEnv].
func Load(lookupEnv func(string) (string, bool)) (Config, error) {
	var (
		cfg Config
		err error
	)
	if err = envstruct.Populate(&cfg, lookupEnv); err != nil {
		return Config{}, errors.Wrap(err, "populate config")
	}
	if err = cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var err error
	if c.level, err = logging.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrap(err, "INTERROGATION_LOG_LEVEL")
	}
	if c.OpenAITimeoutSeconds <= 0 {
		return errors.Wrap(ErrInvalidTimeout, "OPENAI_TIMEOUT_SECONDS", slog.Int("value", c.OpenAITimeoutSeconds))
	}
	c.rank = ""
	if c.Rank != "" {
		if c.rank, err = models.ParseRank(c.Rank); err != nil {
			return errors.Wrap(err, "INTERROGATION_RANK")
		}
	}
	return nil
}

// Level is the parsed LogLevel.
func (c Config) Level() slog.Level {
	return c.level
}

// ForcedRank is the parsed Rank. It is empty when ranks are drawn at random.
func (c Config) ForcedRank() models.Rank {
	return c.rank
}

// OpenAITimeout is OpenAITimeoutSeconds as a duration.
func (c Config) OpenAITimeout() time.Duration {
	return time.Duration(c.OpenAITimeoutSeconds) * time.Second
}
