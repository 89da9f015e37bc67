package config_test

import (
	"log/slog"
	"testing"
	"time"

	"github.com/myrjola/interrogation/internal/config"
	"github.com/myrjola/interrogation/internal/envstruct"
	"github.com/myrjola/interrogation/internal/logging"
	"github.com/myrjola/interrogation/internal/models"
	"github.com/stretchr/testify/require"
)

func lookup(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()
		cfg, err := config.Load(lookup(nil))
		require.NoError(t, err)
		require.Equal(t, "./interrogation.sqlite", cfg.DatabasePath)
		require.Equal(t, int64(0), cfg.Seed)
		require.Equal(t, slog.LevelWarn, cfg.Level())
		require.Equal(t, models.Rank(""), cfg.ForcedRank())
		require.Equal(t, "gpt-3.5-turbo", cfg.OpenAIModel)
		require.Empty(t, cfg.OpenAIAPIKey)
		require.Equal(t, 20*time.Second, cfg.OpenAITimeout())
	})

	t.Run("overrides", func(t *testing.T) {
		t.Parallel()
		cfg, err := config.Load(lookup(map[string]string{
			"DATABASE_PATH":           "/tmp/game.sqlite",
			"INTERROGATION_SEED":      "42",
			"INTERROGATION_LOG_LEVEL": "DEBUG",
			"INTERROGATION_RANK":      "Organization_Leader",
			"OPENAI_API_KEY":          "sk-test",
			"OPENAI_TIMEOUT_SECONDS":  "5",
		}))
		require.NoError(t, err)
		require.Equal(t, "/tmp/game.sqlite", cfg.DatabasePath)
		require.Equal(t, int64(42), cfg.Seed)
		require.Equal(t, slog.LevelDebug, cfg.Level())
		require.Equal(t, models.RankOrganizationLeader, cfg.ForcedRank())
		require.Equal(t, "sk-test", cfg.OpenAIAPIKey)
		require.Equal(t, 5*time.Second, cfg.OpenAITimeout())
	})

	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{name: "bad seed", env: map[string]string{"INTERROGATION_SEED": "lots"}, wantErr: envstruct.ErrInvalidValue},
		{name: "bad level", env: map[string]string{"INTERROGATION_LOG_LEVEL": "loud"}, wantErr: logging.ErrUnknownLevel},
		{name: "bad rank", env: map[string]string{"INTERROGATION_RANK": "general"}, wantErr: models.ErrInvalidRank},
		{name: "zero timeout", env: map[string]string{"OPENAI_TIMEOUT_SECONDS": "0"}, wantErr: config.ErrInvalidTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := config.Load(lookup(tt.env))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
