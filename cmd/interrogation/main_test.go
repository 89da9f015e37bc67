package main

import (
	"bytes"
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/myrjola/interrogation/internal/models"
	"github.com/myrjola/interrogation/internal/sensors"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type testEnv map[string]string

func (e testEnv) lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

// execute runs the root command with args and stdin and returns what it wrote to stdout.
func execute(t *testing.T, env testEnv, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(env.lookup)
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

func newEnv(t *testing.T) testEnv {
	t.Helper()
	return testEnv{
		"DATABASE_PATH":      filepath.Join(t.TempDir(), "interrogation.sqlite"),
		"INTERROGATION_RANK": "foot_soldier",
		"INTERROGATION_SEED": "5",
	}
}

func TestPlay_LogsActions(t *testing.T) {
	t.Parallel()
	env := newEnv(t)

	out, err := execute(t, env, "start\nattach 0 audio\nend_turn\nexit\n")
	require.NoError(t, err)
	require.Contains(t, out, "Interrogating #1 John Doe (Foot Soldier). Turn 1.")
	require.Contains(t, out, "Thanks for playing!")

	out, err = execute(t, env, "", "logs", "--person", "1", "--yaml")
	require.NoError(t, err)
	var entries []models.LogEntry
	require.NoError(t, yaml.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 3)
	require.Equal(t, models.ActionStart, entries[0].Action)
	require.Equal(t, models.ActionAttach, entries[1].Action)
	require.Equal(t, models.ActionEndTurn, entries[2].Action)
	require.Equal(t, "turn 1: turn ended with 1 sensors attached", entries[2].Details)

	out, err = execute(t, env, "", "logs")
	require.NoError(t, err)
	require.Equal(t, 3, strings.Count(out, "#1 "))
}

func TestPlay_ExposureIsPersisted(t *testing.T) {
	t.Parallel()
	env := newEnv(t)

	// A foot soldier's weakness is a single sensor, so trying each one in turn exposes it.
	var input strings.Builder
	input.WriteString("start\n")
	for _, typ := range sensors.All() {
		input.WriteString(typ.String() + "\nactivate\nremove 0\n")
	}
	input.WriteString("check_victory\nexit\n")

	out, err := execute(t, env, input.String())
	require.NoError(t, err)
	require.Contains(t, out, "John Doe has been exposed!")
	require.Contains(t, out, "Suspects remain at large.")
	require.Contains(t, out, "Exposed suspects: 1/6.")

	out, err = execute(t, env, "roster\nstart\nexit\n")
	require.NoError(t, err)
	require.Contains(t, out, "6 suspects in custody, 1 exposed.")
	require.Contains(t, out, "Interrogating #2 Jane Smith", "exposed suspects are skipped after a restart")

	out, err = execute(t, env, "", "logs", "--person", "1")
	require.NoError(t, err)
	require.Contains(t, out, "Exposed")
}

func TestPlay_SharedDatabase(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	env := newEnv(t)
	_, err := execute(t, env, "exit\n")
	require.NoError(t, err)

	// Another program owns tables and columns of its own in the same file.
	db, err := sql.Open("sqlite3", env["DATABASE_PATH"])
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `
ALTER TABLE People ADD COLUMN Affiliation TEXT;
UPDATE People SET Affiliation = 'Red Cell' WHERE Id = 1;
CREATE TABLE Notes (Id INTEGER PRIMARY KEY, Body TEXT);
INSERT INTO Notes (Body) VALUES ('seen near the harbor');`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = execute(t, env, "start\nattach 0 audio\nend_turn\nexit\n")
	require.NoError(t, err)

	db, err = sql.Open("sqlite3", env["DATABASE_PATH"])
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.Close()) })
	var (
		body        string
		affiliation string
		logs        int
	)
	require.NoError(t, db.QueryRowContext(ctx, "SELECT Body FROM Notes").Scan(&body))
	require.Equal(t, "seen near the harbor", body)
	require.NoError(t, db.QueryRowContext(ctx, "SELECT Affiliation FROM People WHERE Id = 1").Scan(&affiliation))
	require.Equal(t, "Red Cell", affiliation)
	require.NoError(t, db.QueryRowContext(ctx, "SELECT COUNT(*) FROM GameLogs WHERE PersonId = 1").Scan(&logs))
	require.Equal(t, 3, logs)
}

func TestSeed(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	file := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`suspects:
  - name: Edgar Allan
    rank: Organization_Leader
  - name: Ada Lovelace
    exposed: true
`), 0o600))

	out, err := execute(t, env, "", "seed", "--file", file)
	require.NoError(t, err)
	require.Equal(t, "Added #7 Edgar Allan.\nAdded #8 Ada Lovelace.\n", out)

	out, err = execute(t, env, "roster\nexit\n")
	require.NoError(t, err)
	require.Contains(t, out, "8 suspects in custody, 1 exposed.")
	require.Regexp(t, `#7\s+Edgar Allan\s+Organization Leader\s+at large`, out)
	require.Regexp(t, `#8\s+Ada Lovelace\s+Foot Soldier\s+exposed`, out)
}

func TestSeed_InvalidFile(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		content string
	}{
		{name: "not yaml", content: "suspects: [\n"},
		{name: "empty", content: "suspects: []\n"},
		{name: "no name", content: "suspects:\n  - rank: squad_leader\n"},
		{name: "bad rank", content: "suspects:\n  - name: Bob\n    rank: general\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			file := filepath.Join(t.TempDir(), "roster.yaml")
			require.NoError(t, os.WriteFile(file, []byte(tt.content), 0o600))
			_, err := execute(t, newEnv(t), "", "seed", "--file", file)
			require.ErrorIs(t, err, ErrInvalidRoster)
		})
	}
}

func TestStartupFailures(t *testing.T) {
	t.Parallel()

	t.Run("bad log level", func(t *testing.T) {
		t.Parallel()
		env := newEnv(t)
		env["INTERROGATION_LOG_LEVEL"] = "loud"
		_, err := execute(t, env, "exit\n")
		require.Error(t, err)
	})

	t.Run("database cannot be opened", func(t *testing.T) {
		t.Parallel()
		dbPath := filepath.Join(t.TempDir(), "missing", "dir", "interrogation.sqlite")
		_, err := execute(t, newEnv(t), "exit\n", "--db", dbPath)
		require.Error(t, err)
		_, statErr := os.Stat(dbPath)
		require.ErrorIs(t, statErr, os.ErrNotExist)
	})

	t.Run("help", func(t *testing.T) {
		t.Parallel()
		out, err := execute(t, newEnv(t), "", "--help")
		require.NoError(t, err)
		require.Contains(t, out, "interrogation")
		require.Contains(t, out, "seed")
		require.Contains(t, out, "logs")
	})
}

func TestFlagsOverrideEnvironment(t *testing.T) {
	t.Parallel()
	env := newEnv(t)
	dbPath := filepath.Join(t.TempDir(), "flag.sqlite")

	_, err := execute(t, env, "start\nexit\n", "--db", dbPath, "--seed", "9")
	require.NoError(t, err)
	_, err = os.Stat(dbPath)
	require.NoError(t, err)
	_, err = os.Stat(env["DATABASE_PATH"])
	require.ErrorIs(t, err, os.ErrNotExist)
}
