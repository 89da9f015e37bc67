package sqlite

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/myrjola/interrogation/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func TestDatabase_migrate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name              string
		schemaDefinitions []string
		testQueries       []string
		wantErr           bool
	}{
		{
			name:              "empty schema",
			schemaDefinitions: []string{""},
			testQueries:       []string{"SELECT * FROM sqlite_schema"},
			wantErr:           false,
		},
		{
			name:              "create table",
			schemaDefinitions: []string{"CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT)"},
			testQueries: []string{
				"INSERT INTO test (name) VALUES ('test')",
				"SELECT * FROM test",
			},
			wantErr: false,
		},
		{
			name: "keep table missing from schema",
			schemaDefinitions: []string{
				"CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT)",
				"",
			},
			testQueries: []string{"INSERT INTO test (name) VALUES ('test')"},
			wantErr:     false,
		},
		{
			name: "add column",
			schemaDefinitions: []string{
				"CREATE TABLE test (id INTEGER PRIMARY KEY)",
				"CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT)",
			},
			testQueries: []string{"INSERT INTO test (name) VALUES ('test')"},
			wantErr:     false,
		},
		{
			name: "keep column missing from schema",
			schemaDefinitions: []string{
				"CREATE TABLE test (id INTEGER PRIMARY KEY)",
				"CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT)",
				"CREATE TABLE test (id INTEGER PRIMARY KEY)",
			},
			testQueries: []string{"INSERT INTO test (name) VALUES ('test')"},
			wantErr:     false,
		},
		{
			name: "keep data when adding column",
			schemaDefinitions: []string{
				"CREATE TABLE People (Id INTEGER PRIMARY KEY, Name TEXT NOT NULL)",
				"INSERT INTO People (Name) VALUES ('John Doe')",
				"CREATE TABLE People (Id INTEGER PRIMARY KEY, Name TEXT NOT NULL, IsExposed BOOLEAN NOT NULL DEFAULT 0)",
			},
			testQueries: []string{"UPDATE People SET IsExposed = 1 WHERE Name = 'John Doe'"},
			wantErr:     false,
		},
		{
			name: "create index",
			schemaDefinitions: []string{
				"CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT); CREATE INDEX test_name ON test (name)",
			},
			testQueries: []string{"DROP INDEX test_name"},
			wantErr:     false,
		},
		{
			name: "keep index missing from schema",
			schemaDefinitions: []string{
				"CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT); CREATE INDEX test_name ON test (name)",
				"CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT)",
			},
			testQueries: []string{"DROP INDEX test_name"},
			wantErr:     false,
		},
		{
			name: "update index",
			schemaDefinitions: []string{
				"CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT); CREATE INDEX test_name ON test (name)",
				"CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT); CREATE INDEX test_name ON test (id, name)",
			},
			testQueries: []string{"DROP INDEX test_name"},
			wantErr:     false,
		},
		{
			name: "create trigger",
			schemaDefinitions: []string{
				`CREATE TABLE test ( id   INTEGER PRIMARY KEY, name TEXT );
                 CREATE TRIGGER test_trigger AFTER INSERT ON test BEGIN SELECT RAISE ( FAIL, 'fail' ); END;`,
			},
			testQueries: []string{"INSERT INTO test (name) VALUES ('test')"},
			wantErr:     true,
		},
		{
			name: "keep trigger missing from schema",
			schemaDefinitions: []string{
				`CREATE TABLE test ( id   INTEGER PRIMARY KEY, name TEXT );
                 CREATE TRIGGER test_trigger AFTER INSERT ON test BEGIN SELECT RAISE ( FAIL, 'fail' ); END;`,
				"CREATE TABLE test ( id   INTEGER PRIMARY KEY, name TEXT )",
			},
			testQueries: []string{"INSERT INTO test (name) VALUES ('test')"},
			wantErr:     true,
		},
		{
			name: "update trigger",
			schemaDefinitions: []string{
				`CREATE TABLE test ( id   INTEGER PRIMARY KEY, name TEXT );
                 CREATE TRIGGER test_trigger AFTER INSERT ON test BEGIN SELECT RAISE ( FAIL, 'fail' ); END;`,
				`CREATE TABLE test ( id   INTEGER PRIMARY KEY, name TEXT );
                 CREATE TRIGGER test_trigger AFTER INSERT ON test BEGIN SELECT 1; END;`,
			},
			testQueries: []string{"INSERT INTO test (name) VALUES ('test')"},
			wantErr:     false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			logger := testhelpers.NewLogger(io.Discard)
			db, err := connect(":memory:", logger)
			require.NoError(t, err)
			t.Cleanup(func() { require.NoError(t, db.close()) })
			for _, schemaDefinition := range tt.schemaDefinitions {
				if strings.HasPrefix(schemaDefinition, "INSERT") {
					_, err = db.ReadWrite.ExecContext(ctx, schemaDefinition)
					require.NoError(t, err)
					continue
				}
				logger.LogAttrs(ctx, slog.LevelInfo, "migrating", slog.String("schema", schemaDefinition))
				err = db.migrateTo(ctx, schemaDefinition)
				require.NoError(t, err)
			}
			for _, query := range tt.testQueries {
				logger.LogAttrs(ctx, slog.LevelInfo, "executing", slog.String("query", query))
				_, err = db.ReadWrite.ExecContext(ctx, query)
				if tt.wantErr {
					require.Error(t, err)
				} else {
					require.NoError(t, err)
				}
			}
		})
	}
}

func TestDatabase_migrateKeepsData(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, err := connect(":memory:", testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.close()) })

	legacy := `CREATE TABLE People (Id INTEGER PRIMARY KEY AUTOINCREMENT, Name TEXT NOT NULL, IsExposed BOOLEAN);
CREATE TABLE GameLogs (Id INTEGER PRIMARY KEY AUTOINCREMENT, PersonId INTEGER NOT NULL, Action TEXT NOT NULL,
    Details TEXT, Timestamp DATETIME NOT NULL, FOREIGN KEY (PersonId) REFERENCES People(Id));`
	require.NoError(t, db.migrateTo(ctx, legacy))
	_, err = db.ReadWrite.ExecContext(ctx, "INSERT INTO People (Name, IsExposed) VALUES ('Alice Brown', 1)")
	require.NoError(t, err)
	_, err = db.ReadWrite.ExecContext(ctx,
		"INSERT INTO GameLogs (PersonId, Action, Details, Timestamp) VALUES (1, 'Exposed', 'turn 3', '2026-10-18')")
	require.NoError(t, err)

	require.NoError(t, db.migrateTo(ctx, schemaDefinition))

	var (
		name      string
		isExposed bool
		logs      int
	)
	err = db.ReadOnly.QueryRowContext(ctx, "SELECT Name, IsExposed FROM People WHERE Id = 1").Scan(&name, &isExposed)
	require.NoError(t, err)
	require.Equal(t, "Alice Brown", name)
	require.True(t, isExposed)
	err = db.ReadOnly.QueryRowContext(ctx, "SELECT COUNT(*) FROM GameLogs WHERE PersonId = 1").Scan(&logs)
	require.NoError(t, err)
	require.Equal(t, 1, logs)

	_, err = db.ReadWrite.ExecContext(ctx, "INSERT INTO PersonRanks (PersonId, Rank) VALUES (1, 'general')")
	require.Error(t, err, "rank check constraint is in place")
	_, err = db.ReadWrite.ExecContext(ctx, "INSERT INTO PersonRanks (PersonId, Rank) VALUES (42, 'foot_soldier')")
	require.Error(t, err, "foreign keys are enforced after migration")
}

func TestDatabase_migrateKeepsForeignData(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db, err := connect(":memory:", testhelpers.NewLogger(io.Discard))
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, db.close()) })

	_, err = db.ReadWrite.ExecContext(ctx, `
CREATE TABLE People (Id INTEGER PRIMARY KEY AUTOINCREMENT, Name TEXT NOT NULL, Affiliation TEXT);
CREATE INDEX People_Affiliation ON People (Affiliation);
CREATE TABLE Notes (Id INTEGER PRIMARY KEY, Body TEXT);
INSERT INTO People (Name, Affiliation) VALUES ('Bob Johnson', 'Red Cell');
INSERT INTO Notes (Body) VALUES ('seen near the harbor');`)
	require.NoError(t, err)

	for range 2 {
		require.NoError(t, db.migrateTo(ctx, schemaDefinition))
	}

	var (
		affiliation string
		isExposed   bool
		body        string
		indexes     int
	)
	err = db.ReadOnly.QueryRowContext(ctx, "SELECT Affiliation, IsExposed FROM People WHERE Name = 'Bob Johnson'").
		Scan(&affiliation, &isExposed)
	require.NoError(t, err)
	require.Equal(t, "Red Cell", affiliation)
	require.False(t, isExposed, "missing column is added with its default")

	err = db.ReadOnly.QueryRowContext(ctx, "SELECT Body FROM Notes").Scan(&body)
	require.NoError(t, err)
	require.Equal(t, "seen near the harbor", body)

	err = db.ReadOnly.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sqlite_schema WHERE name IN ('People_Affiliation', 'GameLogs_PersonId')").Scan(&indexes)
	require.NoError(t, err)
	require.Equal(t, 2, indexes)

	_, err = db.ReadWrite.ExecContext(ctx,
		"INSERT INTO GameLogs (PersonId, Action, Details, Timestamp) VALUES (1, 'Start', 'turn 1', '2026-10-18')")
	require.NoError(t, err)
}

func TestDatabase_migrateRejectsColumnsThatCannotBeAdded(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		target string
	}{
		{name: "not null without default", target: "CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT NOT NULL)"},
		{name: "primary key", target: "CREATE TABLE test (name TEXT, code TEXT, PRIMARY KEY (name, code))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			db, err := connect(":memory:", testhelpers.NewLogger(io.Discard))
			require.NoError(t, err)
			t.Cleanup(func() { require.NoError(t, db.close()) })
			require.NoError(t, db.migrateTo(ctx, "CREATE TABLE test (id INTEGER PRIMARY KEY, name TEXT)"))

			err = db.migrateTo(ctx, tt.target)
			require.ErrorIs(t, err, ErrColumnNotAddable)
			_, err = db.ReadWrite.ExecContext(ctx, "INSERT INTO test (id, name) VALUES (1, 'kept')")
			require.NoError(t, err, "failed migration leaves the table as it was")
		})
	}
}
