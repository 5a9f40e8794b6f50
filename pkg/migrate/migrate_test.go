package migrate

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"

	"github.com/angelmondragon/importgroups-backend/pkg/config"
	"github.com/angelmondragon/importgroups-backend/pkg/db"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.Open(sqlite.Open("file:" + t.Name() + "?mode=memory&cache=shared"))
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return sqlDB
}

func TestArchivedGroupsMigrationContents(t *testing.T) {
	matches, err := fs.Glob(embedded, "migrations/*_create_archived_groups.sql")
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := fs.ReadFile(embedded, matches[0])
	require.NoError(t, err)
	content := string(data)
	for _, sub := range []string{
		"CREATE TABLE IF NOT EXISTS archived_groups",
		"id TEXT PRIMARY KEY",
		"CHECK (transport_mode IN ('land', 'air', 'maritime'))",
		"CHECK (status IN ('forming', 'complete'))",
		"idx_archived_groups_retired_at",
		"DROP TABLE IF EXISTS archived_groups",
	} {
		assert.Contains(t, content, sub)
	}
	require.NoError(t, ValidateFS(embedded, embeddedDir))
}

func TestRunUpAndDownOnSQLite(t *testing.T) {
	ctx := context.Background()
	sqlDB := openSQLite(t)

	require.NoError(t, Run(ctx, sqlDB, config.DriverSQLite, Embedded(), "up"))
	version, err := CurrentVersion(sqlDB, config.DriverSQLite)
	require.NoError(t, err)
	assert.Equal(t, int64(20250301120000), version)

	_, err = sqlDB.ExecContext(ctx, `INSERT INTO archived_groups
		(id, display_name, cargo_category, transport_mode, origin_country, weight_class, status, created_at, retired_at)
		VALUES ('a', 'Air Import', 'Dry Goods', 'air', 'Japan', 'light', 'forming', ?, ?)`, time.Now().UTC(), time.Now().UTC())
	require.NoError(t, err)

	_, err = sqlDB.ExecContext(ctx, `INSERT INTO archived_groups
		(id, display_name, cargo_category, transport_mode, origin_country, weight_class, status, created_at, retired_at)
		VALUES ('b', 'Air Import', 'Dry Goods', 'rail', 'Japan', 'light', 'forming', ?, ?)`, time.Now().UTC(), time.Now().UTC())
	require.Error(t, err, "check constraint must reject unknown transport modes")

	require.NoError(t, MigrateToVersion(ctx, sqlDB, config.DriverSQLite, Embedded(), "0"))
	_, err = sqlDB.ExecContext(ctx, `SELECT 1 FROM archived_groups`)
	require.Error(t, err)
}

func TestRunValidation(t *testing.T) {
	ctx := context.Background()
	require.Error(t, Run(ctx, nil, config.DriverSQLite, Embedded(), "up"))
	require.Error(t, Run(ctx, openSQLite(t), "mysql", Embedded(), "up"))
	require.Error(t, Run(ctx, openSQLite(t), config.DriverSQLite, Source{}, "up"))
	require.Error(t, MigrateToVersion(ctx, openSQLite(t), config.DriverSQLite, Embedded(), "v1"))
}

func TestDialect(t *testing.T) {
	got, err := Dialect("postgres")
	require.NoError(t, err)
	assert.Equal(t, "postgres", got)
	got, err = Dialect(" SQLite ")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", got)
	_, err = Dialect("oracle")
	require.Error(t, err)
}

func TestValidateFSRejectsBadFiles(t *testing.T) {
	body := []byte("-- +goose Up\nSELECT 1;\n-- +goose Down\nSELECT 1;\n")
	cases := map[string]fstest.MapFS{
		"bad name": {"m/001_x.sql": {Data: body}},
		"duplicate": {
			"m/20250101000000_a.sql": {Data: body},
			"m/20250101000000_b.sql": {Data: body},
		},
		"no down":  {"m/20250101000000_a.sql": {Data: []byte("-- +goose Up\n")}},
		"reversed": {"m/20250101000000_a.sql": {Data: []byte("-- +goose Down\n-- +goose Up\n")}},
	}
	for name, fsys := range cases {
		assert.Error(t, ValidateFS(fsys, "m"), name)
	}

	ok := fstest.MapFS{
		"m/20250101000000_a.sql": {Data: body},
		"m/README.md":            {Data: []byte("notes")},
	}
	assert.NoError(t, ValidateFS(ok, "m"))
}

func TestCreateSQLMigration(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "migrations")
	now := time.Date(2025, 6, 7, 8, 9, 10, 0, time.UTC)

	path, err := createSQLMigration(dir, "  Add Archive Index!  ", now)
	require.NoError(t, err)
	assert.Equal(t, "20250607080910_add_archive_index.sql", filepath.Base(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "-- +goose Up"))
	require.NoError(t, ValidateDir(dir))

	_, err = createSQLMigration(dir, "add archive index", now)
	require.Error(t, err, "same version and name must not overwrite")

	_, err = createSQLMigration(dir, "!!!", now)
	require.Error(t, err)
	_, err = createSQLMigration("", "x", now)
	require.Error(t, err)
}
