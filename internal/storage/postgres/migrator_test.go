package postgres

import (
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	migrations, err := loadMigrationsFromFS(migrationsFS)
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	require.Equal(t, int64(1), migrations[0].Version)
	require.Equal(t, "0001_directory", migrations[0].fileName())
	require.Equal(t, int64(2), migrations[1].Version)
	require.Equal(t, "0002_orders", migrations[1].fileName())

	for _, m := range migrations {
		require.NotEmpty(t, m.UpSQL, m.fileName())
		require.NotEmpty(t, m.DownSQL, m.fileName())
	}

	orders := migrations[1].UpSQL
	require.Contains(t, orders, "CREATE TABLE IF NOT EXISTS orders")
	require.Contains(t, orders, "CREATE TABLE IF NOT EXISTS idempotency_keys")
	// Сумма заказа хранится без округления.
	require.Contains(t, orders, "total_amount NUMERIC NOT NULL")
	require.NotContains(t, orders, "NUMERIC(")
}

func TestMigrationFileName(t *testing.T) {
	require.Equal(t, "0007_add_index", migration{Version: 7, Name: "add_index"}.fileName())
	require.Equal(t, "12345_big", migration{Version: 12345, Name: "big"}.fileName())
}

func TestNewMigrationState(t *testing.T) {
	migrations := []migration{
		{Version: 1, Name: "directory"},
		{Version: 2, Name: "orders"},
		{Version: 3, Name: "audit"},
	}

	cases := []struct {
		name    string
		applied map[int64]bool
		want    MigrationState
	}{
		{
			name:    "empty schema",
			applied: map[int64]bool{},
			want:    MigrationState{Pending: []string{"0001_directory", "0002_orders", "0003_audit"}},
		},
		{
			name:    "partially applied",
			applied: map[int64]bool{1: true},
			want:    MigrationState{Version: 1, Applied: 1, Pending: []string{"0002_orders", "0003_audit"}},
		},
		{
			name:    "gap keeps lower version pending",
			applied: map[int64]bool{1: true, 3: true},
			want:    MigrationState{Version: 3, Applied: 2, Pending: []string{"0002_orders"}},
		},
		{
			name:    "fully applied",
			applied: map[int64]bool{1: true, 2: true, 3: true},
			want:    MigrationState{Version: 3, Applied: 3},
		},
		{
			name:    "unknown version in database",
			applied: map[int64]bool{1: true, 2: true, 3: true, 9: true},
			want:    MigrationState{Version: 9, Applied: 4},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, newMigrationState(migrations, tc.applied))
		})
	}
}

func TestLoadMigrationsFromFS_Errors(t *testing.T) {
	cases := []struct {
		name    string
		files   fstest.MapFS
		wantErr string
	}{
		{
			name:    "no files",
			files:   fstest.MapFS{},
			wantErr: "no migration files",
		},
		{
			name: "missing down",
			files: fstest.MapFS{
				"sql/migrations/0001_directory.up.sql": {Data: []byte("CREATE TABLE users (id TEXT);")},
			},
			wantErr: "both up and down",
		},
		{
			name: "invalid name",
			files: fstest.MapFS{
				"sql/migrations/orders.sql": {Data: []byte("SELECT 1;")},
			},
			wantErr: "invalid migration file name",
		},
		{
			name: "empty body",
			files: fstest.MapFS{
				"sql/migrations/0001_directory.up.sql":   {Data: []byte("  \n")},
				"sql/migrations/0001_directory.down.sql": {Data: []byte("DROP TABLE users;")},
			},
			wantErr: "empty",
		},
		{
			name: "name mismatch",
			files: fstest.MapFS{
				"sql/migrations/0001_directory.up.sql": {Data: []byte("CREATE TABLE users (id TEXT);")},
				"sql/migrations/0001_orders.down.sql":  {Data: []byte("DROP TABLE users;")},
			},
			wantErr: "name mismatch",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := loadMigrationsFromFS(tc.files)
			require.Error(t, err)
			require.True(t, strings.Contains(err.Error(), tc.wantErr), err.Error())
		})
	}
}

func migrationNames(plan []migration) []string {
	names := make([]string, 0, len(plan))
	for _, m := range plan {
		names = append(names, m.fileName())
	}
	return names
}

func TestPlanUp(t *testing.T) {
	migrations := []migration{{Version: 1, Name: "directory"}, {Version: 2, Name: "orders"}, {Version: 3, Name: "audit"}}

	require.Equal(t, []string{"0001_directory", "0002_orders", "0003_audit"}, migrationNames(planUp(migrations, map[int64]bool{}, 0)))
	require.Equal(t, []string{"0002_orders"}, migrationNames(planUp(migrations, map[int64]bool{1: true}, 1)))
	require.Equal(t, []string{"0002_orders"}, migrationNames(planUp(migrations, map[int64]bool{1: true, 3: true}, 0)))
	require.Empty(t, planUp(migrations, map[int64]bool{1: true, 2: true, 3: true}, 0))
}

func TestPlanDown(t *testing.T) {
	migrations := []migration{{Version: 1, Name: "directory"}, {Version: 2, Name: "orders"}, {Version: 3, Name: "audit"}}
	applied := map[int64]bool{1: true, 2: true, 3: true}

	plan, err := planDown(migrations, applied, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"0003_audit"}, migrationNames(plan))

	plan, err = planDown(migrations, applied, 5)
	require.NoError(t, err)
	require.Equal(t, []string{"0003_audit", "0002_orders", "0001_directory"}, migrationNames(plan))

	plan, err = planDown(migrations, map[int64]bool{}, 1)
	require.NoError(t, err)
	require.Empty(t, plan)

	_, err = planDown(migrations, map[int64]bool{1: true, 7: true}, 1)
	require.ErrorContains(t, err, "unknown migration version 7")
}
