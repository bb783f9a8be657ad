package migrate

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"testing/fstest"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	migrations "github.com/dropDatabas3/blueprint/migrations/postgres"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"schema/0002_clients.up.sql":    {Data: []byte("CREATE TABLE clients (id TEXT)")},
		"schema/0001_accounts.up.sql":   {Data: []byte("CREATE TABLE accounts (id TEXT)")},
		"schema/0001_accounts.down.sql": {Data: []byte("DROP TABLE accounts")},
		"schema/README.md":              {Data: []byte("ignored")},
	}
}

func TestParseOrdersAndFilters(t *testing.T) {
	m := New(nil, testFS(), "schema")
	got, err := m.Parse()
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.Equal(t, 1, got[0].Version)
	require.Equal(t, "accounts", got[0].Name)
	require.Equal(t, 2, got[1].Version)
}

func TestParseEmbeddedSchema(t *testing.T) {
	m := New(nil, migrations.FS, migrations.Dir)
	got, err := m.Parse()
	require.NoError(t, err)
	require.NotEmpty(t, got)
	for i := 1; i < len(got); i++ {
		require.Less(t, got[i-1].Version, got[i].Version)
	}
}

func TestParseRejectsDuplicateVersion(t *testing.T) {
	fsys := testFS()
	fsys["schema/0001_other.up.sql"] = &fstest.MapFile{Data: []byte("SELECT 1")}
	_, err := New(nil, fsys, "schema").Parse()
	require.Error(t, err)
}

func TestUpAppliesOnlyPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(1))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE clients (id TEXT)")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schema_migrations (version, name) VALUES ($1, $2)")).
		WithArgs(2, "clients").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	res, err := New(db, testFS(), "schema").Up(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{2}, res.Applied)
	require.Equal(t, []int{1}, res.Skipped)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpRollsBackOnFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version FROM schema_migrations")).
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE accounts (id TEXT)")).
		WillReturnError(errors.New("boom"))
	mock.ExpectRollback()

	_, err = New(db, testFS(), "schema").Up(context.Background())
	require.ErrorContains(t, err, "0001_accounts")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT version, name, applied_at FROM schema_migrations ORDER BY version")).
		WillReturnRows(sqlmock.NewRows([]string{"version", "name", "applied_at"}).AddRow(1, "accounts", at))

	got, err := New(db, testFS(), "schema").Status(context.Background())
	require.NoError(t, err)
	require.Equal(t, []Applied{{Version: 1, Name: "accounts", AppliedAt: at}}, got)
	require.NoError(t, mock.ExpectationsWereMet())
}
