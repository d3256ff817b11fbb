package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func expectSchemaPreamble(mock sqlmock.Sqlmock, current int) {
	mock.ExpectBegin()
	mock.ExpectExec(`SELECT pg_advisory_xact_lock`).WithArgs(schemaLockID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS schema_migrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(version\), 0\) FROM schema_migrations`).
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(current))
}

func TestEnsureSchemaAppliesAllMigrationsOnEmptyDatabase(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	expectSchemaPreamble(mock, 0)
	for _, m := range migrations {
		mock.ExpectExec(`.+`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`INSERT INTO schema_migrations`).
			WithArgs(m.version, m.name, fixedNow).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaSkipsAppliedMigrations(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	expectSchemaPreamble(mock, 1)
	mock.ExpectExec(`ALTER TABLE documents`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO schema_migrations`).
		WithArgs(2, "classification columns", fixedNow).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := repo.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSchemaRollsBackFailedMigration(t *testing.T) {
	repo, mock, done := newRepoWithMock(t)
	defer done()

	expectSchemaPreamble(mock, 1)
	mock.ExpectExec(`ALTER TABLE documents`).WillReturnError(errors.New("permission denied"))
	mock.ExpectRollback()

	err := repo.EnsureSchema(context.Background())
	if err == nil {
		t.Fatalf("expected migration error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestMigrationVersionsIncrease(t *testing.T) {
	for i := 1; i < len(migrations); i++ {
		if migrations[i].version <= migrations[i-1].version {
			t.Fatalf("migration %q does not follow %q", migrations[i].name, migrations[i-1].name)
		}
	}
}
