package repository

import (
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2025, 2, 10, 12, 16, 12, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return db, mock
}

// q quotes a literal SQL fragment for sqlmock's regexp matcher.
func q(s string) string { return regexp.QuoteMeta(s) }

var userCols = []string{"user_id", "role_id", "role_name", "email", "password_hash",
	"first_name", "last_name", "created_at", "updated_at", "deleted_at"}

func userRow(rows *sqlmock.Rows, id int64, email, hash string, first, last any, deletedAt any) *sqlmock.Rows {
	return rows.AddRow(id, 1, "student", email, hash, first, last, fixedTime, fixedTime, deletedAt)
}

var projectCols = []string{"project_id", "type_id", "type_name", "project_name_th", "project_name_en",
	"abstract_th", "abstract_en", "keywords", "date", "file_name", "file_path",
	"created_at", "updated_at", "deleted_at"}

func projectValues(id int64, keywords any) []driver.Value {
	return []driver.Value{id, int64(3), "Thesis", "ระบบจัดเก็บ", "Archive System", nil, "An archive",
		keywords, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), "report.pdf", "/uploads/abc.pdf",
		fixedTime, fixedTime, nil}
}

func projectRows(extra ...string) *sqlmock.Rows {
	return sqlmock.NewRows(append(append([]string{}, projectCols...), extra...))
}

func countRows(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func boolRows(b bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(b)
}
