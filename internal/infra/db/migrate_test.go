package db

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		expect  func(mock sqlmock.Sqlmock)
		wantErr error
	}{
		{
			name:   "postgres",
			driver: DriverPostgres,
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS articles").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec(`idx_articles_published_at ON articles\(published_at COLLATE "C" DESC\)`).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("WHERE bookmarked = TRUE").WillReturnResult(sqlmock.NewResult(0, 0))
			},
		},
		{
			name:   "table fails",
			driver: DriverSQLite,
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS articles").WillReturnError(sql.ErrConnDone)
			},
			wantErr: sql.ErrConnDone,
		},
		{
			name:   "index fails after table",
			driver: DriverSQLite,
			expect: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE TABLE IF NOT EXISTS articles").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectExec("idx_articles_published_at").WillReturnError(sql.ErrTxDone)
			},
			wantErr: sql.ErrTxDone,
		},
		{
			name:    "unknown driver runs nothing",
			driver:  "oracle",
			expect:  func(sqlmock.Sqlmock) {},
			wantErr: ErrUnknownDriver,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			tt.expect(mock)

			err = Migrate(context.Background(), db, tt.driver)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

// 実際のSQLiteで二回実行しても失敗しないこと
func TestMigrate_SQLiteIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, DriverSQLite, ":memory:")
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	require.NoError(t, Migrate(ctx, db, DriverSQLite))
	require.NoError(t, Migrate(ctx, db, DriverSQLite))

	insert := `INSERT INTO articles (title, published_at, url, source_name) VALUES (?, '2024', 'u', 's')`
	_, err = db.ExecContext(ctx, insert, "a")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, insert, "b")
	assert.Error(t, err, "url must be unique")

	require.NoError(t, MigrateDown(ctx, db))
	_, err = db.ExecContext(ctx, insert, "c")
	assert.Error(t, err, "table is gone")
}

func TestMigrateDown_StopsAtFirstError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("DROP INDEX IF EXISTS idx_articles_bookmarked").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DROP INDEX IF EXISTS idx_articles_published_at").WillReturnError(sql.ErrConnDone)

	err = MigrateDown(context.Background(), db)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	assert.Contains(t, err.Error(), "statement 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}
