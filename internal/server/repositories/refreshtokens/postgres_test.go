package refreshtokens

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresRepository(db), mock
}

func TestCreate_UsesValidity(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	mock.ExpectExec(`(?s)^INSERT\s+INTO\s+refresh_tokens\s*\(user_id,\s*token,\s*expires_at\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)$`).
		WithArgs("u1", "tok", now.Add(time.Hour)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Create(context.Background(), "u1", "tok", time.Hour))
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`INSERT\s+INTO\s+refresh_tokens`).WillReturnError(errors.New("down"))

	err := repo.Create(context.Background(), "u1", "tok", time.Hour)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: down")
}

func TestFind(t *testing.T) {
	q := `(?s)^SELECT\s+id,\s*user_id,\s*token,\s*expires_at,\s*created_at\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1$`

	t.Run("found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery(q).WithArgs("tok").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token", "expires_at", "created_at"}).
				AddRow("id1", "u1", "tok", exp, time.Now()))

		rt, err := repo.Find(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "u1", rt.UserID)
		assert.Equal(t, exp, rt.Expires)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock := newRepoWithMock(t)
		mock.ExpectQuery(q).WithArgs("nope").WillReturnError(sql.ErrNoRows)

		_, err := repo.Find(context.Background(), "nope")
		require.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`^DELETE\s+FROM\s+refresh_tokens\s+WHERE\s+token\s*=\s*\$1$`).
		WithArgs("tok").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "tok"))
}
