package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/dmitrijs2005/trackify/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pgUserID = "8f9c1f5e-3f39-4e55-9a43-7c6c3a4f5d21"

func newPostgresWallet(t *testing.T) (*WalletService, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return newWallet(repomanager.NewPostgresRepositoryManager(db)), mock
}

func expectLockedUser(mock sqlmock.Sqlmock, balance string) {
	mock.ExpectQuery(`(?s)^SELECT id, username, password_hash, balance, created_at FROM users WHERE id = \$1 FOR UPDATE$`).
		WithArgs(pgUserID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "password_hash", "balance", "created_at"}).
			AddRow(pgUserID, "alice", "hash", balance, time.Now()))
}

func TestDeposit_Postgres_CommitsBothWrites(t *testing.T) {
	s, mock := newPostgresWallet(t)

	mock.ExpectBegin()
	expectLockedUser(mock, "10.00")
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+transactions`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
			AddRow("0b7e3e8a-6f53-4bde-9f0e-4a1b2c3d4e5f", time.Now()))
	mock.ExpectExec(`^UPDATE users SET balance = \$1 WHERE id = \$2$`).
		WithArgs("15", pgUserID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	r, err := s.Deposit(context.Background(), pgUserID, dec("5"), "", "")
	require.NoError(t, err)
	assert.True(t, dec("15").Equal(r.Balance))
	assert.Equal(t, "0b7e3e8a-6f53-4bde-9f0e-4a1b2c3d4e5f", r.Transaction.ID)
}

func TestDeposit_Postgres_RollsBackWhenBalanceUpdateFails(t *testing.T) {
	s, mock := newPostgresWallet(t)

	mock.ExpectBegin()
	expectLockedUser(mock, "10.00")
	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+transactions`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
			AddRow("0b7e3e8a-6f53-4bde-9f0e-4a1b2c3d4e5f", time.Now()))
	mock.ExpectExec(`^UPDATE users SET balance`).
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	_, err := s.Deposit(context.Background(), pgUserID, dec("5"), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestWithdraw_Postgres_InsufficientBalanceWritesNothing(t *testing.T) {
	s, mock := newPostgresWallet(t)

	mock.ExpectBegin()
	expectLockedUser(mock, "1.00")
	mock.ExpectRollback()

	_, err := s.Withdraw(context.Background(), pgUserID, dec("5"), "", "")
	assert.ErrorIs(t, err, common.ErrorInsufficientBalance)
}

func TestDeposit_Postgres_UnknownUser(t *testing.T) {
	s, mock := newPostgresWallet(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	_, err := s.Deposit(context.Background(), "not-a-uuid", dec("5"), "", "")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestReconcile_Postgres_ReadsUnderUserLock(t *testing.T) {
	s, mock := newPostgresWallet(t)

	mock.ExpectBegin()
	expectLockedUser(mock, "15.00")
	mock.ExpectQuery(`^SELECT COALESCE\(SUM\(revenue - cost\), 0\) FROM transactions WHERE user_id = \$1$`).
		WithArgs(pgUserID).
		WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("15.00"))
	mock.ExpectCommit()

	r, err := s.Reconcile(context.Background(), pgUserID)
	require.NoError(t, err)
	assert.True(t, r.Balanced())
	assert.True(t, dec("15").Equal(r.Stored))
}
