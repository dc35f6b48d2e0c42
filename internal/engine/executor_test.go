package engine_test

import (
	"context"
	"errors"
	"testing"

	"db-describe/internal/engine"
	"db-describe/internal/migrations"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*engine.Executor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return engine.NewExecutor(db, nil), mock
}

func TestExecute_GroupsTransactionalBatches(t *testing.T) {
	ex, mock := newMock(t)
	cmds := []migrations.Command{
		{SQL: "CREATE TABLE [A] ([Id] int NOT NULL);\n"},
		{SQL: "CREATE TABLE [B] ([Id] int NOT NULL);\n"},
		{SQL: "EXEC sp_addextendedproperty 'MS_Description', N'hot', 'SCHEMA', N'dbo', 'TABLE', N'Hot';\n", SuppressTransaction: true},
		{SQL: "DROP TABLE [C];\n"},
	}

	mock.ExpectBegin()
	mock.ExpectExec(cmds[0].SQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(cmds[1].SQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec(cmds[2].SQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec(cmds[3].SQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	progress := 0
	ex.OnProgress = func() { progress++ }

	results, err := ex.Execute(context.Background(), cmds)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, 4, progress)
	require.Len(t, results, 4)
	assert.True(t, results[0].Transactional)
	assert.False(t, results[2].Transactional)
	assert.Equal(t, 4, results[3].Batch)
}

func TestExecute_FailureRollsBackOpenTransaction(t *testing.T) {
	ex, mock := newMock(t)
	cmds := []migrations.Command{
		{SQL: "ALTER TABLE [A] ADD [X] int NULL;\n", SuppressTransaction: true},
		{SQL: "ALTER TABLE [A] ADD [Y] int NULL;\n"},
		{SQL: "ALTER TABLE [A] ADD [Z] int NULL;\n"},
		{SQL: "DROP TABLE [A];\n"},
	}

	mock.ExpectExec(cmds[0].SQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec(cmds[1].SQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(cmds[2].SQL).WillReturnError(errors.New("column already exists"))
	mock.ExpectRollback()

	results, err := ex.Execute(context.Background(), cmds)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch 3")
	assert.Contains(t, err.Error(), "column already exists")
	require.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, results, 1, "only the committed batch is reported")
	assert.Equal(t, 1, results[0].Batch)
}

func TestExecute_NonTransactionalFailure(t *testing.T) {
	ex, mock := newMock(t)
	cmds := []migrations.Command{
		{SQL: "CREATE TABLE [A] ([Id] int NOT NULL);\n"},
		{SQL: "CREATE TABLE [Hot] ([Id] int NOT NULL) WITH (MEMORY_OPTIMIZED = ON);\n", SuppressTransaction: true},
	}

	mock.ExpectBegin()
	mock.ExpectExec(cmds[0].SQL).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectExec(cmds[1].SQL).WillReturnError(errors.New("no memory-optimized filegroup"))

	results, err := ex.Execute(context.Background(), cmds)
	assert.ErrorContains(t, err, "batch 2")
	require.NoError(t, mock.ExpectationsWereMet())
	assert.Len(t, results, 1)
}

func TestExecute_BeginError(t *testing.T) {
	ex, mock := newMock(t)
	mock.ExpectBegin().WillReturnError(errors.New("connection reset"))

	_, err := ex.Execute(context.Background(), []migrations.Command{{SQL: "SELECT 1;\n"}})
	assert.ErrorContains(t, err, "failed to begin transaction")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecute_Empty(t *testing.T) {
	ex, mock := newMock(t)
	results, err := ex.Execute(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
	require.NoError(t, mock.ExpectationsWereMet())
}
