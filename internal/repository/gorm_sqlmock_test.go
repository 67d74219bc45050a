package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return db, mock
}

func TestGormRunRepository_GetRun_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormRunRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "mining_runs"`).
		WillReturnError(assert.AnError)

	run, err := repo.GetRun(context.Background(), "run-1")
	assert.Error(t, err)
	assert.Nil(t, run)
	assert.Contains(t, err.Error(), "failed to get mining run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRunRepository_ListPatterns_QueryError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormRunRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "pattern_records"`).
		WillReturnError(assert.AnError)

	patterns, err := repo.ListPatterns(context.Background(), "run-1")
	assert.Error(t, err)
	assert.Nil(t, patterns)
	assert.Contains(t, err.Error(), "failed to query pattern records")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormRunRepository_SaveRun_TransactionError(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGormRunRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "mining_runs"`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	run := &MiningRun{RunUUID: "run-1", Status: "running"}
	err := repo.SaveRun(context.Background(), run, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save mining run")
}
