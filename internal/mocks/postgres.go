package mocks

import (
	"github.com/Billy-Davies-2/wordrush/internal/dal"
	"github.com/Billy-Davies-2/wordrush/internal/logger"
)

// MockPostgresDAL provides a mock Postgres results archive backed by SQLite,
// used in development when DB_DRIVER=postgres has no DATABASE_URL
type MockPostgresDAL struct {
	dal.ResultsDAL
}

// NewMockPostgresDAL creates a mock Postgres DAL using SQLite
func NewMockPostgresDAL(sqliteFile string) (*MockPostgresDAL, error) {
	logger.Info("Using MOCK Postgres (SQLite) for local development", "file", sqliteFile)

	sqliteDAL, err := dal.NewSQLiteDAL(sqliteFile)
	if err != nil {
		return nil, err
	}

	return &MockPostgresDAL{
		ResultsDAL: sqliteDAL,
	}, nil
}
