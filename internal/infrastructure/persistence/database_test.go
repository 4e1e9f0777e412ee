package persistence

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/courtage/backend/internal/domain/shared"
	"github.com/courtage/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock, mockDB
}

func TestDatabase_PingAndClose(t *testing.T) {
	db, mock, _ := newMockDatabase(t)
	mock.ExpectPing()
	mock.ExpectClose()

	require.NoError(t, db.Ping(context.Background()))
	require.NoError(t, db.Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_PingFailure(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	assert.ErrorContains(t, db.Ping(context.Background()), "connection refused")
}

func TestDatabase_StatsCollector(t *testing.T) {
	db, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	collector, err := db.StatsCollector()
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	require.NoError(t, registry.Register(collector))
	families, err := registry.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "go_sql_open_connections")
}

func TestConfigurePool(t *testing.T) {
	_, _, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	configurePool(mockDB, &config.DatabaseConfig{MaxOpenConns: 7, MaxIdleConns: 2})

	assert.Equal(t, 7, mockDB.Stats().MaxOpenConnections)
}

func TestGormClientRepository_ErrorPaths(t *testing.T) {
	newRepo := func(t *testing.T) (*GormClientRepository, sqlmock.Sqlmock, *sql.DB) {
		db, mock, mockDB := newMockDatabase(t)
		return NewGormClientRepository(db.DB), mock, mockDB
	}

	t.Run("missing row maps to not found", func(t *testing.T) {
		repo, mock, mockDB := newRepo(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "clients" WHERE tenant_id = \$1 AND id = \$2 ORDER BY .* LIMIT .*`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.FindByIDForTenant(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("driver error is returned as is", func(t *testing.T) {
		repo, mock, mockDB := newRepo(t)
		defer mockDB.Close()

		dbErr := errors.New("connection reset")
		mock.ExpectQuery(`SELECT \* FROM "clients"`).WillReturnError(dbErr)

		_, err := repo.FindByIDForTenant(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("delete of unknown client is not found", func(t *testing.T) {
		repo, mock, mockDB := newRepo(t)
		defer mockDB.Close()

		mock.ExpectExec(`DELETE FROM "clients"`).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.DeleteForTenant(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil stays nil", nil, nil},
		{"record not found", gorm.ErrRecordNotFound, shared.ErrNotFound},
		{"gorm duplicated key", gorm.ErrDuplicatedKey, shared.ErrAlreadyExists},
		{"postgres unique violation", errors.New(`ERROR: duplicate key value violates unique constraint "idx_contracts_reference" (SQLSTATE 23505)`), shared.ErrAlreadyExists},
		{"sqlite unique violation", errors.New("UNIQUE constraint failed: clients.reference"), shared.ErrAlreadyExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}

	t.Run("other errors pass through", func(t *testing.T) {
		err := errors.New("boom")
		assert.Equal(t, err, translateError(err))
	})
}
