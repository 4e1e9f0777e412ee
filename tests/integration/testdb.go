// Package integration runs the repositories and services against a real
// PostgreSQL started with testcontainers and migrated with the embedded
// schema.
package integration

import (
	"context"
	"database/sql"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/courtage/backend/internal/infrastructure/migration"
	"github.com/courtage/backend/migrations"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// postgresServer is started by the first test that needs it and shared by
// the package; TestMain stops it
var postgresServer struct {
	sync.Mutex
	container *tcpostgres.PostgresContainer
	dsn       string
}

// TestDB is one test's connection pool. Tests keep their rows apart by
// using a fresh tenant.
type TestDB struct {
	DB *gorm.DB
}

func NewTestDB(t *testing.T) *TestDB {
	t.Helper()
	if testing.Short() {
		t.Skip("integration tests need docker")
	}

	db, sqlDB := openPool(t, serverDSN(t))
	t.Cleanup(func() { _ = sqlDB.Close() })
	return &TestDB{DB: db}
}

func serverDSN(t *testing.T) string {
	t.Helper()
	postgresServer.Lock()
	defer postgresServer.Unlock()
	if postgresServer.container != nil {
		return postgresServer.dsn
	}

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("courtage_test"),
		tcpostgres.WithUsername("courtage"),
		tcpostgres.WithPassword("courtage"),
		testcontainers.WithWaitStrategy(wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(time.Minute)),
	)
	require.NoError(t, err, "starting postgres")
	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	_, sqlDB := openPool(t, dsn)
	migrator, err := migration.New(sqlDB, migrations.FS, nil)
	require.NoError(t, err)
	require.NoError(t, migrator.Up(), "migrating schema")
	require.NoError(t, migrator.Close())

	postgresServer.container, postgresServer.dsn = container, dsn
	return dsn
}

func openPool(t *testing.T, dsn string) (*gorm.DB, *sql.DB) {
	t.Helper()
	level := logger.Silent
	if os.Getenv("TEST_DB_DEBUG") != "" {
		level = logger.Info
	}
	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(level)})
	require.NoError(t, err, "connecting to postgres")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(2)
	return db, sqlDB
}

func stopPostgres() {
	postgresServer.Lock()
	defer postgresServer.Unlock()
	if postgresServer.container == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	_ = postgresServer.container.Terminate(ctx)
	postgresServer.container = nil
}
