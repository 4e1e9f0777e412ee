package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type tracedRow struct {
	ID   uint
	Name string
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&tracedRow{}))
	return db
}

func TestRegisterDBTracing_Disabled(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{}, zap.NewNop()))
	assert.Nil(t, db.Callback().Query().Get("courtage_timing:after_query"))
}

func TestRegisterDBTracing_Enabled(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, RegisterDBTracing(db, DBTracingConfig{Enabled: true}, zap.NewNop()))
	assert.NotNil(t, db.Callback().Query().Get("courtage_timing:after_query"))
	assert.NotNil(t, db.Callback().Create().Get("courtage_timing:before_create"))

	require.NoError(t, db.Create(&tracedRow{Name: "a"}).Error)
}

func TestSlowQueryCallback(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "query")
	ctx = context.WithValue(ctx, queryStartKey{}, time.Now().Add(-time.Second))

	db := setupTestDB(t)
	tx := db.WithContext(ctx)
	tx.Statement.Table = "contracts"

	slowQueryCallback(100 * time.Millisecond)(tx)
	span.End()

	spans := sr.Ended()
	require.Len(t, spans, 1)
	attrs := spans[0].Attributes()
	assert.Contains(t, attrs, attribute.String("db.sql.table", "contracts"))
	assert.Contains(t, attrs, attribute.Bool("db.slow_query", true))
}

func TestSlowQueryCallback_FastQuery(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	ctx, span := tp.Tracer("test").Start(context.Background(), "query")
	ctx = context.WithValue(ctx, queryStartKey{}, time.Now())

	db := setupTestDB(t)
	slowQueryCallback(time.Minute)(db.WithContext(ctx))
	span.End()

	for _, kv := range sr.Ended()[0].Attributes() {
		assert.NotEqual(t, attribute.Key("db.slow_query"), kv.Key)
	}
}
