package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestSetup_Disabled(t *testing.T) {
	p, err := Setup(context.Background(), Config{ServiceName: "courtage-test"}, zap.NewNop())
	require.NoError(t, err)

	assert.False(t, p.Tracing())
	assert.False(t, p.Profiling())
	assert.NotNil(t, p.Meter("test"))

	core := p.LogCore(zapcore.InfoLevel)
	assert.False(t, core.Enabled(zapcore.ErrorLevel))

	require.NoError(t, p.Shutdown(context.Background()))
	// second shutdown is harmless
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestSetup_ProfilingRequiresURL(t *testing.T) {
	_, err := Setup(context.Background(), Config{ServiceName: "courtage-test", ProfilingEnabled: true}, nil)
	assert.ErrorIs(t, err, errNoPyroscopeURL)
}

func TestSamplerFor(t *testing.T) {
	assert.Contains(t, samplerFor(1).Description(), "AlwaysOn")
	assert.Contains(t, samplerFor(0).Description(), "AlwaysOff")
	assert.Contains(t, samplerFor(0.25).Description(), "TraceIDRatioBased")
}

func TestNewResource(t *testing.T) {
	res, err := newResource(Config{ServiceName: "courtage-backend"})
	require.NoError(t, err)

	found := false
	for _, kv := range res.Attributes() {
		if kv.Key == "service.name" {
			found = true
			assert.Equal(t, "courtage-backend", kv.Value.AsString())
		}
	}
	assert.True(t, found)
}

func TestLevelFilterCore(t *testing.T) {
	core := &levelFilterCore{Core: zapcore.NewNopCore(), minLevel: zapcore.WarnLevel}
	assert.False(t, core.Enabled(zapcore.InfoLevel))
	ce := core.Check(zapcore.Entry{Level: zapcore.InfoLevel}, nil)
	assert.Nil(t, ce)

	child := core.With([]zapcore.Field{zap.String("k", "v")})
	filtered, ok := child.(*levelFilterCore)
	require.True(t, ok)
	assert.Equal(t, zapcore.WarnLevel, filtered.minLevel)
}
