package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		" error ": zapcore.ErrorLevel,
		"":        zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestNewHonoursLevel(t *testing.T) {
	for _, format := range []string{"json", "console"} {
		logger, err := New("warn", format, "medportal")
		require.NoError(t, err, format)
		assert.False(t, logger.Core().Enabled(zapcore.InfoLevel), format)
		assert.True(t, logger.Core().Enabled(zapcore.WarnLevel), format)
	}
}

func TestIdentityFields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	withIdentity(zap.New(core), "medportal").Info("ready")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "medportal", fields["service_name"])
	assert.Contains(t, fields, "hostname")

	core, logs = observer.New(zapcore.InfoLevel)
	withIdentity(zap.New(core), "").Info("ready")
	assert.NotContains(t, logs.All()[0].ContextMap(), "service_name")
}
