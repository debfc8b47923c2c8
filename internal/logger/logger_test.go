package logger

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap/zapcore"
)

func TestNew_LevelParsing(t *testing.T) {
    log, err := New("prod", "warn")
    require.NoError(t, err)
    assert.False(t, log.Core().Enabled(zapcore.InfoLevel))
    assert.True(t, log.Core().Enabled(zapcore.WarnLevel))

    log, err = New("dev", "nonsense")
    require.NoError(t, err)
    assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
    assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
}
