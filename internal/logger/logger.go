// Package logger builds the process-wide zap logger.
package logger

import (
    "strings"

    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

// New returns a JSON production logger, or a console development logger
// when env is "dev" or "local".  Unknown levels fall back to info.
func New(env, level string) (*zap.Logger, error) {
    var cfg zap.Config
    switch strings.ToLower(env) {
    case "dev", "local":
        cfg = zap.NewDevelopmentConfig()
        cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
    default:
        cfg = zap.NewProductionConfig()
        cfg.EncoderConfig.TimeKey = "ts"
        cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
    }
    lvl, err := zapcore.ParseLevel(level)
    if err != nil {
        lvl = zapcore.InfoLevel
    }
    cfg.Level = zap.NewAtomicLevelAt(lvl)
    return cfg.Build(zap.Fields(zap.String("service", "cinema-booking")))
}
