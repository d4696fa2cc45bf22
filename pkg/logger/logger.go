// Package logger builds the application zap logger from configuration.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config logger configuration
type Config struct {
	// Level log level, see zapcore.ParseLevel
	Level string
	// File log file path; empty means stderr only
	File string
	// Production enables JSON output and disables console colors
	Production bool
	// MaxSize max size of a log file in MB before rotation, default 64
	MaxSize int
	// MaxBackups number of rotated files to keep, default 7
	MaxBackups int
	// MaxAge max age of rotated files in days, default 30
	MaxAge int
}

// NewLogger creates a zap logger writing to the configured file (with
// rotation) and, in non-production mode, to stderr as well.
func NewLogger(c Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	if c.MaxSize <= 0 {
		c.MaxSize = 64
	}
	if c.MaxBackups <= 0 {
		c.MaxBackups = 7
	}
	if c.MaxAge <= 0 {
		c.MaxAge = 30
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core

	if c.File != "" {
		fileWriter := zapcore.AddSync(&lumberjack.Logger{
			Filename:   c.File,
			MaxSize:    c.MaxSize,
			MaxBackups: c.MaxBackups,
			MaxAge:     c.MaxAge,
			Compress:   true,
		})
		var encoder zapcore.Encoder
		if c.Production {
			encoder = zapcore.NewJSONEncoder(encoderConfig)
		} else {
			encoder = zapcore.NewConsoleEncoder(encoderConfig)
		}
		cores = append(cores, zapcore.NewCore(encoder, fileWriter, level))
	}

	if !c.Production || c.File == "" {
		consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
		consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(consoleEncoderConfig),
			zapcore.Lock(os.Stderr),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller()), nil
}
