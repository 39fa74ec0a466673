package main

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type logger struct {
	zap   *zap.Logger
	sugar *zap.SugaredLogger
}

/*
newLogger returns a logger writing to STDERR, showing informational
messages only when verbose, and also writing JSON lines to logFile,
rotated by size, when logFile is not empty.
*/
func newLogger(verbose bool, logFile string) (*logger, error) {
	level := zap.WarnLevel
	if verbose {
		level = zap.InfoLevel
	}
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.Lock(os.Stderr),
		level,
	)
	core := consoleCore
	if logFile != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		fileCore := zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(rotator),
			zap.InfoLevel,
		)
		core = zapcore.NewTee(consoleCore, fileCore)
	}
	z := zap.New(core)
	return &logger{zap: z, sugar: z.Sugar()}, nil
}

func (l *logger) Logf(format string, a ...interface{}) {
	if l == nil {
		return
	}
	l.sugar.Infof(format, a...)
}

// Zap returns the structured logger for library packages.
func (l *logger) Zap() *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.zap
}

func (l *logger) Sync() {
	l.zap.Sync()
}
