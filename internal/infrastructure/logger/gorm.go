package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// SQLLogger sends GORM output to zap with the trace of the calling request.
// Statements are logged at debug, and only when the level is Info.
type SQLLogger struct {
	log   *zap.Logger
	level gormlogger.LogLevel
	slow  time.Duration
}

// NewSQLLogger builds a GORM logger. A zero slow threshold turns the slow
// statement warning off.
func NewSQLLogger(base *zap.Logger, level gormlogger.LogLevel, slow time.Duration) *SQLLogger {
	return &SQLLogger{log: base.Named("gorm"), level: level, slow: slow}
}

func (l *SQLLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	cp := *l
	cp.level = level
	return &cp
}

func (l *SQLLogger) Info(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Info, msg, data)
}

func (l *SQLLogger) Warn(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Warn, msg, data)
}

func (l *SQLLogger) Error(ctx context.Context, msg string, data ...any) {
	l.printf(ctx, gormlogger.Error, msg, data)
}

func (l *SQLLogger) printf(ctx context.Context, at gormlogger.LogLevel, msg string, data []any) {
	if l.level < at {
		return
	}
	line := fmt.Sprintf(msg, data...)
	log := WithTrace(ctx, l.log)
	switch at {
	case gormlogger.Error:
		log.Error(line)
	case gormlogger.Warn:
		log.Warn(line)
	default:
		log.Info(line)
	}
}

// Trace is called after every statement. A missing record is a normal
// lookup outcome and is not reported.
func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}
	took := time.Since(begin)
	failed := err != nil && !errors.Is(err, gormlogger.ErrRecordNotFound)
	slow := l.slow > 0 && took > l.slow

	var report func(string, ...zap.Field)
	msg := "SQL Query"
	log := WithTrace(ctx, l.log)
	switch {
	case failed && l.level >= gormlogger.Error:
		report, msg = log.Error, "SQL Error"
	case slow && l.level >= gormlogger.Warn:
		report, msg = log.Warn, "Slow SQL"
	case l.level >= gormlogger.Info:
		report = log.Debug
	default:
		return
	}

	sql, rows := fc()
	fields := []zap.Field{zap.Duration("elapsed", took), zap.Int64("rows", rows), zap.String("sql", sql)}
	if failed {
		fields = append(fields, zap.Error(err))
	}
	if slow {
		fields = append(fields, zap.Duration("threshold", l.slow))
	}
	report(msg, fields...)
}

var sqlLevels = map[string]gormlogger.LogLevel{
	"silent": gormlogger.Silent,
	"error":  gormlogger.Error,
	"info":   gormlogger.Info,
	"debug":  gormlogger.Info,
}

// SQLLevel picks the GORM level for an application log level; warn is the
// fallback
func SQLLevel(appLevel string) gormlogger.LogLevel {
	if level, ok := sqlLevels[appLevel]; ok {
		return level
	}
	return gormlogger.Warn
}
