package database

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// gormLogger sends GORM's statement log to zerolog. The request scoped
// logger in ctx is preferred over the base logger.
type gormLogger struct {
	base          zerolog.Logger
	level         gormlogger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(base zerolog.Logger, slowThreshold time.Duration) *gormLogger {
	level := gormlogger.Warn
	switch base.GetLevel() {
	case zerolog.TraceLevel, zerolog.DebugLevel:
		level = gormlogger.Info
	case zerolog.ErrorLevel:
		level = gormlogger.Error
	case zerolog.Disabled:
		level = gormlogger.Silent
	}

	return &gormLogger{
		base:          base.With().Str("component", "gorm").Logger(),
		level:         level,
		slowThreshold: slowThreshold,
	}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Info {
		l.from(ctx).Info().Msgf(msg, data...)
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.from(ctx).Warn().Msgf(msg, data...)
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.level >= gormlogger.Error {
		l.from(ctx).Error().Msgf(msg, data...)
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	log := l.from(ctx)

	switch {
	// a miss is reported to the caller as NotFound, it is not a failure here
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		sql, rows := fc()
		log.Error().Err(err).Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("query failed")
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		log.Warn().Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Dur("threshold", l.slowThreshold).Msg("slow query")
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		log.Debug().Str("sql", sql).Int64("rows", rows).Dur("elapsed", elapsed).Msg("query")
	}
}

func (l *gormLogger) from(ctx context.Context) *zerolog.Logger {
	if ctxLogger := zerolog.Ctx(ctx); ctxLogger.GetLevel() != zerolog.Disabled {
		return ctxLogger
	}
	return &l.base
}
