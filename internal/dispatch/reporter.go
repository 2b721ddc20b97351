package dispatch

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Mihklz/casetrail/internal/logger"
)

// Reporter внеполосный канал для ошибок, которые нельзя вернуть продюсеру.
type Reporter interface {
	Report(ctx context.Context, ev Event, err error)
}

// leveled позволяет ошибке самой выбрать уровень логирования.
type leveled interface {
	LogLevel() zapcore.Level
}

// LogReporter пишет ошибки в глобальный логгер.
type LogReporter struct{}

// Report логирует ошибку. Уровень по умолчанию Error.
func (LogReporter) Report(_ context.Context, ev Event, err error) {
	if err == nil {
		return
	}
	lvl := zapcore.ErrorLevel
	var l leveled
	if errors.As(err, &l) {
		lvl = l.LogLevel()
	}
	if ce := logger.Log.Check(lvl, "Audit event handling failed"); ce != nil {
		ce.Write(
			zap.String("channel", ev.Channel.Name),
			zap.String("category", ev.Channel.Category),
			zap.String("originator", ev.OriginatorID),
			zap.Error(err),
		)
	}
}
