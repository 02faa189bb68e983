package stripe

import (
	"go.uber.org/zap"
)

// leveledLogger routes stripe-go's internal logging through zap.
type leveledLogger struct {
	sugar *zap.SugaredLogger
}

func newLeveledLogger(logger *zap.Logger) *leveledLogger {
	return &leveledLogger{sugar: logger.Named("stripe").Sugar()}
}

func (l *leveledLogger) Debugf(format string, v ...interface{}) { l.sugar.Debugf(format, v...) }
func (l *leveledLogger) Infof(format string, v ...interface{})  { l.sugar.Debugf(format, v...) }
func (l *leveledLogger) Warnf(format string, v ...interface{})  { l.sugar.Warnf(format, v...) }
func (l *leveledLogger) Errorf(format string, v ...interface{}) { l.sugar.Errorf(format, v...) }
