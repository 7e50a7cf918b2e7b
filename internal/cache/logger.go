package cache

import (
	"fmt"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

type badgerLogger struct {
	logger *zap.Logger
}

func newBadgerLogger(logger *zap.Logger) *badgerLogger {
	return &badgerLogger{logger: logger}
}

// Debugf implements badger.Logger.
func (adapter *badgerLogger) Debugf(format string, arguments ...any) {
	adapter.logger.Debug(formatBadgerMessage(format, arguments))
}

// Infof implements badger.Logger, demoting Badger's info chatter to debug.
func (adapter *badgerLogger) Infof(format string, arguments ...any) {
	adapter.logger.Debug(formatBadgerMessage(format, arguments))
}

// Warningf implements badger.Logger.
func (adapter *badgerLogger) Warningf(format string, arguments ...any) {
	adapter.logger.Warn(formatBadgerMessage(format, arguments))
}

// Errorf implements badger.Logger.
func (adapter *badgerLogger) Errorf(format string, arguments ...any) {
	adapter.logger.Error(formatBadgerMessage(format, arguments))
}

func formatBadgerMessage(format string, arguments []any) string {
	return strings.TrimSpace(fmt.Sprintf(format, arguments...))
}

var _ badger.Logger = (*badgerLogger)(nil)
