package bundler

import (
	"sync/atomic"

	"go.uber.org/zap"
)

var logger atomic.Pointer[zap.Logger]

func init() {
	logger.Store(zap.NewNop())
}

// Logger returns the logger the bundler writes debug events to.
func Logger() *zap.Logger {
	return logger.Load()
}

// SetLogger makes l receive the bundler's debug events. A nil l
// silences them again.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger.Store(l)
}
