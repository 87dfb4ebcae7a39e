//go:build !nogpu

package gpu

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/voxel"
)

// loggerPtr holds a logger set through Renderer.SetLogger. When unset the
// package logs through voxel.Logger.
var loggerPtr atomic.Pointer[slog.Logger]

// slogger returns the current package logger.
// All logging in internal/gpu goes through this function.
func slogger() *slog.Logger {
	if l := loggerPtr.Load(); l != nil {
		return l
	}
	return voxel.Logger()
}

// setLogger overrides the package logger. nil restores the voxel logger.
func setLogger(l *slog.Logger) {
	loggerPtr.Store(l)
}
