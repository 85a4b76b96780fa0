package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the bridge's append-only log sink: timestamped records written
// through a size-capped rolling file, closed (and thereby flushed) on
// shutdown. Simulator subprocess output is forwarded here line by line.
type Logger struct {
	*slog.Logger
	sink  io.WriteCloser
	start time.Time
}

func NewLogger(level string) *Logger {
	dir, err := os.UserConfigDir()
	if err != nil {
		fmt.Fprintf(os.Stderr, "unable to find user config dir: %v\n", err)
		dir = "."
	}

	sink := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "jsbsim-bridge", "bridge.slog"),
		MaxSize:    32, // MB
		MaxBackups: 2,
	}

	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		fmt.Fprintf(os.Stderr, "%s: invalid log level\n", level)
	}

	h := slog.NewJSONHandler(sink, &slog.HandlerOptions{Level: lvl})
	l := &Logger{
		Logger: slog.New(h),
		sink:   sink,
		start:  time.Now(),
	}

	l.Info("log sink open",
		slog.String("GOARCH", runtime.GOARCH),
		slog.String("GOOS", runtime.GOOS),
		slog.String("version", Version))
	return l
}

// newDiscardLogger returns a logger whose output goes nowhere. Used by tests.
func newDiscardLogger() *Logger {
	return &Logger{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		start:  time.Now(),
	}
}

// SimLine appends one line of simulator subprocess output. This is the only
// thing the stream-draining goroutines do, so they never contend with the
// tick loop.
func (l *Logger) SimLine(stream, line string) {
	l.Info("sim", slog.String("stream", stream), slog.String("line", line))
}

// Close flushes the sink to persistent storage.
func (l *Logger) Close() {
	if l.sink != nil {
		l.sink.Close()
	}
}
