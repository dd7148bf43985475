// Package logger builds the application's zap logger: console output plus
// an optional daily log file.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultLogFilePerm = 0o644
	defaultLogDirPerm  = 0o755
	timeLayout         = "2006-01-02 15:04:05.000"
)

// Options controls where and how verbosely the logger writes.
type Options struct {
	Dir     string    // daily files go here; empty disables file output
	Level   string    // debug | info | warn | error
	Console io.Writer // defaults to os.Stdout
}

// DailyFilename returns the log filename for the given day.
func DailyFilename(now time.Time) string {
	return "server_" + now.Format("2006-01-02") + ".log"
}

// DailyWriter appends to one file per calendar day under dir.
type DailyWriter struct {
	mu  sync.Mutex
	dir string
	now func() time.Time
}

// NewDailyWriter creates dir when needed.
func NewDailyWriter(dir string) (*DailyWriter, error) {
	if err := os.MkdirAll(dir, defaultLogDirPerm); err != nil {
		return nil, err
	}
	return &DailyWriter{dir: dir, now: time.Now}, nil
}

func (w *DailyWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	path := filepath.Join(w.dir, DailyFilename(w.now()))
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, defaultLogFilePerm)
	if err != nil {
		return 0, err
	}

	n, writeErr := file.Write(p)
	closeErr := file.Close()
	if writeErr != nil {
		return n, writeErr
	}
	return n, closeErr
}

func (w *DailyWriter) Sync() error { return nil }

// New creates a zap logger teeing console and daily-file output.
func New(opts Options) (*zap.Logger, error) {
	level := zap.NewAtomicLevelAt(parseLevel(opts.Level))
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	encoder := zapcore.NewConsoleEncoder(encoderConfig)

	console := opts.Console
	if console == nil {
		console = os.Stdout
	}
	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(zapcore.AddSync(console)), level),
	}

	if dir := strings.TrimSpace(opts.Dir); dir != "" {
		writer, err := NewDailyWriter(dir)
		if err != nil {
			return nil, err
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(writer), level))
	}

	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)), nil
}

func parseLevel(raw string) zapcore.Level {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(raw)))); err != nil || raw == "" {
		return zapcore.InfoLevel
	}
	return lvl
}
