package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	// Embed timezone database so Timezone works where the OS has none.
	_ "time/tzdata"

	"github.com/tphakala/lifelist/internal/errors"
)

const (
	// traceLevelValue sits below slog.LevelDebug (-4).
	traceLevelValue = slog.Level(-8)

	// LogFilePermissions is the mode used for created log files.
	LogFilePermissions = 0o600
)

var (
	global   *CentralLogger
	globalMu sync.Mutex
)

// SetGlobal installs the process logger. The app calls it once after
// loading configuration.
func SetGlobal(cl *CentralLogger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = cl
}

// Global returns the process logger, falling back to info-level console
// output before SetGlobal runs.
func Global() *CentralLogger {
	globalMu.Lock()
	defer globalMu.Unlock()

	if global == nil {
		// Cannot fail: no file output and the local timezone.
		global, _ = newCentralLogger(&LoggingConfig{
			DefaultLevel: DefaultLogLevel,
			Timezone:     "Local",
			Console:      &ConsoleOutput{Enabled: true, Level: DefaultLogLevel},
		}, os.Stderr)
	}
	return global
}

type traceIDCtxKey struct{}

// WithTraceID tags ctx so loggers derived through WithContext carry id.
// Datastore scopes set one per outermost transaction.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDCtxKey{}, id)
}

// TraceID returns the id set by WithTraceID, or "".
func TraceID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDCtxKey{}).(string)
	return id
}

// CentralLogger routes module loggers to the console and the log file.
type CentralLogger struct {
	config       *LoggingConfig
	timezone     *time.Location
	console      io.Writer
	baseHandler  slog.Handler
	fileWriter   *BufferedFileWriter
	moduleLevels map[string]slog.Level
	mu           sync.RWMutex
}

// NewCentralLogger builds the logger described by cfg.
func NewCentralLogger(cfg *LoggingConfig) (*CentralLogger, error) {
	return newCentralLogger(cfg, os.Stderr)
}

func newCentralLogger(cfg *LoggingConfig, console io.Writer) (*CentralLogger, error) {
	if cfg == nil {
		return nil, errors.NewStd("logging config cannot be nil")
	}
	applyConfigDefaults(cfg)

	tz := time.Local
	if cfg.Timezone != "" && cfg.Timezone != "Local" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %s: %w", cfg.Timezone, err)
		}
		tz = loc
	}

	cl := &CentralLogger{
		config:       cfg,
		timezone:     tz,
		console:      console,
		moduleLevels: make(map[string]slog.Level, len(cfg.ModuleLevels)),
	}
	for module, level := range cfg.ModuleLevels {
		cl.moduleLevels[module] = parseLogLevel(level)
	}

	if cfg.FileOutput.Enabled {
		if dir := filepath.Dir(cfg.FileOutput.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
			}
		}
		writer, err := NewBufferedFileWriter(cfg.FileOutput.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create log writer: %w", err)
		}
		cl.fileWriter = writer
	}

	cl.baseHandler = cl.buildHandler(nil)
	return cl, nil
}

// buildHandler fans out to the enabled outputs. A non-nil override replaces
// the per-output levels so a module level applies everywhere.
func (cl *CentralLogger) buildHandler(override *slog.Level) slog.Handler {
	levelFor := func(configured string) slog.Level {
		switch {
		case override != nil:
			return *override
		case configured == "":
			return parseLogLevel(cl.config.DefaultLevel)
		default:
			return parseLogLevel(configured)
		}
	}

	var handlers []slog.Handler
	if cl.config.Console != nil && cl.config.Console.Enabled {
		handlers = append(handlers, newTextHandler(cl.console, levelFor(cl.config.Console.Level), cl.timezone))
	}
	if cl.fileWriter != nil {
		handlers = append(handlers, newJSONHandler(cl.fileWriter, levelFor(cl.config.FileOutput.Level), cl.timezone))
	}

	switch len(handlers) {
	case 0:
		return slog.NewTextHandler(io.Discard, nil)
	case 1:
		return handlers[0]
	default:
		return newMultiWriterHandler(handlers...)
	}
}

// Module returns a logger for a dotted module name such as "datastore.sql".
func (cl *CentralLogger) Module(name string) Logger {
	if cl == nil {
		return nil
	}

	cl.mu.RLock()
	defer cl.mu.RUnlock()

	level, explicit := cl.levelFor(name)
	handler := cl.baseHandler
	if explicit {
		handler = cl.buildHandler(&level)
	}
	return &moduleLogger{module: name, logger: slog.New(handler), level: level}
}

// levelFor resolves "a.b.c" against "a.b.c", "a.b", then "a". The bool
// reports whether a module level matched.
func (cl *CentralLogger) levelFor(module string) (slog.Level, bool) {
	for name := module; name != ""; {
		if level, ok := cl.moduleLevels[name]; ok {
			return level, true
		}
		idx := strings.LastIndex(name, ".")
		if idx < 0 {
			break
		}
		name = name[:idx]
	}
	return parseLogLevel(cl.config.DefaultLevel), false
}

// Close flushes and closes the log file. Later log calls go to the console only.
func (cl *CentralLogger) Close() error {
	if cl == nil {
		return nil
	}

	cl.mu.Lock()
	defer cl.mu.Unlock()

	if cl.fileWriter == nil {
		return nil
	}
	err := cl.fileWriter.Close()
	cl.fileWriter = nil
	cl.baseHandler = cl.buildHandler(nil)
	return err
}

// parseLogLevel maps a configured level name; unknown names mean info.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return traceLevelValue
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseSlogLevel(level LogLevel) slog.Level {
	return parseLogLevel(string(level))
}

type moduleLogger struct {
	module string
	logger *slog.Logger
	level  slog.Level
	fields []Field
}

// Module appends name to the module path. The level stays the parent's.
func (m *moduleLogger) Module(name string) Logger {
	if m == nil {
		return nil
	}
	module := name
	if m.module != "" {
		module = m.module + "." + name
	}
	return &moduleLogger{module: module, logger: m.logger, level: m.level, fields: slices.Clone(m.fields)}
}

func (m *moduleLogger) Trace(msg string, fields ...Field) { m.logAt(traceLevelValue, msg, fields) }
func (m *moduleLogger) Debug(msg string, fields ...Field) { m.logAt(slog.LevelDebug, msg, fields) }
func (m *moduleLogger) Info(msg string, fields ...Field)  { m.logAt(slog.LevelInfo, msg, fields) }
func (m *moduleLogger) Warn(msg string, fields ...Field)  { m.logAt(slog.LevelWarn, msg, fields) }
func (m *moduleLogger) Error(msg string, fields ...Field) { m.logAt(slog.LevelError, msg, fields) }

func (m *moduleLogger) With(fields ...Field) Logger {
	if m == nil {
		return nil
	}
	return &moduleLogger{module: m.module, logger: m.logger, level: m.level, fields: slices.Concat(m.fields, fields)}
}

func (m *moduleLogger) WithContext(ctx context.Context) Logger {
	if m == nil {
		return nil
	}
	if id := TraceID(ctx); id != "" {
		return m.With(String(traceIDKey, id))
	}
	return m
}

func (m *moduleLogger) logAt(level slog.Level, msg string, fields []Field) {
	if m == nil || level < m.level {
		return
	}

	attrs := make([]slog.Attr, 0, 1+len(m.fields)+len(fields))
	if m.module != "" {
		attrs = append(attrs, slog.String(moduleKey, m.module))
	}
	for _, f := range slices.Concat(m.fields, fields) {
		attrs = append(attrs, fieldToAttr(f))
	}
	m.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

func fieldToAttr(f Field) slog.Attr {
	switch v := f.Value.(type) {
	case string:
		return slog.String(f.Key, v)
	case int:
		return slog.Int(f.Key, v)
	case int64:
		return slog.Int64(f.Key, v)
	case uint:
		return slog.Uint64(f.Key, uint64(v))
	case float64:
		return slog.Float64(f.Key, math.Round(v*1000)/1000)
	case bool:
		return slog.Bool(f.Key, v)
	case time.Duration:
		return slog.String(f.Key, v.Round(time.Microsecond).String())
	default:
		return slog.Any(f.Key, v)
	}
}
