package logger

import (
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the severity of a log message.
type LogLevel int32

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
	FATAL: "FATAL",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int32(l))
}

// ParseLevel converts a config string ("debug", "INFO", ...) to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	var zl zapcore.Level
	if err := zl.UnmarshalText([]byte(s)); err != nil {
		return INFO, fmt.Errorf("unknown log level %q", s)
	}
	return fromZapLevel(zl), nil
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	case FATAL:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func fromZapLevel(zl zapcore.Level) LogLevel {
	switch {
	case zl <= zapcore.DebugLevel:
		return DEBUG
	case zl == zapcore.InfoLevel:
		return INFO
	case zl == zapcore.WarnLevel:
		return WARN
	case zl < zapcore.FatalLevel:
		return ERROR
	default:
		return FATAL
	}
}

// Logger wraps a zap logger behind the printf-style API used across the server.
type Logger struct {
	base  *zap.Logger
	level atomic.Int32
}

var (
	mu            sync.RWMutex
	defaultLogger *Logger
	once          sync.Once
)

// Config describes how the logger should be initialised.
type Config struct {
	Level      LogLevel
	LogDir     string
	MaxSize    int64 // bytes
	MaxAge     int   // days
	UseColor   bool
	ShowCaller bool
	Prefix     string
}

// Initialize boots the global logger instance if it has not been created yet.
func Initialize(config Config) error {
	var err error
	once.Do(func() {
		encCfg := zap.NewProductionEncoderConfig()
		encCfg.TimeKey = "time"
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

		consoleCfg := encCfg
		if config.UseColor {
			consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}

		// The zap core accepts everything; level gating happens in write so SetLevel stays cheap.
		enabler := zap.NewAtomicLevelAt(zapcore.DebugLevel)
		cores := []zapcore.Core{
			zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stdout), enabler),
		}

		if config.LogDir != "" {
			file, fileErr := newDailyFile(config.LogDir, config.MaxSize)
			if fileErr != nil {
				err = fileErr
				return
			}
			cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), enabler))

			go pruneLogFiles(config.LogDir, config.MaxAge)
		}

		opts := []zap.Option{}
		if config.ShowCaller {
			opts = append(opts, zap.AddCaller())
		}

		base := zap.New(zapcore.NewTee(cores...), opts...)
		if config.Prefix != "" {
			base = base.Named(config.Prefix)
		}

		install(base, config.Level)
	})

	return err
}

// Replace swaps the backing zap logger. Tests pass zaptest.NewLogger(t).
func Replace(z *zap.Logger) {
	install(z, DEBUG)
}

// Zap returns the backing zap logger, or a no-op logger before initialisation.
func Zap() *zap.Logger {
	if l := current(); l != nil {
		return l.base.WithOptions(zap.AddCallerSkip(-1))
	}
	return zap.NewNop()
}

// Sync flushes buffered entries.
func Sync() error {
	if l := current(); l != nil {
		return l.base.Sync()
	}
	return nil
}

func install(z *zap.Logger, level LogLevel) {
	l := &Logger{base: z.WithOptions(zap.AddCallerSkip(1))}
	l.level.Store(int32(level))

	mu.Lock()
	defaultLogger = l
	mu.Unlock()
}

func current() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

func (l *Logger) write(level LogLevel, msg string, fields []zap.Field) {
	if level < LogLevel(l.level.Load()) {
		return
	}
	if ce := l.base.Check(level.zapLevel(), msg); ce != nil {
		ce.Write(fields...)
	}
}

// Public helper methods for the default logger.
func Debug(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.write(DEBUG, fmt.Sprintf(format, args...), nil)
	}
}

func Info(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.write(INFO, fmt.Sprintf(format, args...), nil)
	} else {
		log.Printf("[INFO] "+format, args...)
	}
}

func Warn(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.write(WARN, fmt.Sprintf(format, args...), nil)
	} else {
		log.Printf("[WARN] "+format, args...)
	}
}

func Error(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.write(ERROR, fmt.Sprintf(format, args...), nil)
	} else {
		log.Printf("[ERROR] "+format, args...)
	}
}

func Fatal(format string, args ...interface{}) {
	if l := current(); l != nil {
		l.write(FATAL, fmt.Sprintf(format, args...), nil)
	}
	log.Fatalf("[FATAL] "+format, args...)
}

// WithFields attaches structured fields to the log entry.
func WithFields(fields map[string]interface{}) *LogEntry {
	return &LogEntry{
		fields: fields,
		logger: current(),
	}
}

// LogEntry represents a structured log entry builder.
type LogEntry struct {
	fields map[string]interface{}
	logger *Logger
}

func (e *LogEntry) Debug(format string, args ...interface{}) {
	e.Log(DEBUG, format, args...)
}

func (e *LogEntry) Info(format string, args ...interface{}) {
	e.Log(INFO, format, args...)
}

func (e *LogEntry) Warn(format string, args ...interface{}) {
	e.Log(WARN, format, args...)
}

func (e *LogEntry) Error(format string, args ...interface{}) {
	e.Log(ERROR, format, args...)
}

// Log allows emitting a message with an explicit level via the entry.
func (e *LogEntry) Log(level LogLevel, format string, args ...interface{}) {
	if e.logger == nil {
		return
	}

	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, zap.Any(k, e.fields[k]))
	}

	e.logger.write(level, fmt.Sprintf(format, args...), fields)
}

// SetLevel updates the global logging level.
func SetLevel(level LogLevel) {
	if l := current(); l != nil {
		l.level.Store(int32(level))
	}
}

// GetLevel returns the current global logging level.
func GetLevel() LogLevel {
	if l := current(); l != nil {
		return LogLevel(l.level.Load())
	}
	return INFO
}
