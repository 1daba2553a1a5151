package log

import (
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var _ Log = (*Logger)(nil)

var (
	processLogger *Logger
	processOnce   sync.Once
)

// Options configure a zap backed Logger.
type Options struct {
	Level Level
	// Format is "json" (default) or "console".
	Format string
	// Output is a file path, "stdout" or "stderr" (default).
	Output string
}

type Logger struct {
	zl    *zap.Logger
	level zap.AtomicLevel
}

// New builds a Logger. The first logger built becomes the process logger
// returned by Provide.
func New(opts Options) (*Logger, error) {
	l, err := build(opts)
	if err != nil {
		return nil, err
	}
	processOnce.Do(func() { processLogger = l })
	return l, nil
}

func build(opts Options) (*Logger, error) {
	encoder := zap.NewProductionEncoderConfig()
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder

	format := strings.ToLower(opts.Format)
	switch format {
	case "", "json":
		format = "json"
	case "console":
		encoder.EncodeLevel = zapcore.CapitalColorLevelEncoder
	default:
		return nil, errors.Errorf("unknown log format %q", opts.Format)
	}

	output := opts.Output
	if output == "" {
		output = "stderr"
	}

	level := zap.NewAtomicLevelAt(toZapLevel(opts.Level))
	zl, err := zap.Config{
		Level:            level,
		Encoding:         format,
		EncoderConfig:    encoder,
		OutputPaths:      []string{output},
		ErrorOutputPaths: []string{"stderr"},
		DisableCaller:    true,
	}.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}

	return &Logger{zl: zl, level: level}, nil
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{zl: zap.NewNop(), level: zap.NewAtomicLevelAt(zap.FatalLevel)}
}

// NewObserved returns a logger that records entries in memory for assertions.
func NewObserved(level Level) (*Logger, *observer.ObservedLogs) {
	atomic := zap.NewAtomicLevelAt(toZapLevel(level))
	core, logs := observer.New(atomic)
	return &Logger{zl: zap.New(core), level: atomic}, logs
}

// Provide returns the process logger, creating an info level JSON logger on
// stderr when none was built yet.
func Provide() *Logger {
	processOnce.Do(func() {
		l, err := build(Options{Level: LevelInfo})
		if err != nil {
			l = NewNop()
		}
		processLogger = l
	})
	return processLogger
}

// ParseLevel maps a configuration string onto a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "fatal":
		return LevelFatal, nil
	default:
		return LevelInfo, errors.Errorf("unknown log level %q", s)
	}
}

func (l *Logger) Debug(msg string, fields ...Field) { l.log(zap.DebugLevel, msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.log(zap.InfoLevel, msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.log(zap.WarnLevel, msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.log(zap.ErrorLevel, msg, fields) }
func (l *Logger) Fatal(msg string, fields ...Field) { l.log(zap.FatalLevel, msg, fields) }

// log skips field conversion for disabled levels; the simulation loop logs
// at debug level on every merge.
func (l *Logger) log(level zapcore.Level, msg string, fields []Field) {
	if ce := l.zl.Check(level, msg); ce != nil {
		ce.Write(toZapFields(fields)...)
	}
}

func (l *Logger) With(fields ...Field) Log {
	return &Logger{zl: l.zl.With(toZapFields(fields)...), level: l.level}
}

func (l *Logger) SetLevel(level Level) { l.level.SetLevel(toZapLevel(level)) }
func (l *Logger) GetLevel() Level      { return fromZapLevel(l.level.Level()) }

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zl.Sync()
}

var levels = [...]zapcore.Level{
	LevelDebug: zap.DebugLevel,
	LevelInfo:  zap.InfoLevel,
	LevelWarn:  zap.WarnLevel,
	LevelError: zap.ErrorLevel,
	LevelFatal: zap.FatalLevel,
}

func toZapLevel(level Level) zapcore.Level {
	if int(level) < len(levels) {
		return levels[level]
	}
	return zap.InfoLevel
}

func fromZapLevel(level zapcore.Level) Level {
	for l, zl := range levels {
		if zl == level {
			return Level(l)
		}
	}
	return LevelInfo
}

func toZapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		switch f.Type {
		case BoolType:
			out[i] = zap.Bool(f.Key, f.Value.(bool))
		case DurationType:
			out[i] = zap.Duration(f.Key, f.Value.(time.Duration))
		case Float64Type:
			out[i] = zap.Float64(f.Key, f.Value.(float64))
		case IntType:
			out[i] = zap.Int(f.Key, f.Value.(int))
		case StringType:
			out[i] = zap.String(f.Key, f.Value.(string))
		case Uint64Type:
			out[i] = zap.Uint64(f.Key, f.Value.(uint64))
		case ErrorType:
			err, _ := f.Value.(error)
			out[i] = zap.NamedError(f.Key, err)
		case VecType:
			v := f.Value.([2]float64)
			out[i] = zap.Object(f.Key, zapcore.ObjectMarshalerFunc(func(enc zapcore.ObjectEncoder) error {
				enc.AddFloat64("x", v[0])
				enc.AddFloat64("y", v[1])
				return nil
			}))
		default:
			out[i] = zap.Any(f.Key, f.Value)
		}
	}
	return out
}
