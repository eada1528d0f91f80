package logger

import (
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// root logger
var log atomic.Pointer[Logger]

// ValidLogLevels lists the levels accepted in configuration.
var ValidLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Logger wraps zap.SugaredLogger to provide a consistent logging interface across the project.
// It provides both structured logging (with fields) and printf-style logging methods.
type Logger struct {
	*zap.SugaredLogger
	atomicLevel zap.AtomicLevel
	component   string
}

// LevelSource resolves the configured level of a component.
// It is satisfied by config.LoggingConfig.
type LevelSource interface {
	GetComponentLevel(component string) string
	IsDevelopment() bool
}

// NewLogger creates a new logger with the specified configuration.
// level can be "debug", "info", "warn", "error"
// development mode enables stack traces and uses console encoder
func NewLogger(level string, development bool) (*Logger, error) {
	var config zap.Config

	if development {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	atomicLevel := zap.NewAtomicLevelAt(zapLevel)
	config.Level = atomicLevel

	zapLogger, err := config.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{SugaredLogger: zapLogger.Sugar(), atomicLevel: atomicLevel}, nil
}

// NewComponentLoggerFromConfig builds a logger for component at the level configured for it.
// A nil source yields an info level production logger.
func NewComponentLoggerFromConfig(component string, source LevelSource) (*Logger, error) {
	level, development := "info", false
	if source != nil {
		level = source.GetComponentLevel(component)
		development = source.IsDevelopment()
	}

	l, err := NewLogger(level, development)
	if err != nil {
		return nil, err
	}

	return l.WithComponent(component), nil
}

// NewNopLogger creates a no-op logger that discards all logs.
// Useful for testing.
func NewNopLogger() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar(), atomicLevel: zap.NewAtomicLevel()}
}

// WithComponent creates a child logger with a component name field.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{SugaredLogger: l.With("component", component), atomicLevel: l.atomicLevel, component: component}
}

// GetComponent returns the component name set by WithComponent.
func (l *Logger) GetComponent() string {
	return l.component
}

// WithIndex creates a child logger tagged with a managed index name.
func (l *Logger) WithIndex(name string) *Logger {
	return &Logger{SugaredLogger: l.With("index", name), atomicLevel: l.atomicLevel, component: l.component}
}

// WithFields creates a child logger carrying the given key-value pairs.
func (l *Logger) WithFields(keysAndValues ...any) *Logger {
	return &Logger{SugaredLogger: l.With(keysAndValues...), atomicLevel: l.atomicLevel, component: l.component}
}

// GetLevel returns the current minimum enabled level.
func (l *Logger) GetLevel() string {
	return l.atomicLevel.Level().String()
}

// SetLevel changes the minimum enabled level of this logger and every child derived from it.
func (l *Logger) SetLevel(level string) error {
	zapLevel, err := zapcore.ParseLevel(level)
	if err != nil {
		return err
	}
	l.atomicLevel.SetLevel(zapLevel)

	return nil
}

// Close flushes any buffered log entries.
func (l *Logger) Close() error {
	return l.Sync()
}

func GetDefaultLogger() *Logger {
	l := log.Load()
	if l != nil {
		return l
	}
	// default level: debug
	zapLogger, err := NewLogger("debug", true)
	if err != nil {
		panic(err)
	}
	log.Store(zapLogger)
	return log.Load()
}

// SetDefaultLogger replaces the root logger returned by GetDefaultLogger.
func SetDefaultLogger(l *Logger) {
	log.Store(l)
}
