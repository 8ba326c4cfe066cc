package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	LoggerKey    contextKey = "logger"
)

var globalLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output io.Writer
}

// InitWithFile writes to stdout and a rotated file.
func InitWithFile(filename, level, format string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}

	rotated := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}

	Init(Config{
		Level:  level,
		Format: format,
		Output: io.MultiWriter(os.Stdout, rotated),
	})
	return nil
}

func Init(cfg Config) {
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	zerolog.CallerMarshalFunc = func(pc uintptr, file string, line int) string {
		parts := strings.Split(file, "/")
		if len(parts) > 2 {
			file = strings.Join(parts[len(parts)-2:], "/")
		}
		return fmt.Sprintf("%s:%d", file, line)
	}

	if cfg.Format == "console" {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: "15:04:05.000",
			FormatLevel: func(i interface{}) string {
				return strings.ToUpper(fmt.Sprintf("%-6s", i))
			},
		}
	}

	globalLogger = zerolog.New(output).With().Timestamp().Caller().Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithRequestID stores the id and a logger tagged with it on ctx.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	l := globalLogger.With().Str("request_id", requestID).Logger()
	ctx = context.WithValue(ctx, RequestIDKey, requestID)
	return context.WithValue(ctx, LoggerKey, &l)
}

// FromContext falls back to the global logger when ctx carries none.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &globalLogger
	}
	if l, ok := ctx.Value(LoggerKey).(*zerolog.Logger); ok && l != nil {
		return l
	}
	return &globalLogger
}

func GetRequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}

// WithFields returns a ctx whose logger carries the extra fields.
func WithFields(ctx context.Context, fields map[string]interface{}) context.Context {
	l := FromContext(ctx).With().Fields(fields).Logger()
	return context.WithValue(ctx, LoggerKey, &l)
}

func Debug(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Debug()
}

func Info(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Info()
}

func Warn(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Warn()
}

func Error(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Error()
}

func Fatal(ctx context.Context) *zerolog.Event {
	return FromContext(ctx).Fatal()
}
