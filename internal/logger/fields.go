package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field represents a structured log field.
type Field = zap.Field

// String constructs a field with a string value.
func String(key, val string) Field {
	return zap.String(key, val)
}

// Int constructs a field with an integer value.
func Int(key string, val int) Field {
	return zap.Int(key, val)
}

// Int64 constructs a field with a 64-bit integer value.
func Int64(key string, val int64) Field {
	return zap.Int64(key, val)
}

// Bool constructs a field with a boolean value.
func Bool(key string, val bool) Field {
	return zap.Bool(key, val)
}

// Duration constructs a field with a time.Duration value.
func Duration(key string, val time.Duration) Field {
	return zap.Duration(key, val)
}

// Time constructs a field with a time.Time value.
func Time(key string, val time.Time) Field {
	return zap.Time(key, val)
}

// Error constructs a field with an error value.
func Error(err error) Field {
	return zap.Error(err)
}

// Common fields for requests and sessions.

func RequestID(id string) Field {
	return String("request_id", id)
}

func SessionID(id string) Field {
	return String("session_id", id)
}

func User(name string) Field {
	return String("user", name)
}

func Reason(r string) Field {
	return String("reason", r)
}

func Method(m string) Field {
	return String("method", m)
}

func Path(p string) Field {
	return String("path", p)
}

func Status(code int) Field {
	return Int("status", code)
}

func Latency(d time.Duration) Field {
	return Duration("latency", d)
}

func ClientIP(ip string) Field {
	return String("client_ip", ip)
}

// Component identifies the subsystem a log line came from.
func Component(name string) Field {
	return String("component", name)
}

func parseLevel(level string) (zapcore.Level, error) {
	switch level {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}
