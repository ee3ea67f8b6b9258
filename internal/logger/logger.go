package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServiceName is stamped on every entry.
const ServiceName = "thermohouse-api"

// maskedKeys hold customer contact data; their values are logged masked.
var maskedKeys = map[string]bool{
	"phone":          true,
	"email":          true,
	"customer_phone": true,
	"customer_email": true,
}

// Logger wraps zerolog.Logger with the map-of-fields API used across the
// service. A nil *Logger discards everything.
type Logger struct {
	zlog zerolog.Logger
}

// New creates a Logger for env. An empty level picks the env default:
// debug with console output in development, warn in test, info elsewhere.
func New(env, level string) *Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	var out io.Writer = os.Stdout
	lvl := zerolog.InfoLevel
	switch env {
	case "development":
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
		lvl = zerolog.DebugLevel
	case "test":
		lvl = zerolog.WarnLevel
	}

	if level != "" {
		parsed, err := ParseLevel(level)
		if err == nil {
			lvl = parsed
		} else {
			fmt.Fprintf(os.Stderr, "logger: %v, using %s\n", err, lvl)
		}
	}

	return NewWithWriter(out, lvl)
}

// ParseLevel accepts zerolog level names, case-insensitively.
func ParseLevel(s string) (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(s)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return lvl, nil
}

// NewWithWriter creates a JSON logger writing to w at the given level.
func NewWithWriter(w io.Writer, level zerolog.Level) *Logger {
	return &Logger{
		zlog: zerolog.New(w).Level(level).With().Timestamp().Str("service", ServiceName).Logger(),
	}
}

// Level reports the minimum level written.
func (l *Logger) Level() zerolog.Level {
	if l == nil {
		return zerolog.Disabled
	}
	return l.zlog.GetLevel()
}

func (l *Logger) emit(event *zerolog.Event, msg string, fields map[string]interface{}) {
	for key, value := range fields {
		if maskedKeys[key] {
			event = event.Str(key, Mask(value))
			continue
		}
		event = event.Interface(key, value)
	}
	event.Msg(msg)
}

func (l *Logger) Debug(msg string, fields map[string]interface{}) {
	if l == nil {
		return
	}
	l.emit(l.zlog.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields map[string]interface{}) {
	if l == nil {
		return
	}
	l.emit(l.zlog.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields map[string]interface{}) {
	if l == nil {
		return
	}
	l.emit(l.zlog.Warn(), msg, fields)
}

// Error logs msg with err attached; err may be nil.
func (l *Logger) Error(msg string, err error, fields map[string]interface{}) {
	if l == nil {
		return
	}
	l.emit(l.zlog.Error().Err(err), msg, fields)
}

// Fatal logs and exits with status 1.
func (l *Logger) Fatal(msg string, err error, fields map[string]interface{}) {
	if l == nil {
		os.Exit(1)
	}
	l.emit(l.zlog.Fatal().Err(err), msg, fields)
}

// With returns a child logger carrying fields on every entry.
func (l *Logger) With(fields map[string]interface{}) *Logger {
	if l == nil {
		return nil
	}
	ctx := l.zlog.With()
	for key, value := range fields {
		if maskedKeys[key] {
			ctx = ctx.Str(key, Mask(value))
			continue
		}
		ctx = ctx.Interface(key, value)
	}
	return &Logger{zlog: ctx.Logger()}
}

// WithRequestID returns a child logger tagged with the request id.
func (l *Logger) WithRequestID(requestID string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{zlog: l.zlog.With().Str("request_id", requestID).Logger()}
}

// WithSession returns a child logger tagged with the acting staff member.
func (l *Logger) WithSession(userID, role string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{zlog: l.zlog.With().Str("user_id", userID).Str("role", role).Logger()}
}

// Mask keeps the last four characters of a contact value, or the domain of
// an email address. Pointers are dereferenced; nil masks to "".
func Mask(v interface{}) string {
	var s string
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		s = t
	case *string:
		if t == nil {
			return ""
		}
		s = *t
	default:
		s = fmt.Sprint(t)
	}

	if at := strings.LastIndexByte(s, '@'); at >= 0 {
		return "***" + s[at:]
	}
	r := []rune(s)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return "***" + string(r[len(r)-4:])
}
