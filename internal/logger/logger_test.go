package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output should be JSON: %s", buf.String())
	return entry
}

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		env, level string
		want       zerolog.Level
	}{
		{"development", "", zerolog.DebugLevel},
		{"test", "", zerolog.WarnLevel},
		{"production", "", zerolog.InfoLevel},
		{"production", "WARN", zerolog.WarnLevel},
		{"test", "debug", zerolog.DebugLevel},
		{"production", "loud", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.env+"/"+tt.level, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.env, tt.level).Level())
		})
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel(" Error ")
	require.NoError(t, err)
	assert.Equal(t, zerolog.ErrorLevel, lvl)

	_, err = ParseLevel("")
	assert.Error(t, err)
	_, err = ParseLevel("verbose")
	assert.Error(t, err)
}

func TestEntries(t *testing.T) {
	tests := []struct {
		name  string
		log   func(l *Logger)
		level string
	}{
		{name: "debug", level: "debug", log: func(l *Logger) { l.Debug("quote priced", map[string]interface{}{"city": "Mérida"}) }},
		{name: "info", level: "info", log: func(l *Logger) { l.Info("quote priced", map[string]interface{}{"city": "Mérida"}) }},
		{name: "warn", level: "warn", log: func(l *Logger) { l.Warn("quote priced", map[string]interface{}{"city": "Mérida"}) }},
		{name: "error", level: "error", log: func(l *Logger) {
			l.Error("quote priced", errors.New("no product"), map[string]interface{}{"city": "Mérida"})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.log(NewWithWriter(&buf, zerolog.DebugLevel))

			entry := decodeLine(t, &buf)
			assert.Equal(t, tt.level, entry["level"])
			assert.Equal(t, "quote priced", entry["message"])
			assert.Equal(t, "Mérida", entry["city"])
			assert.Equal(t, ServiceName, entry["service"])
			if tt.level == "error" {
				assert.Equal(t, "no product", entry["error"])
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, zerolog.WarnLevel)

	log.Info("hidden", nil)
	assert.Empty(t, buf.String())

	log.Warn("shown", nil)
	assert.Contains(t, buf.String(), "shown")
}

func TestContactFieldsAreMasked(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, zerolog.InfoLevel)
	email := "ana@example.com"

	log.Info("Lead created", map[string]interface{}{
		"lead_id": "lead-1",
		"phone":   "9991234567",
		"email":   &email,
	})

	entry := decodeLine(t, &buf)
	assert.Equal(t, "lead-1", entry["lead_id"])
	assert.Equal(t, "***4567", entry["phone"])
	assert.Equal(t, "***@example.com", entry["email"])
	assert.NotContains(t, buf.String(), "9991234567")
}

func TestMask(t *testing.T) {
	var nilStr *string
	tests := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{nilStr, ""},
		{"123", "***"},
		{"+52 999 123 4567", "***4567"},
		{"ventas@thermohouse.mx", "***@thermohouse.mx"},
		{9991234567, "***4567"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Mask(tt.in))
	}
}

func TestChildLoggers(t *testing.T) {
	var buf bytes.Buffer
	base := NewWithWriter(&buf, zerolog.InfoLevel)

	base.WithRequestID("req-1").
		WithSession("u-7", "seller").
		With(map[string]interface{}{"lead_id": "l-1", "customer_phone": "9990001111"}).
		Info("child", nil)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "u-7", entry["user_id"])
	assert.Equal(t, "seller", entry["role"])
	assert.Equal(t, "l-1", entry["lead_id"])
	assert.Equal(t, "***1111", entry["customer_phone"])
}

func TestNilLoggerIsSafe(t *testing.T) {
	var log *Logger

	assert.NotPanics(t, func() {
		log.Debug("x", nil)
		log.Info("x", nil)
		log.Warn("x", nil)
		log.Error("x", errors.New("y"), nil)
		assert.Nil(t, log.With(nil))
		assert.Nil(t, log.WithRequestID("r"))
		assert.Nil(t, log.WithSession("u", "admin"))
		assert.Equal(t, zerolog.Disabled, log.Level())
	})
}
