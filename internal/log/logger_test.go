package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := New(Config{Level: slog.LevelInfo, Component: ComponentLedger, Output: &buf})

	l.Info("hello", FieldOwner, "u1")
	out := buf.String()
	assert.Contains(t, out, "component=ledger")
	assert.Contains(t, out, "owner_id=u1")

	buf.Reset()
	l.WithComponent(ComponentClassifier).Warn("degraded")
	assert.Contains(t, buf.String(), "component=classifier")
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestNewContextRoundTrip(t *testing.T) {
	l := New(Config{Component: ComponentHTTP, Output: &bytes.Buffer{}}).With(FieldRequestID, "req-42")
	got := FromContext(NewContext(context.Background(), l))
	assert.Same(t, l, got)
	assert.Equal(t, ComponentHTTP, got.Component())
}

func TestFromContextFallsBack(t *testing.T) {
	l := FromContext(context.Background())
	assert.Equal(t, "unknown", l.Component())
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(New(Config{Level: slog.LevelDebug, Output: &buf}))
	r := httptest.NewRequest(http.MethodPost, "/expenses?x=1", nil)

	sl.LogHTTPEnd(context.Background(), r, 503, 12, "10.0.0.1")
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "status_code=503")

	buf.Reset()
	sl.LogEntryCreated(context.Background(), "u1", "expense", "e1", 1250, "Food")
	line := buf.String()
	assert.True(t, strings.Contains(line, "category=Food") && strings.Contains(line, "amount_cents=1250"), line)

	buf.Reset()
	sl.LogError(context.Background(), "boom", errors.New("disk full"), ComponentStorage, OpCreate, nil)
	assert.Contains(t, buf.String(), `error="disk full"`)
}
