package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captureAudit(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	previous := Logger
	Logger = &logger
	t.Cleanup(func() { Logger = previous })
	return &buf
}

func TestLog(t *testing.T) {
	buf := captureAudit(t)
	ctx := context.WithValue(context.Background(), chimiddleware.RequestIDKey, "req-1")

	Log(ctx, Event{
		Type:    EventReminderThrottled,
		UserID:  "alice",
		PairID:  "p1",
		Details: map[string]any{"promptId": int64(7), "retryAfterSeconds": 50, "cause": errors.New("boom")},
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "security", entry["audit"])
	assert.Equal(t, "reminder_throttled", entry["eventType"])
	assert.Equal(t, "req-1", entry["requestId"])
	assert.Equal(t, "alice", entry["userId"])
	assert.Equal(t, "p1", entry["pairId"])
	assert.Equal(t, 7.0, entry["promptId"])
	assert.Equal(t, 50.0, entry["retryAfterSeconds"])
	assert.Equal(t, "boom", entry["cause"])
	assert.NotContains(t, entry, "ip")
}

func TestLogFromRequest(t *testing.T) {
	buf := captureAudit(t)
	req := httptest.NewRequest("GET", "/api/v1/pair", nil)
	req.RemoteAddr = "203.0.113.9:51234"
	req.Header.Set("User-Agent", "TelegramBot")
	req.Header.Set("X-Forwarded-For", "10.0.0.1")

	LogFromRequest(req, Event{Type: EventAuthFailure})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "203.0.113.9", entry["ip"])
	assert.Equal(t, "TelegramBot", entry["userAgent"])
}
