package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewHandler(t *testing.T) {
	for _, format := range []string{"", "text", "json", "tint", "JSON"} {
		h, err := NewHandler(format, slog.LevelInfo, &bytes.Buffer{})
		require.NoError(t, err, format)
		assert.NotNil(t, h)
	}
	_, err := NewHandler("xml", slog.LevelInfo, nil)
	assert.Error(t, err)
}

func TestLoggerComponentAndContext(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: slog.LevelDebug, Format: FormatJSON, Component: ComponentAuth, Output: &buf})
	require.NoError(t, err)

	ctx := WithLogger(context.Background(), logger.With(FieldRequestID, "req_1"))
	FromContext(ctx).InfoContext(ctx, "hello", FieldUserID, "u1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, ComponentAuth, entry[FieldComponent])
	assert.Equal(t, "req_1", entry[FieldRequestID])
	assert.Equal(t, "u1", entry[FieldUserID])
}

func TestFromContextDefault(t *testing.T) {
	l := FromContext(context.Background())
	assert.Equal(t, "unknown", l.Component())
}

func TestStructuredLogger_LogHTTPEnd(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: slog.LevelInfo, Format: FormatJSON, Output: &buf})
	require.NoError(t, err)
	sl := NewStructuredLogger(logger)

	r := httptest.NewRequest(http.MethodGet, "/expenses?page=2", nil)
	sl.LogHTTPEnd(context.Background(), r, NewFields().WithHTTPResponse(404, 3, "3ms"), 404)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "/expenses", entry[FieldPath])
	assert.Equal(t, "page=2", entry[FieldQuery])
	assert.Equal(t, false, entry[FieldSuccess])
}

func TestStructuredLogger_LogError(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: FormatJSON, Output: &buf})
	require.NoError(t, err)

	NewStructuredLogger(logger).LogError(context.Background(), "save failed", errors.New("disk full"),
		ErrorTypeDatabase, ComponentStorage, OpCreate, nil)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "disk full", entry[FieldError])
	assert.Equal(t, ErrorTypeDatabase, entry[FieldErrorType])
	assert.Equal(t, OpCreate, entry[FieldOperation])
}

func TestStructuredLogger_LogErrorDefaultsComponent(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Format: FormatJSON, Output: &buf, Component: ComponentReceipt})
	require.NoError(t, err)

	NewStructuredLogger(logger).LogError(context.Background(), "upload failed", errors.New("bucket gone"),
		ErrorTypeInternal, "", OpUpload, nil)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, ComponentReceipt, entry[FieldComponent])
	assert.Equal(t, OpUpload, entry[FieldOperation])
}
