package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
		err  bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{" warn ", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"chatty", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.err {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "tradesense", slog.LevelInfo, "json")

	l.Debug("hidden")
	l.Info("cycle done", "signals", 2)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "tradesense", rec["service"])
	assert.Equal(t, "cycle done", rec["msg"])
	assert.Equal(t, 2.0, rec["signals"])
}

func TestNewText(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "tradesense", slog.LevelDebug, "text").Debug("hello")
	assert.Contains(t, buf.String(), "service=tradesense")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestRequestID(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", RequestID(ctx))

	ctx = WithRequestID(ctx, "01HXYZ")
	assert.Equal(t, "01HXYZ", RequestID(ctx))

	var buf bytes.Buffer
	base := New(&buf, "svc", slog.LevelInfo, "text")
	FromContext(ctx, base).Info("x")
	assert.Contains(t, buf.String(), "request_id=01HXYZ")
}
