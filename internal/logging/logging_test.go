package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeformat(t *testing.T) {
	tests := []struct {
		name   string
		line   string
		level  string
		caller string
		msg    string
	}{
		{
			name:   "info",
			line:   "I0102 15:04:05.123456   12345 reflector.go:219] Starting reflector",
			level:  "info",
			caller: "reflector.go:219",
			msg:    "Starting reflector",
		},
		{
			name:   "warning",
			line:   "W0102 15:04:05.123456       1 client_config.go:617] Neither --kubeconfig nor --master was specified",
			level:  "warn",
			caller: "client_config.go:617",
			msg:    "Neither --kubeconfig nor --master was specified",
		},
		{
			name:   "error",
			line:   "E0102 15:04:05.123456       1 reflector.go:138] failed to list",
			level:  "error",
			caller: "reflector.go:138",
			msg:    "failed to list",
		},
		{
			name:  "too short",
			line:  "short line",
			level: "info",
			msg:   "short line",
		},
		{
			name:  "not klog format",
			line:  "this line is long enough but has no klog header at all",
			level: "info",
			msg:   "this line is long enough but has no klog header at all",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, caller, msg := deformat([]byte(tt.line))
			assert.Equal(t, tt.level, level)
			assert.Equal(t, tt.caller, caller)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		m := map[string]interface{}{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNewFiltersDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(log.NewJSONLogger(buf), false)

	Debug(logger, "msg", "hidden")
	Info(logger, "msg", "shown")
	Error(logger, "msg", "also shown")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 2)
	assert.Equal(t, "shown", lines[0]["msg"])
	assert.Equal(t, "info", lines[0]["level"])
	assert.Equal(t, "error", lines[1]["level"])
}

func TestNewAllowsDebug(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := New(log.NewJSONLogger(buf), true)

	Debug(logger, "msg", "visible")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "debug", lines[0]["level"])
	assert.Contains(t, lines[0]["caller"], "logging_test.go")
}

func TestCollectKlogs(t *testing.T) {
	buf := &bytes.Buffer{}
	r, w := io.Pipe()

	done := make(chan struct{})
	go func() {
		collectKlogs(r, log.NewJSONLogger(buf))
		close(done)
	}()

	w.Write([]byte("W0102 15:04:05.123456       1 client_config.go:617] no kubeconfig\n"))
	w.Close()
	<-done

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "warn", lines[0]["level"])
	assert.Equal(t, "client_config.go:617", lines[0]["caller"])
	assert.Equal(t, "no kubeconfig", lines[0]["msg"])
}
