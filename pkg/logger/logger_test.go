package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func capture() *bytes.Buffer {
	var buf bytes.Buffer
	log = slog.New(slog.NewTextHandler(&buf, nil))
	return &buf
}

func TestError_PromotesBareError(t *testing.T) {
	buf := capture()

	Error("merge failed", errors.New("boom"))

	assert.Contains(t, buf.String(), "error=boom")
	assert.NotContains(t, buf.String(), "BADKEY")
}

func TestError_KeepsKeyValuePairs(t *testing.T) {
	buf := capture()

	Error("merge failed", "plan_id", 7, "error", errors.New("boom"))

	assert.Contains(t, buf.String(), "plan_id=7")
	assert.Contains(t, buf.String(), "error=boom")
	assert.NotContains(t, buf.String(), "BADKEY")
}

func TestInfo_PlainPairs(t *testing.T) {
	buf := capture()

	Info("plan generated", "client_id", uint(1), "events", 6)

	assert.Contains(t, buf.String(), "client_id=1")
	assert.Contains(t, buf.String(), "events=6")
}
