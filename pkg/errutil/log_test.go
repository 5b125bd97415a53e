package errutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestLogError_OopsError(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	err := oops.Code("USER_CREATE_FAILED").With("operation", "insert user").Wrap(errors.New("db down"))
	LogError(log, "register failed", err, "path", "/auth/register")

	record := decode(t, &buf)
	assert.Equal(t, "register failed", record["msg"])
	assert.Equal(t, "USER_CREATE_FAILED", record["code"])
	assert.Equal(t, "/auth/register", record["path"])
	assert.Contains(t, record["error"], "db down")
	assert.NotNil(t, record["context"])
}

func TestLogError_PlainError(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	LogError(log, "lookup failed", errors.New("boom"))

	record := decode(t, &buf)
	assert.Equal(t, "boom", record["error"])
	assert.Nil(t, record["code"])
}

func TestLogError_NilIsNoop(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))

	LogError(log, "nothing", nil)
	LogError(nil, "nothing", errors.New("x"))

	assert.Zero(t, buf.Len())
}
