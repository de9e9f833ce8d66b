package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "json")

	logger.Info("oracle failed", "oracle", "binance", "error", errors.New("boom"), 42)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "oracle failed", entry["message"])
	assert.Equal(t, "binance", entry["oracle"])
	assert.Equal(t, "boom", entry["error"])
}

func TestLogger_WithCarriesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "json").With("job", "prices")

	logger.Warn("skipping symbol", "symbol", "SEFI")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "prices", entry["job"])
	assert.Equal(t, "SEFI", entry["symbol"])
}

func TestNoopLogger(t *testing.T) {
	logger := NewNoopLogger()
	// must not panic
	logger.Debug("debug")
	logger.Error("error", "k", "v")
}
