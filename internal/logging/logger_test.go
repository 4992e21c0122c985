package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureJSONCarriesComponentAndBatch(t *testing.T) {
	t.Setenv(EnvLevel, "")
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	logger := WithBatch("executor", "b-1")
	logger.Debug().Str("output", "clip.720p.mp4").Msg("job finished")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "executor", entry["component"])
	assert.Equal(t, "b-1", entry["batch_id"])
	assert.Equal(t, "alchemist", entry["service"])
	assert.Equal(t, "debug", entry["level"])
}

func TestConfigureEnvOverridesLevel(t *testing.T) {
	t.Setenv(EnvLevel, "warn")
	var buf bytes.Buffer
	Configure(Config{Level: "debug", Format: "json", Output: &buf})
	t.Cleanup(func() { Configure(Config{}) })

	logger := WithComponent("batch")
	logger.Info().Msg("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestUseConsoleNonFileWriter(t *testing.T) {
	assert.False(t, useConsole("", &bytes.Buffer{}))
	assert.True(t, useConsole("console", &bytes.Buffer{}))
	assert.False(t, useConsole("JSON", &bytes.Buffer{}))
}
