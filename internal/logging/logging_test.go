package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetupTo(&buf, "debug", "json"))
	t.Cleanup(func() { _ = SetupTo(&bytes.Buffer{}, "info", "text") })

	log.WithField("run_id", "abc").Debug("Imported product")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "debug", entry["level"])
	assert.Equal(t, "abc", entry["run_id"])
	assert.Equal(t, "Imported product", entry["msg"])
}

func TestSetupFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetupTo(&buf, "warn", "text"))
	t.Cleanup(func() { _ = SetupTo(&bytes.Buffer{}, "info", "text") })

	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetupRejectsBadInput(t *testing.T) {
	assert.Error(t, SetupTo(&bytes.Buffer{}, "loud", "text"))
	assert.Error(t, SetupTo(&bytes.Buffer{}, "info", "xml"))
}
