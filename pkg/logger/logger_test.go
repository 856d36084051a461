package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithOutput_JSON(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithOutput("debug", buf)

	log.WithField("service", "occurrence").Debug("Fetching occurrence by ID")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Fetching occurrence by ID", entry["message"])
	assert.Equal(t, "occurrence", entry["service"])
	assert.Equal(t, "debug", entry["level"])
}

func TestNewWithOutput_InvalidLevelDefaultsToInfo(t *testing.T) {
	log := NewWithOutput("loud", &bytes.Buffer{})

	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}
