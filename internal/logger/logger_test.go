package logger

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	SetWriter(&buf)
	SetLevel(WARN)
	defer SetLevel(INFO)

	Info("hidden")
	Warn("shown", 3, errors.New("boom"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown 3 boom")
	assert.Contains(t, out, "logger_test.go")
}

func TestObjectsAreEncodedAsFields(t *testing.T) {
	var buf bytes.Buffer
	SetWriter(&buf)
	SetLevel(DEBUG)
	defer SetLevel(INFO)

	Debug("summary", map[string]int{"inserted": 2})
	assert.Contains(t, buf.String(), `{"inserted":2}`)
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("Warning")
	require.NoError(t, err)
	assert.Equal(t, WARN, l)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}
